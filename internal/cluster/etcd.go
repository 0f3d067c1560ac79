package cluster

import (
	"time"

	"github.com/chtzvt/backlogtrace/internal/compression"
	clientv3 "go.etcd.io/etcd/client/v3"
)

const DefaultPrefix = "/backlogtrace"

type EtcdConfig struct {
	Endpoints   []string
	Username    string // optional
	Password    string // optional
	DialTimeout time.Duration
	Prefix      string // default: "/backlogtrace"

	// BacklogCompression applies to published backlogs: gzip (default), bzip2 or none.
	BacklogCompression string
}

type etcdCluster struct {
	client *clientv3.Client
	cfg    EtcdConfig
}

func NewEtcdCluster(cfg EtcdConfig) (Cluster, error) {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.BacklogCompression == "" {
		cfg.BacklogCompression = compression.Gzip
	}
	if err := compression.Supported(cfg.BacklogCompression); err != nil {
		return nil, err
	}
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &etcdCluster{
		client: cli,
		cfg:    cfg,
	}, nil
}

func (c *etcdCluster) Prefix() string {
	return c.cfg.Prefix
}

func (c *etcdCluster) Client() *clientv3.Client {
	return c.client
}

func (c *etcdCluster) Close() error {
	return c.client.Close()
}
