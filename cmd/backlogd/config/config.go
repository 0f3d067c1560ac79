package config

import (
	"time"

	"github.com/chtzvt/backlogtrace/internal/api"
	"github.com/chtzvt/backlogtrace/internal/tracer"
)

type NodeConfig struct {
	ID string `mapstructure:"id"`
}

type EtcdConfig struct {
	Endpoints []string `mapstructure:"endpoints"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Prefix    string   `mapstructure:"prefix"`

	BacklogCompression string `mapstructure:"backlog_compression"`
}

type AgentConfig struct {
	IngestAddr    string        `mapstructure:"ingest_addr"`
	PublishPeriod time.Duration `mapstructure:"publish_period"`
}

// ContextConfig is one hosted context and the initial settings of its tracer.
type ContextConfig struct {
	Name   string        `mapstructure:"name"`
	Tracer tracer.Config `mapstructure:"tracer"`
}

type DaemonConfig struct {
	Node     NodeConfig      `mapstructure:"node"`
	Api      api.Config      `mapstructure:"api"`
	Etcd     EtcdConfig      `mapstructure:"etcd"`
	Agent    AgentConfig     `mapstructure:"agent"`
	Contexts []ContextConfig `mapstructure:"contexts"`
}
