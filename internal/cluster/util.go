package cluster

import (
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrContextNotFound   = errors.New("context not found")
	ErrTracerUnavailable = errors.New("backlog tracer status not published")
	ErrInvalidName       = errors.New("invalid context name")
)

func mustJSON(v interface{}) string {
	b, _ := json.Marshal(v)
	return string(b)
}

// ValidateName rejects names that would escape their etcd key.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "/\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

func (c *etcdCluster) contextKey(name string) string {
	return path.Join(c.cfg.Prefix, "contexts", name)
}

func (c *etcdCluster) tracerKey(name, leaf string) string {
	return path.Join(c.cfg.Prefix, "tracers", name, leaf)
}
