package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/chtzvt/backlogtrace/internal/tracer"
	"github.com/spf13/viper"
)

func LoadConfig(cfgFile string) (*DaemonConfig, error) {
	v := viper.New()
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("backlogd")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/backlogd/")
	}

	v.SetEnvPrefix("BACKLOGD") // env vars like BACKLOGD_NODE__ID
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))

	v.BindEnv("node.id")
	v.BindEnv("etcd.endpoints")
	v.BindEnv("etcd.username")
	v.BindEnv("etcd.password")
	v.BindEnv("etcd.prefix")
	v.BindEnv("etcd.backlog_compression")
	v.BindEnv("api.listen_addr")
	v.BindEnv("api.auth_tokens")
	v.BindEnv("agent.ingest_addr")
	v.BindEnv("agent.publish_period")

	v.SetDefault("api.listen_addr", ":8080")
	v.SetDefault("agent.publish_period", "2s")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg DaemonConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Node.ID == "" {
		cfg.Node.ID, _ = os.Hostname()
	}
	applyTracerDefaults(v, &cfg)

	return &cfg, nil
}

// applyTracerDefaults fills the tracer settings each context left unset.
func applyTracerDefaults(v *viper.Viper, cfg *DaemonConfig) {
	def := tracer.DefaultConfig()
	raw, _ := v.Get("contexts").([]any)
	for i := range cfg.Contexts {
		set := map[string]any{}
		if i < len(raw) {
			if m, ok := raw[i].(map[string]any); ok {
				if t, ok := m["tracer"].(map[string]any); ok {
					set = t
				}
			}
		}
		tc := &cfg.Contexts[i].Tracer
		if _, ok := set["backlog_size"]; !ok {
			tc.BacklogSize = def.BacklogSize
		}
		if _, ok := set["remove_on_dump"]; !ok {
			tc.RemoveOnDump = def.RemoveOnDump
		}
		if _, ok := set["body_max_chars"]; !ok {
			tc.BodyMaxChars = def.BodyMaxChars
		}
		if _, ok := set["body_include_files"]; !ok {
			tc.BodyIncludeFiles = def.BodyIncludeFiles
		}
	}
}
