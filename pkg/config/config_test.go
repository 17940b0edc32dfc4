// Copyright 2025 Veda Platform, Inc.

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name       string
		configFile string
		wantErr    bool
		validate   func(*testing.T, *Config)
	}{
		{
			name:       "load with defaults",
			configFile: "",
			wantErr:    false,
			validate: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8901, cfg.Server.Port)
				assert.Equal(t, "bbolt", cfg.Storage.Backend)
				assert.Equal(t, "full", cfg.Stats.Mode)
				assert.Equal(t, "info", cfg.Logging.Level)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.configFile)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)

			if tt.validate != nil {
				tt.validate(t, cfg)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: &Config{
				Server:  ServerConfig{Port: 8901},
				Storage: StorageConfig{Backend: "bbolt"},
				Stats:   StatsConfig{Mode: "full"},
				Logging: LoggingConfig{Level: "info"},
			},
			wantErr: false,
		},
		{
			name: "invalid port",
			cfg: &Config{
				Server: ServerConfig{Port: -1},
			},
			wantErr: true,
		},
		{
			name: "invalid storage backend",
			cfg: &Config{
				Server:  ServerConfig{Port: 8901},
				Storage: StorageConfig{Backend: "postgres"},
				Logging: LoggingConfig{Level: "info"},
			},
			wantErr: true,
		},
		{
			name: "negative cache size",
			cfg: &Config{
				Server:  ServerConfig{Port: 8901},
				Storage: StorageConfig{Backend: "bbolt", CacheSize: -1},
				Logging: LoggingConfig{Level: "info"},
			},
			wantErr: true,
		},
		{
			name: "invalid stats mode",
			cfg: &Config{
				Server:  ServerConfig{Port: 8901},
				Storage: StorageConfig{Backend: "bbolt"},
				Stats:   StatsConfig{Mode: "verbose"},
				Logging: LoggingConfig{Level: "info"},
			},
			wantErr: true,
		},
		{
			name: "invalid log level",
			cfg: &Config{
				Server:  ServerConfig{Port: 8901},
				Storage: StorageConfig{Backend: "bbolt"},
				Logging: LoggingConfig{Level: "verbose"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validate(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSetDefaults(t *testing.T) {
	cfg := &Config{}
	setDefaults(cfg)

	assert.Equal(t, "bbolt", cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/az/az.db", cfg.Storage.Path)
	assert.Equal(t, "P", cfg.Engine.NamespacePerm)
	assert.Equal(t, "M", cfg.Engine.NamespaceMember)
	assert.Equal(t, "F", cfg.Engine.NamespaceFilter)
	assert.Equal(t, "PN", cfg.Engine.NamespaceNeg)
	assert.Equal(t, "full", cfg.Stats.Mode)
	assert.Equal(t, "az.stats", cfg.Stats.NatsSubject)
	assert.Equal(t, "/var/log/az/audit.log", cfg.Audit.OutputPath)
	assert.Equal(t, 8902, cfg.Health.Port)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}
