package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"ENVIRONMENT", "LOG_LEVEL", "PORT", "GRPC_ADDR", "STORE_BACKEND", "GOOGLE_CLOUD_PROJECT", "LINE_CHANNEL_SECRET", "LINE_CHANNEL_TOKEN"} {
		t.Setenv(key, "")
	}

	cfg, loaded := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.False(t, loaded)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, ":40000", cfg.GRPCAddr)
	assert.Equal(t, StoreMemory, cfg.StoreBackend)
	assert.False(t, cfg.LineEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoad_DotEnv(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("STORE_BACKEND", "")
	os.Unsetenv("PORT")
	os.Unsetenv("STORE_BACKEND")

	path := filepath.Join(t.TempDir(), ".env")
	err := os.WriteFile(path, []byte("PORT=9090\nSTORE_BACKEND=firestore\n"), 0o600)
	assert.NoError(t, err)

	cfg, loaded := Load(path)
	t.Cleanup(func() {
		os.Unsetenv("PORT")
		os.Unsetenv("STORE_BACKEND")
	})

	assert.True(t, loaded)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, StoreFirestore, cfg.StoreBackend)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "memory", cfg: Config{StoreBackend: StoreMemory}},
		{name: "firestore with project", cfg: Config{StoreBackend: StoreFirestore, ProjectID: "p"}},
		{name: "firestore without project", cfg: Config{StoreBackend: StoreFirestore}, wantErr: true},
		{name: "unknown backend", cfg: Config{StoreBackend: "redis"}, wantErr: true},
		{name: "line secret only", cfg: Config{StoreBackend: StoreMemory, LineChannelSecret: "s"}, wantErr: true},
		{name: "line both", cfg: Config{StoreBackend: StoreMemory, LineChannelSecret: "s", LineChannelToken: "t"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
