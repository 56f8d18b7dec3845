package common

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DB_URL", "file::memory:")
	t.Setenv("DB_DRIVER", "sqlite")

	cfg := LoadConfig()
	assert.Equal(t, 50, cfg.Extraction.SampleRows)
	assert.Equal(t, "pc", cfg.Extraction.DefaultUnit)
	assert.Equal(t, "memory", cfg.Jobs.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.TTL)
	assert.Equal(t, "", cfg.LLM.Provider)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("DB_URL", "postgres://x")
	t.Setenv("LLM_PROVIDER", "OpenAI")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LLM_MAX_RETRIES", "5")
	t.Setenv("JOB_TTL", "90m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := LoadConfig()
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 5, cfg.LLM.MaxRetries)
	assert.Equal(t, 90*time.Minute, cfg.Jobs.TTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing dsn", map[string]string{}},
		{"bad driver", map[string]string{"DB_URL": "x", "DB_DRIVER": "mysql"}},
		{"openai without key", map[string]string{"DB_URL": "x", "LLM_PROVIDER": "openai"}},
		{"vertex without project", map[string]string{"DB_URL": "x", "LLM_PROVIDER": "vertex"}},
		{"unknown provider", map[string]string{"DB_URL": "x", "LLM_PROVIDER": "llama"}},
		{"unknown store", map[string]string{"DB_URL": "x", "JOB_STORE": "etcd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DB_URL", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			err := LoadConfig().Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))
			assert.Equal(t, CodeConfig, ErrorCode(err))
		})
	}
}
