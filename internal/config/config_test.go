package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:            "development",
		Port:           "8000",
		JWTSecret:      "secure-secret-at-least-32-chars-long",
		DBDriver:       "postgres",
		DBPassword:     "secure-password",
		DBSSLMode:      "require",
		CacheBackend:   "memory",
		PageSize:       10,
		IndexCacheTTL:  20,
		ImageMaxUpload: 5,
	}
}

func TestConfig_ValidateSSLMode(t *testing.T) {
	tests := []struct {
		name        string
		env         string
		sslMode     string
		expectError bool
	}{
		{"Production with empty SSL mode", "production", "", true},
		{"Production with disable SSL mode", "production", "disable", true},
		{"Production with require SSL mode", "production", "require", false},
		{"Prod with disable SSL mode", "prod", "disable", true},
		{"Prod with verify-full SSL mode", "prod", "verify-full", false},
		{"Development with disable SSL mode", "development", "disable", false},
		{"Test with empty SSL mode", "test", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			c.Env = tt.env
			c.DBSSLMode = tt.sslMode

			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"missing port", func(c *Config) { c.Port = "" }},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }},
		{"zero page size", func(c *Config) { c.PageSize = 0 }},
		{"negative ttl", func(c *Config) { c.IndexCacheTTL = -1 }},
		{"unknown driver", func(c *Config) { c.DBDriver = "mysql" }},
		{"unknown cache backend", func(c *Config) { c.CacheBackend = "memcached" }},
		{"redis backend without url", func(c *Config) { c.CacheBackend = "redis"; c.RedisURL = "" }},
		{"default secret in production", func(c *Config) { c.Env = "production"; c.JWTSecret = defaultJWTSecret }},
		{"weak db password in production", func(c *Config) { c.Env = "production"; c.DBPassword = "password" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	t.Run("sqlite in production skips db password checks", func(t *testing.T) {
		c := validConfig()
		c.Env = "production"
		c.DBDriver = "sqlite"
		c.DBPassword = ""
		c.DBSSLMode = ""
		assert.NoError(t, c.Validate())
	})
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "development")
	t.Setenv("DB_SSLMODE", "  DISABLE  ")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "disable", c.DBSSLMode)
	assert.Equal(t, 10, c.PageSize)
	assert.Equal(t, 20*time.Second, c.IndexCacheDuration())
	assert.Equal(t, "/auth/login/", c.LoginURL)
	assert.Equal(t, "memory", c.CacheBackend)
	assert.Equal(t, int64(5<<20), c.ImageMaxUploadBytes())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Cleanup(viper.Reset)
	t.Setenv("APP_ENV", "test")
	t.Setenv("PAGE_SIZE", "3")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("INDEX_CACHE_TTL_SECONDS", "5")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 3, c.PageSize)
	assert.Equal(t, "redis", c.CacheBackend)
	assert.Equal(t, 5*time.Second, c.IndexCacheDuration())
}
