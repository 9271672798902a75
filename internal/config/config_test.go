package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("REPOSITORY_URL", "https://cms.example.go.id/api")
	t.Setenv("SEARCH_DEBOUNCE", "not-a-duration")

	cfg := FromEnv()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 6, cfg.ArticlesPageSize)
	assert.Equal(t, 8, cfg.NewsPageSize)
	assert.Equal(t, 500*time.Millisecond, cfg.SearchDebounce)
	assert.False(t, cfg.UseR2())
}

func TestValidate(t *testing.T) {
	t.Setenv("REPOSITORY_URL", "cms.local")
	t.Setenv("APP_ENV", "production")
	t.Setenv("ADMIN_API_KEY", "")
	t.Setenv("R2_ENDPOINT", "https://acc.r2.cloudflarestorage.com")

	err := FromEnv().Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "REPOSITORY_URL")
	assert.ErrorContains(t, err, "ADMIN_API_KEY")
	assert.ErrorContains(t, err, "R2")
}
