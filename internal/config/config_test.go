package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("WORKERS", "")
	t.Setenv("DERIVATION_DEBOUNCE", "")

	LoadConfig()

	assert.Equal(t, 4, AppConfig.Workers)
	assert.Equal(t, 100*time.Millisecond, AppConfig.DerivationDebounce)
	assert.Len(t, AppConfig.JWTSecret, 64)
}

func TestLoadConfig_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("WORKERS", "8")
	t.Setenv("DERIVATION_DEBOUNCE", "250ms")
	t.Setenv("PROJECT_ID", "p1")

	LoadConfig()

	assert.Equal(t, "secret", AppConfig.JWTSecret)
	assert.Equal(t, 8, AppConfig.Workers)
	assert.Equal(t, 250*time.Millisecond, AppConfig.DerivationDebounce)
	assert.Equal(t, "p1", AppConfig.ProjectID)
}

func TestGetInt_RejectsInvalid(t *testing.T) {
	t.Setenv("WORKERS", "zero")
	assert.Equal(t, 3, getInt("WORKERS", 3))
	t.Setenv("WORKERS", "-1")
	assert.Equal(t, 3, getInt("WORKERS", 3))
}
