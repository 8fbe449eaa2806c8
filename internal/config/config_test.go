package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad_CORSOriginsDefault(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "")
	cfg := Load()
	require.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
}

func TestLoad_CORSOriginsSplitAndTrimmed(t *testing.T) {
	t.Setenv("CORS_ORIGINS", "https://app.example.com, https://admin.example.com ,")
	cfg := Load()
	require.Equal(t,
		[]string{"https://app.example.com", "https://admin.example.com"},
		cfg.CORSOrigins,
	)
}
