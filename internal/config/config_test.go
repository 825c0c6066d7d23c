package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
teams:
  - name: Arsenal
    id: 18bb7c10
seasons:
  - 2023-2024
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "https://fbref.com", cfg.BaseURL)
	require.Equal(t, "data", cfg.DataDir)
	require.Equal(t, "data/all_teams_training_data.csv", cfg.Output)

	min, max := cfg.DelayRange()
	require.Equal(t, 2*time.Second, min)
	require.Equal(t, 6*time.Second, max)
	require.Equal(t, 60*time.Second, cfg.RateLimitCooldown())
	require.Equal(t, 10*time.Second, cfg.TransportWait())
	require.Equal(t, 5, cfg.Fetch.MaxRateLimitRetries)
}

func TestLoadUpdateRunOverrides(t *testing.T) {
	path := writeConfig(t, `
teams:
  - name: Qarabag-FK
    id: 44b65410
  - name: Athletic-Club-Bilbao
    id: 2b390eca
seasons:
  - 2025-2026
delay:
  min_seconds: 3
  max_seconds: 7
output: data/qarabag_bilbao_2025_2026.csv
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Len(t, cfg.Teams, 2)
	min, max := cfg.DelayRange()
	require.Equal(t, 3*time.Second, min)
	require.Equal(t, 7*time.Second, max)
	require.Equal(t, "data/qarabag_bilbao_2025_2026.csv", cfg.Output)
}

func TestLoadRejectsEmptyTeams(t *testing.T) {
	path := writeConfig(t, `
seasons:
  - 2023-2024
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "no teams")
}

func TestLoadRejectsEmptySeasons(t *testing.T) {
	path := writeConfig(t, `
teams:
  - name: Arsenal
    id: 18bb7c10
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "no seasons")
}

func TestLoadRejectsInvalidDelayRange(t *testing.T) {
	path := writeConfig(t, `
teams:
  - name: Arsenal
    id: 18bb7c10
seasons:
  - 2023-2024
delay:
  min_seconds: 6
  max_seconds: 2
`)
	_, err := Load(path)
	require.ErrorContains(t, err, "invalid delay range")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
