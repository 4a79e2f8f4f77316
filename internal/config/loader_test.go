package config

import (
	"os"
	"path/filepath"
	"testing"
	"weather_nlu/pkg"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, pkg.DefaultIntents, config.Intents)
	assert.Equal(t, pkg.DefaultCity, config.Location.DefaultCity)
	assert.False(t, config.Fallback.UseIP)
}

func TestLoadConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
intents: [today, " upcoming_week ", ""]
location:
  allowed_cities: [Paris, " London "]
  strict_mode: true
  include_metadata: true
fallback:
  use_ip: true
  location: " Bangkok "
registry_file: data/registry.yaml
`), 0o644))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"today", "upcoming_week"}, config.Intents)
	assert.Equal(t, []string{"Paris", "London"}, config.Location.AllowedCities)
	assert.True(t, config.Location.StrictMode)
	assert.True(t, config.Location.IncludeMetadata)
	assert.Equal(t, pkg.DefaultCity, config.Location.DefaultCity)
	assert.True(t, config.Fallback.UseIP)
	assert.Equal(t, "Bangkok", config.Fallback.Location)
	assert.Equal(t, "data/registry.yaml", config.RegistryFile)
}

func TestParseConfig_Errors(t *testing.T) {
	_, err := ParseConfig([]byte("intents: [today, undefined]"))
	assert.ErrorContains(t, err, "reserved")

	_, err = ParseConfig([]byte("intents: {today"))
	assert.Error(t, err)
}

func TestParseConfig_EmptyIntentsFallBack(t *testing.T) {
	config, err := ParseConfig([]byte("location:\n  default_city: Nowhere\n"))
	require.NoError(t, err)
	assert.Equal(t, pkg.DefaultIntents, config.Intents)
	assert.Equal(t, "Nowhere", config.Location.DefaultCity)
	assert.False(t, config.Location.IncludeMetadata)
}
