package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "ETH", cfg.DataSource.Symbol)
	assert.Equal(t, "USD", cfg.DataSource.Market)
	assert.Equal(t, 20, cfg.Data.WindowSize)
	assert.Equal(t, 0.80, cfg.Data.TrainSplit)
	assert.Equal(t, 1, cfg.Model.InputSize)
	assert.Equal(t, 32, cfg.Model.HiddenSize)
	assert.Equal(t, 2, cfg.Model.NumLayers)
	assert.Equal(t, 0.2, cfg.Model.Dropout)
	assert.Equal(t, 64, cfg.Training.BatchSize)
	assert.Equal(t, 100, cfg.Training.Epochs)
	assert.Equal(t, 0.01, cfg.Training.LearningRate)
	assert.Equal(t, 40, cfg.Training.SchedulerStepSize)
	assert.Equal(t, 0.1, cfg.Training.SchedulerGamma)
	assert.Equal(t, "cpu", cfg.Training.Device)
	assert.Equal(t, 10, cfg.Plot.Range)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pricecast.yaml")
	content := `
datasource:
  symbol: BTC
  market: EUR
data:
  window_size: 30
training:
  epochs: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "BTC", cfg.DataSource.Symbol)
	assert.Equal(t, "EUR", cfg.DataSource.Market)
	assert.Equal(t, 30, cfg.Data.WindowSize)
	assert.Equal(t, 5, cfg.Training.Epochs)

	// Unset keys keep their declared defaults.
	assert.Equal(t, 0.80, cfg.Data.TrainSplit)
	assert.Equal(t, 64, cfg.Training.BatchSize)
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty symbol", func(c *Config) { c.DataSource.Symbol = "" }},
		{"empty market", func(c *Config) { c.DataSource.Market = "" }},
		{"zero window", func(c *Config) { c.Data.WindowSize = 0 }},
		{"split of one", func(c *Config) { c.Data.TrainSplit = 1 }},
		{"split of zero", func(c *Config) { c.Data.TrainSplit = 0 }},
		{"zero epochs", func(c *Config) { c.Training.Epochs = 0 }},
		{"zero batch size", func(c *Config) { c.Training.BatchSize = 0 }},
		{"zero learning rate", func(c *Config) { c.Training.LearningRate = 0 }},
		{"plot range of one", func(c *Config) { c.Plot.Range = 1 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := Load("")
			require.NoError(t, err)
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
