package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "app:\n  name: fxhedge-test\n"))
	require.NoError(t, err)

	assert.Equal(t, "fxhedge-test", cfg.App.Name)
	assert.Equal(t, SourceSimulated, cfg.Market.Source)
	assert.Equal(t, 10*time.Second, cfg.Market.RequestTimeout)
	assert.Equal(t, "6M", cfg.Analysis.Tenor)
	assert.InDelta(t, 0.75, cfg.Analysis.HedgeRatio, 1e-9)

	table := cfg.RateTable()
	rate, err := table.Rate("CAD")
	require.NoError(t, err)
	assert.Equal(t, "0.0375", rate.String())

	pairs, err := cfg.MarketPairs()
	require.NoError(t, err)
	require.Len(t, pairs, 6)
	assert.Equal(t, "EUR/USD", pairs[0].String())
}

func TestLoadOverrides(t *testing.T) {
	body := `
rates:
  usd: 0.05
  sek: 0.03
market:
  source: chart
  pairs: [usd/sek]
analysis:
  tenor: 1y
scheduler:
  interval: 15m
`
	cfg, err := Load(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, SourceChart, cfg.Market.Source)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.Interval)
	pairs, err := cfg.MarketPairs()
	require.NoError(t, err)
	assert.Equal(t, "USD/SEK", pairs[0].String())
	assert.True(t, cfg.RateTable().Has("SEK"))
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"unknown source":     "market:\n  source: carrier-pigeon\n",
		"bad tenor":          "analysis:\n  tenor: 5Y\n",
		"bad pair":           "market:\n  pairs: [EURUSD]\n",
		"chainlink no rpc":   "market:\n  source: chainlink\n",
		"telegram no token":  "alerting:\n  telegram:\n    enabled: true\n",
		"negative threshold": "alerting:\n  threshold_pct: -1\n",
		"zero export points": "export:\n  max_data_points: 0\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestResolveOverrides(t *testing.T) {
	cfg := &Config{Export: ExportConfig{OutputDir: "outputs", MaxDataPoints: 100}}
	assert.Equal(t, 100, cfg.ResolveMaxPoints(0))
	assert.Equal(t, 5, cfg.ResolveMaxPoints(5))
	assert.Equal(t, "outputs", cfg.ResolveOutputDir(""))
	assert.Equal(t, "/tmp/x", cfg.ResolveOutputDir("/tmp/x"))
}
