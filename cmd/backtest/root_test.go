package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rmultiple-lab/internal/domain"
	"rmultiple-lab/internal/reporting"
)

const sweepYAML = `name: sweep
simulations:
  - strategy_key: drawdown_linear
    params:
      base_risk: 1.5
    num_simulations: 3
    num_trades: 50
    initial_capital: 10000
  - strategy_key: win_streak
    num_simulations: 2
    num_trades: 40
    initial_capital: 5000
    outcomes:
      -1: 0.6
      2: 0.4
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadSpecFile(t *testing.T) {
	name, specs, err := loadSpecFile(writeFile(t, "sweep.yaml", sweepYAML))
	require.NoError(t, err)

	assert.Equal(t, "sweep", name)
	require.Len(t, specs, 2)
	assert.Equal(t, 1.5, specs[0].Params["base_risk"])
	assert.Equal(t, "10000", specs[0].InitialCapital.String())
	assert.Equal(t, 0.6, specs[1].Outcomes[-1])
}

func TestLoadSpecFile_JSON(t *testing.T) {
	path := writeFile(t, "sweep.json", `{"simulations":[{"strategy_key":"risk_reset","num_simulations":1,"num_trades":10}]}`)
	_, specs, err := loadSpecFile(path)
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.True(t, specs[0].InitialCapital.IsZero(), "capital left to runner default")
}

func TestLoadSpecFile_Empty(t *testing.T) {
	_, _, err := loadSpecFile(writeFile(t, "empty.yaml", "name: nothing\n"))
	assert.Error(t, err)
}

func TestBatchFromFlags(t *testing.T) {
	cmd, f := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--strategy", "safety_mode", "--param", "base_risk=2", "--simulations", "5"}))

	_, specs, err := f.batch()
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, "safety_mode", specs[0].StrategyKey)
	assert.Equal(t, 2.0, specs[0].Params["base_risk"])
	assert.Equal(t, 5, specs[0].NumSimulations)
	assert.Equal(t, 1000, specs[0].NumTrades)

	f.params = map[string]string{"base_risk": "two"}
	_, _, err = f.batch()
	assert.ErrorIs(t, err, domain.ErrInvalidParameter)
}

func TestRun_Markdown(t *testing.T) {
	cmd, f := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--specs", writeFile(t, "sweep.yaml", sweepYAML), "--workers", "2"}))

	var out bytes.Buffer
	require.NoError(t, f.run(context.Background(), &out))
	assert.True(t, strings.HasPrefix(out.String(), "# Simulation Report: sweep"))
}

func TestRun_JSONToFile(t *testing.T) {
	output := filepath.Join(t.TempDir(), "report.json")
	cmd, f := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--strategy", "drawdown_linear", "--simulations", "4", "--trades", "30",
		"--format", "json", "--output", output, "--seed", "9",
	}))

	require.NoError(t, f.run(context.Background(), &bytes.Buffer{}))

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	var r reporting.Report
	require.NoError(t, json.Unmarshal(data, &r))
	assert.Equal(t, 4, r.Batch.TotalSimulations)
	require.Len(t, r.Strategies, 1)
	assert.Equal(t, 1, r.Strategies[0].Rank)
}

func TestRun_RejectsUnknownFormat(t *testing.T) {
	cmd, f := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--strategy", "drawdown_linear", "--format", "pdf"}))
	assert.Error(t, f.run(context.Background(), &bytes.Buffer{}))
}
