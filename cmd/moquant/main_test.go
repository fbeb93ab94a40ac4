package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scenarioYAML = `
evaluation_date: "2024-03-15"
curve:
  day_counter: ACT/365F
  discount_factors:
    "2024-05-01": 0.99
    "2025-03-17": 0.965
    "2029-03-15": 0.86
caplet_vol: 0.2
legs:
  - name: float
    type: ibor
    effective: "2024-06-03"
    termination: "2025-06-03"
    tenor: 3M
    nominal: 1000000
    cap: 0.05
`

func TestRun_Stats(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"stats", "--confidence", "0.95"}, strings.NewReader("values: [1, 2, 3, 4, 5]\n"), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var report map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &report))
	assert.InDelta(t, 3.0, report["mean"], 1e-12)
	assert.InDelta(t, 2.5, report["variance"], 1e-12)
	assert.InDelta(t, 0.95, report["confidence"], 1e-12)
}

func TestRun_PriceFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scenarioYAML), 0o600))

	var stdout, stderr bytes.Buffer
	code := run([]string{"price", "--input", path}, strings.NewReader(""), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var out struct {
		EvaluationDate string `json:"evaluation_date"`
		Legs           []struct {
			Name      string            `json:"name"`
			CashFlows []json.RawMessage `json:"cash_flows"`
		} `json:"legs"`
		TotalNPV string `json:"total_npv"`
		Error    string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Empty(t, out.Error)
	assert.Equal(t, "2024-03-15", out.EvaluationDate)
	require.Len(t, out.Legs, 1)
	assert.Equal(t, "float", out.Legs[0].Name)
	assert.Len(t, out.Legs[0].CashFlows, 4)
	assert.NotEmpty(t, out.TotalNPV)
}

func TestRun_PriceEvaluationDateFlag(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"price", "--evaluation-date", "2024-04-02"}, strings.NewReader(scenarioYAML), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), `"evaluation_date":"2024-04-02"`)
}

func TestRun_ReportsErrorsAsJSON(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"price"}, strings.NewReader("legs: []\n"), &stdout, &stderr)
	assert.Equal(t, 1, code)

	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	assert.Contains(t, out["error"], "no legs")

	stdout.Reset()
	code = run([]string{"stats"}, strings.NewReader("values: [1, 2]\nweights: [1, -1]\n"), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "negative weight")
}

func TestRun_UsageErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run([]string{"bogus"}, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"stats", "--config", filepath.Join(t.TempDir(), "missing.yaml")}, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, 2, run([]string{"stats", "--log-level", "loud"}, strings.NewReader(""), &stdout, &stderr))

	stdout.Reset()
	assert.Equal(t, 0, run([]string{"--help"}, strings.NewReader(""), &stdout, &stderr))
	assert.Contains(t, stdout.String(), "price")
	assert.Contains(t, stdout.String(), "stats")
}
