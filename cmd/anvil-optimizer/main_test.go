package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"anvil-optimizer/internal/anvil"
	"anvil-optimizer/internal/batch"
)

func testOptions(t *testing.T, args ...string) options {
	t.Helper()
	return options{
		configPath: filepath.Join(t.TempDir(), "absent.yaml"),
		args:       args,
	}
}

func TestRunSingleText(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), testOptions(t, "sword", "sharpness:5", "unbreaking"), &out))
	assert.Contains(t, out.String(), "Sword + Sharpness V")
	assert.Contains(t, out.String(), "Total: 9 levels, 95 xp, final work 2")
}

func TestRunSingleJSON(t *testing.T) {
	opts := testOptions(t, "sword", "sharpness:5", "unbreaking:3")
	opts.jsonOut = true
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))

	var sum anvil.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &sum))
	assert.True(t, sum.Feasible)
	assert.Equal(t, 95, sum.TotalExperience)
	assert.Len(t, sum.Steps, 2)
}

func TestRunSingleRejectsIncompatible(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), testOptions(t, "sword", "sharpness", "smite"), &out)
	assert.ErrorIs(t, err, anvil.ErrIncompatible)

	opts := testOptions(t, "sword", "sharpness", "smite")
	opts.allowIncompatible = true
	require.NoError(t, run(context.Background(), opts, &out))
}

func TestRunBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id": "a", "item": "sword", "enchantments": ["sharpness:5", "unbreaking:3"]},
		{"id": "b", "item": "spoon", "enchantments": ["mending"]}
	]`), 0o644))

	opts := testOptions(t)
	opts.batchPath = path
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), opts, &out))
	assert.Contains(t, out.String(), "TOTAL")
	assert.Contains(t, out.String(), "unknown item")

	opts.jsonOut = true
	out.Reset()
	require.NoError(t, run(context.Background(), opts, &out))
	var results []batch.JobResult
	require.NoError(t, json.Unmarshal(out.Bytes(), &results))
	require.Len(t, results, 2)
	assert.Equal(t, 9, results[0].Result.TotalLevels)
	assert.NotEmpty(t, results[1].Error)
}

func TestRunBadObjective(t *testing.T) {
	opts := testOptions(t, "sword", "sharpness")
	opts.optimize = "levels"
	assert.Error(t, run(context.Background(), opts, &bytes.Buffer{}))
}
