package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/famolydrive/drivequiz/internal/drivequiz"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GOOGLE_MAPS_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := cmd.Execute()
	return stdout.String(), err
}

func TestSearchWithSampleRoute(t *testing.T) {
	kmlPath := filepath.Join(t.TempDir(), "route.kml")

	out, err := execute(t, "search", "--origin", "東京駅", "--destination", "鎌倉駅", "--kml", kmlPath)
	require.NoError(t, err)

	assert.Contains(t, out, "東京駅 → 鎌倉駅")
	assert.Contains(t, out, "鎌倉大仏")
	assert.Contains(t, out, "鶴岡八幡宮")

	data, err := os.ReadFile(kmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<kml")
	assert.Contains(t, string(data), "鎌倉大仏")
}

func TestSearchRequiresFlags(t *testing.T) {
	_, err := execute(t, "search", "--origin", "東京駅")
	assert.Error(t, err)
}

func TestQuizCommand(t *testing.T) {
	out, err := execute(t, "quiz", "--name", "鶴岡八幡宮", "--types", "shrine", "--difficulty", "high")
	require.NoError(t, err)

	var q drivequiz.Quiz
	require.NoError(t, json.Unmarshal([]byte(out), &q))
	assert.Equal(t, "鶴岡八幡宮", q.SpotName)
	assert.Len(t, q.Options, drivequiz.OptionCount)
	assert.True(t, q.Valid())
	assert.Equal(t, drivequiz.DifficultyHigh, q.Difficulty)
	assert.Equal(t, 20, q.Points)
	assert.Equal(t, drivequiz.SourceTemplate, q.Source)
}

func TestQuizGenerateNeedsKey(t *testing.T) {
	_, err := execute(t, "quiz", "--name", "鎌倉大仏", "--generate")
	assert.Error(t, err)
}
