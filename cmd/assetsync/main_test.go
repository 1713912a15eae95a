package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{stdout: &out}
	root := newRootCmd(a)
	root.SetArgs(append(args, "--log-level", "error"))
	root.SetIn(strings.NewReader(stdin))
	err := root.ExecuteContext(context.Background())
	require.NoError(t, a.close())
	return out.String(), err
}

func TestDemo(t *testing.T) {
	out, err := execute(t, "", "demo")
	require.NoError(t, err)

	var view struct {
		Results []struct {
			Asset   string `json:"asset"`
			Outcome string `json:"outcome"`
			Stored  struct {
				AssetName  string         `json:"assetName"`
				EventTime  string         `json:"eventTime"`
				Properties map[string]any `json:"properties"`
			} `json:"stored"`
		} `json:"results"`
		Summary map[string]int `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	require.Len(t, view.Results, 3)

	assert.Equal(t, "inserted", view.Results[0].Outcome)
	assert.Equal(t, "inserted", view.Results[1].Outcome)
	assert.Equal(t, "stale", view.Results[2].Outcome)

	b1 := view.Results[2].Stored
	assert.Equal(t, "TEST000002", b1.AssetName)
	assert.Equal(t, "2023-03-01T00:00:00Z", b1.EventTime)
	assert.Equal(t, "Butterfly", b1.Properties["udef_2"])
	assert.NotContains(t, b1.Properties, "udef_OldProp")
	assert.Equal(t, map[string]int{"inserted": 2, "updated": 0, "stale": 1, "lostRace": 0}, view.Summary)
}

func TestIngestGetList(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "observations.json")
	require.NoError(t, os.WriteFile(input, []byte(`[
  {"assetId":"00000000-0000-0000-0000-0000000000c1","assetName":"C1","accountId":5,"properties":{"fleet":"C","seats":4}},
  {"eventTime":"2023-04-01T00:00:00Z","asset":{"assetId":"00000000-0000-0000-0000-0000000000c1","assetName":"C1 renamed","accountId":5,"properties":{"fleet":"C"}}},
  {"assetId":"00000000-0000-0000-0000-0000000000c2","assetName":"C2","accountId":5,"properties":{}}
]`), 0o644))
	db := filepath.Join(dir, "data")

	out, err := execute(t, "", "ingest", input, "--db", db, "--event-time", "2023-03-01T00:00:00Z")
	require.NoError(t, err)
	assert.Contains(t, out, `"updated": 1`)

	out, err = execute(t, "", "get", "--db", db, "--account", "5", "--asset", "00000000-0000-0000-0000-0000000000c1", "-o", "yaml")
	require.NoError(t, err)
	var stored struct {
		Asset struct {
			AssetName  string         `yaml:"assetName"`
			Properties map[string]any `yaml:"properties"`
		} `yaml:"asset"`
		ETag string `yaml:"etag"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &stored))
	assert.Equal(t, "C1 renamed", stored.Asset.AssetName)
	assert.Equal(t, map[string]any{"fleet": "C"}, stored.Asset.Properties)
	assert.NotEmpty(t, stored.ETag)

	out, err = execute(t, "", "list", "--db", db, "--account", "5")
	require.NoError(t, err)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	assert.Len(t, listed, 2)

	out, err = execute(t, "", "list", "--db", db, "--account", "5", "--desc", "--page-size", "1", "--eventual",
		"--prefix", "00000000-0000-0000-0000-0000000000C", "--name", "C2")
	require.NoError(t, err)
	listed = nil
	require.NoError(t, json.Unmarshal([]byte(out), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, "00000000-0000-0000-0000-0000000000c2", listed[0]["assetId"])

	out, err = execute(t, "", "get", "--db", db, "--account", "5", "--asset", "00000000-0000-0000-0000-0000000000c2", "--eventual")
	require.NoError(t, err)
	assert.Contains(t, out, `"assetName": "C2"`)

	t.Run("stdin", func(t *testing.T) {
		out, err := execute(t, `{"assetId":"00000000-0000-0000-0000-0000000000c2","assetName":"old","accountId":5}`,
			"ingest", "-", "--db", db, "--event-time", "2020-01-01T00:00:00Z")
		require.NoError(t, err)
		assert.Contains(t, out, `"stale": 1`)
	})
}

func TestGet_NotFound(t *testing.T) {
	_, err := execute(t, "", "get", "--memory", "--account", "1", "--asset", "00000000-0000-0000-0000-000000000001")
	require.ErrorIs(t, err, errNotFound)
}

func TestInvalidOutput(t *testing.T) {
	_, err := execute(t, "", "demo", "-o", "xml")
	require.Error(t, err)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out syncBuffer
	a := &app{stdout: &out}
	root := newRootCmd(a)
	root.SetArgs([]string{"watch", dir, "--memory", "--debounce", "50ms", "--log-level", "error"})

	done := make(chan error, 1)
	go func() { done <- root.ExecuteContext(ctx) }()

	time.Sleep(200 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in.json"), []byte(
		`{"eventTime":"2023-03-01T00:00:00Z","asset":{"assetId":"00000000-0000-0000-0000-0000000000d1","assetName":"D1","accountId":7}}`,
	), 0o644))

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"inserted": 1`)
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
	require.NoError(t, a.close())
}
