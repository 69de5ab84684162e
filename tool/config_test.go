package tool

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyoez/localsend-uploader/types"
)

func TestLoadConfigCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	again, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadConfigFillsMissingValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\nconcurrency: 8\nbaseDelay: 2s\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 2*time.Second, cfg.BaseDelay)
	assert.Equal(t, DefaultConfig().MaxAttempts, cfg.MaxAttempts)
	assert.Equal(t, "file", cfg.FileField)
	assert.Equal(t, cfg, *GetCurrentConfig())
}

func TestLoadConfigRejectsDirectory(t *testing.T) {
	_, err := LoadConfig(t.TempDir())
	assert.Error(t, err)
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NotifySocket = "/tmp/notify.sock"
	ApplyFlagOverrides(&cfg, types.Config{UsePort: 1234, UseConcurrency: 9, SkipNotify: true})

	assert.Equal(t, 1234, cfg.Port)
	assert.Equal(t, 9, cfg.Concurrency)
	assert.Equal(t, DefaultConfig().MaxAttempts, cfg.MaxAttempts)
	assert.Empty(t, cfg.NotifySocket)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "batch.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
records:
  - filename: a.txt
    url: https://files.example.com/a
  - filename: b.txt
    url: file:///tmp/b.txt
config:
  action: https://srv/upload
  extraData:
    tag: 1
    pinned: true
concurrency: 2
`), 0o644))
	jsonPath := filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{
  "records": [{"filename": "a.txt", "url": "https://files.example.com/a"}, {"filename": "b.txt", "url": "file:///tmp/b.txt"}],
  "config": {"action": "https://srv/upload", "extraData": {"tag": 1, "pinned": true}},
  "concurrency": 2
}`), 0o644))

	for _, path := range []string{yamlPath, jsonPath} {
		req, err := LoadManifest(path)
		require.NoError(t, err, path)
		require.Len(t, req.Records, 2)
		assert.Equal(t, "b.txt", req.Records[1].Filename)
		assert.Equal(t, "https://srv/upload", req.Config.Action)
		assert.Equal(t, 2, req.Concurrency)

		fields := req.Config.ExtraData.Fields()
		require.Len(t, fields, 2, path)
		assert.Equal(t, "tag", fields[0].Name)
		assert.Equal(t, "pinned", fields[1].Name)
	}

	_, err := LoadManifest(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParseActionURL(t *testing.T) {
	_, err := ParseActionURL("https://srv.example.com/upload")
	assert.NoError(t, err)

	for _, bad := range []string{"ftp://srv/upload", "/relative/path", "https://", "::bad"} {
		_, err := ParseActionURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestReadAllWithLimit(t *testing.T) {
	data, err := ReadAllWithLimit(strings.NewReader("12345"), 5)
	require.NoError(t, err)
	assert.Equal(t, "12345", string(data))

	_, err = ReadAllWithLimit(strings.NewReader("123456"), 5)
	assert.True(t, IsTooLarge(err))

	data, err = ReadAllWithLimit(strings.NewReader("123456"), 0)
	require.NoError(t, err)
	assert.Len(t, data, 6)
}

func TestLoadConfigKeepsZeroTimeouts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetchTimeout: 0s\nsubmitTimeout: 0s\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Zero(t, cfg.FetchTimeout)
	assert.Zero(t, cfg.SubmitTimeout)

	missing := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(missing, []byte("port: 9000\n"), 0o644))
	cfg, err = LoadConfig(missing)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().FetchTimeout, cfg.FetchTimeout)
	assert.Equal(t, DefaultConfig().SubmitTimeout, cfg.SubmitTimeout)
}
