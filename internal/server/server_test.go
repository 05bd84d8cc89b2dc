package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mydocs-mcp/mydocs-mcp/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.NewConfig()
	cfg.DocumentRoot = dir
	cfg.DatabasePath = filepath.Join(dir, "store.db")
	cfg.WatchEnabled = false
	cfg.ShutdownDeadlineSeconds = 1
	return cfg
}

func TestNew_RegistersBuiltinTools(t *testing.T) {
	srv, err := New(testConfig(t), nil)
	require.NoError(t, err)
	defer srv.store.Close()

	names := make([]string, 0)
	for _, spec := range srv.Registry().List() {
		names = append(names, spec.Name)
	}
	assert.Contains(t, names, "indexDocument")
	assert.Contains(t, names, "searchDocuments")
	assert.Contains(t, names, "getDocument")
}

func TestServer_Serve_RespondsToInitialize(t *testing.T) {
	srv, err := New(testConfig(t), nil)
	require.NoError(t, err)

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n")
	var out bytes.Buffer

	err = srv.Serve(context.Background(), in, &out)
	require.NoError(t, err)

	scanner := bufio.NewScanner(&out)
	require.True(t, scanner.Scan())

	var resp struct {
		Result struct {
			ServerInfo struct {
				Name string `json:"name"`
			} `json:"serverInfo"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
	assert.Equal(t, "mydocsmcp", resp.Result.ServerInfo.Name)
}

func TestServer_Serve_ClosesStoreOnShutdown(t *testing.T) {
	srv, err := New(testConfig(t), nil)
	require.NoError(t, err)

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var out bytes.Buffer

	require.NoError(t, srv.Serve(context.Background(), in, &out))

	_, statErr := srv.store.Stats(context.Background())
	assert.Error(t, statErr, "store should be closed after Serve returns")
}

func TestServer_Serve_StartsAndStopsWatcher(t *testing.T) {
	cfg := testConfig(t)
	cfg.WatchEnabled = true

	srv, err := New(cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, srv.watcher)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var out bytes.Buffer

	require.NoError(t, srv.Serve(ctx, in, &out))
}
