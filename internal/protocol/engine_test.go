package protocol

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coreerrors "github.com/mydocs-mcp/mydocs-mcp/internal/errors"
	"github.com/mydocs-mcp/mydocs-mcp/internal/registry"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	require.NoError(t, reg.Register(registry.Descriptor{
		Name:        "echo",
		Description: "echoes its input",
		Schema: registry.Schema{
			Type:       "object",
			Properties: map[string]registry.Schema{"text": {Type: "string"}},
			Required:   []string{"text"},
		},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return map[string]any{"text": args["text"]}, nil
		},
	}))
	require.NoError(t, reg.Register(registry.Descriptor{
		Name:        "boom",
		Description: "always fails with a document-not-found error",
		Schema:      registry.Schema{Type: "object"},
		Handler: func(_ context.Context, _ map[string]any) (any, error) {
			return nil, coreerrors.DocumentNotFound("no such document", nil)
		},
	}))
	return reg
}

// runLines feeds newline-joined requests through an Engine and returns the
// decoded responses it wrote back, in completion order.
func runLines(t *testing.T, reg *registry.Registry, requests ...string) []Response {
	t.Helper()

	in := strings.NewReader(strings.Join(requests, "\n") + "\n")
	var out bytes.Buffer

	eng := NewEngine(reg, in, &out, nil, Options{ShutdownDeadline: time.Second})
	err := eng.Run(context.Background())
	require.NoError(t, err)

	var responses []Response
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var resp Response
		require.NoError(t, json.Unmarshal(line, &resp))
		responses = append(responses, resp)
	}
	return responses
}

func TestEngine_Initialize(t *testing.T) {
	reg := newTestRegistry(t)
	responses := runLines(t, reg, `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)

	require.Len(t, responses, 1)
	assert.Nil(t, responses[0].Error)
	require.NotNil(t, responses[0].Result)

	var result initializeResult
	remarshal(t, responses[0].Result, &result)
	assert.Equal(t, ProtocolVersion, result.ProtocolVersion)
	assert.Equal(t, "mydocsmcp", result.ServerInfo.Name)
	assert.False(t, result.Capabilities.Tools.ListChanged)
}

func TestEngine_Ping(t *testing.T) {
	reg := newTestRegistry(t)
	responses := runLines(t, reg, `{"jsonrpc":"2.0","id":"p1","method":"ping"}`)

	require.Len(t, responses, 1)
	assert.Nil(t, responses[0].Error)
	assert.Equal(t, `"p1"`, string(responses[0].ID))
}

func TestEngine_ToolsList_ReturnsRegisteredTools(t *testing.T) {
	reg := newTestRegistry(t)
	responses := runLines(t, reg, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)

	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Result)

	var result toolsListResult
	remarshal(t, responses[0].Result, &result)
	require.Len(t, result.Tools, 2)
}

func TestEngine_ToolsCall_Success(t *testing.T) {
	reg := newTestRegistry(t)
	responses := runLines(t, reg,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`)

	require.Len(t, responses, 1)
	require.Nil(t, responses[0].Error)

	var result toolCallResult
	remarshal(t, responses[0].Result, &result)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "text", result.Content[0].Type)
	assert.Contains(t, result.Content[0].Text, "hi")
}

func TestEngine_ToolsCall_AppErrorMapsToApplicationRange(t *testing.T) {
	reg := newTestRegistry(t)
	responses := runLines(t, reg,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"boom","arguments":{}}}`)

	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.True(t, responses[0].Error.Code <= -32000 && responses[0].Error.Code > -32100)

	var data errorData
	remarshal(t, responses[0].Error.Data, &data)
	assert.Equal(t, coreerrors.CodeDocumentNotFound, data.Code)
}

func TestEngine_ToolsCall_UnknownToolMapsToAppError(t *testing.T) {
	reg := newTestRegistry(t)
	responses := runLines(t, reg,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"nope","arguments":{}}}`)

	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.True(t, responses[0].Error.Code <= -32000 && responses[0].Error.Code > -32100)

	var data errorData
	remarshal(t, responses[0].Error.Data, &data)
	assert.Equal(t, coreerrors.CodeToolNotFound, data.Code)
}

func TestEngine_ToolsCall_SchemaViolationMapsToInvalidParams(t *testing.T) {
	reg := newTestRegistry(t)
	responses := runLines(t, reg,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{}}}`)

	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, CodeInvalidParams, responses[0].Error.Code)
}

func TestEngine_MalformedJSON_ReturnsParseError(t *testing.T) {
	reg := newTestRegistry(t)
	responses := runLines(t, reg, `{not valid json`)

	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, CodeParseError, responses[0].Error.Code)
}

func TestEngine_MissingMethod_ReturnsInvalidRequest(t *testing.T) {
	reg := newTestRegistry(t)
	responses := runLines(t, reg, `{"jsonrpc":"2.0","id":1}`)

	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, CodeInvalidRequest, responses[0].Error.Code)
}

func TestEngine_UnknownMethod_ReturnsMethodNotFound(t *testing.T) {
	reg := newTestRegistry(t)
	responses := runLines(t, reg, `{"jsonrpc":"2.0","id":1,"method":"frobnicate"}`)

	require.Len(t, responses, 1)
	require.NotNil(t, responses[0].Error)
	assert.Equal(t, CodeMethodNotFound, responses[0].Error.Code)
}

func TestEngine_Notification_ReceivesNoResponse(t *testing.T) {
	reg := newTestRegistry(t)
	responses := runLines(t, reg,
		`{"jsonrpc":"2.0","method":"ping"}`,
		`{"jsonrpc":"2.0","id":1,"method":"ping"}`)

	require.Len(t, responses, 1)
	assert.Equal(t, `1`, string(responses[0].ID))
}

func TestEngine_StdoutWriteFailure_IsFatal(t *testing.T) {
	reg := newTestRegistry(t)
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	eng := NewEngine(reg, in, failingWriter{}, nil, Options{ShutdownDeadline: time.Second})

	err := eng.Run(context.Background())
	assert.Error(t, err)
}

func TestEngine_OnShutdown_RunsAfterDraining(t *testing.T) {
	reg := newTestRegistry(t)
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}` + "\n")
	var out bytes.Buffer

	eng := NewEngine(reg, in, &out, nil, Options{ShutdownDeadline: time.Second})
	var shutdownCalled bool
	eng.OnShutdown(func(_ context.Context) error {
		shutdownCalled = true
		return nil
	})

	require.NoError(t, eng.Run(context.Background()))
	assert.True(t, shutdownCalled)
}

func TestEngine_ReadyBecomesTrueAfterInitialize(t *testing.T) {
	reg := newTestRegistry(t)
	in := strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize"}` + "\n")
	var out bytes.Buffer

	eng := NewEngine(reg, in, &out, nil, Options{ShutdownDeadline: time.Second})
	assert.False(t, eng.Ready())
	require.NoError(t, eng.Run(context.Background()))
	assert.True(t, eng.Ready())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errSimulatedWrite
}

var errSimulatedWrite = errors.New("simulated stdout write failure")

func remarshal(t *testing.T, v any, out any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}
