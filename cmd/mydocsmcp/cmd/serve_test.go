package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_HasTransportFlag(t *testing.T) {
	cmd := NewRootCmd()
	serveCmd, _, err := cmd.Find([]string{"serve"})
	require.NoError(t, err)

	flag := serveCmd.Flags().Lookup("transport")
	require.NotNil(t, flag)
	assert.Equal(t, "stdio", flag.DefValue)
}

func TestServeCmd_RejectsUnsupportedTransport(t *testing.T) {
	chdirToTempProject(t)

	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"serve", "--transport", "http"})

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transport")
}

func TestServeCmd_HelpMentionsStdio(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"serve", "--help"})

	err := cmd.Execute()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "stdin")
}

// serve itself reads os.Stdin directly (so an MCP host can pipe into the
// real process), which a cobra-level test can't substitute; the actual
// request/response loop is covered by internal/server's tests instead.
func TestServeCmd_TransportFlagIsUnderstoodByLongHelp(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"serve", "--help"})

	require.NoError(t, cmd.Execute())
	output := buf.String()
	assert.True(t, strings.Contains(output, "--transport"))
}
