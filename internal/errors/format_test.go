package errors

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForCLI_BasicError(t *testing.T) {
	err := New(CodeFileNotFound, "file 'guide.md' not found", nil)

	result := FormatForCLI(err)

	assert.Contains(t, result, "file 'guide.md' not found")
	assert.Contains(t, result, "FILE_NOT_FOUND")
}

func TestFormatForCLI_ShortFormat(t *testing.T) {
	err := New(CodeFileNotFound, "file not found", nil)

	result := FormatForCLI(err)

	lines := strings.Split(strings.TrimSpace(result), "\n")
	assert.LessOrEqual(t, len(lines), 5, "should be concise")
}

func TestFormatForCLI_WrapsStandardError(t *testing.T) {
	result := FormatForCLI(errors.New("generic failure"))

	assert.Contains(t, result, "generic failure")
	assert.Contains(t, result, "INTERNAL_ERROR")
}

func TestFormatForCLI_NilError(t *testing.T) {
	assert.Empty(t, FormatForCLI(nil))
}

func TestToRPCData_CoreError(t *testing.T) {
	err := New(CodeDocumentNotFound, "not found", nil).WithDetail("path", "/docs/a.md")

	data := ToRPCData(err)

	assert.Equal(t, CodeDocumentNotFound, data.Code)
	assert.Equal(t, "/docs/a.md", data.Details["path"])
}

func TestToRPCData_StandardErrorMapsToInternal(t *testing.T) {
	data := ToRPCData(errors.New("boom"))

	assert.Equal(t, CodeInternal, data.Code)
}

func TestFormatJSON_BasicError(t *testing.T) {
	err := New(CodeFileNotFound, "file not found", nil).
		WithDetail("path", "/docs/a.txt")

	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, CodeFileNotFound, result["code"])
	assert.Equal(t, "file not found", result["message"])
	assert.Equal(t, string(CategoryNotFound), result["category"])
	assert.Equal(t, string(SeverityError), result["severity"])

	details, ok := result["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/docs/a.txt", details["path"])
}

func TestFormatJSON_StandardError(t *testing.T) {
	data, jsonErr := FormatJSON(errors.New("generic error"))
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, CodeInternal, result["code"])
	assert.Equal(t, "generic error", result["message"])
}

func TestFormatJSON_NilError(t *testing.T) {
	data, err := FormatJSON(nil)

	assert.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(string(data)))
}

func TestFormatJSON_WithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := New(CodeInternal, "operation failed", cause)

	data, jsonErr := FormatJSON(err)
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, "underlying error", result["cause"])
}

func TestFormatForLog_CoreError(t *testing.T) {
	err := New(CodeStorageError, "write failed", nil).WithDetail("op", "upsert")

	attrs := FormatForLog(err)

	assert.Equal(t, CodeStorageError, attrs["error_code"])
	assert.Equal(t, "upsert", attrs["detail_op"])
}

func TestFormatForLog_StandardError(t *testing.T) {
	attrs := FormatForLog(errors.New("plain"))

	assert.Equal(t, "plain", attrs["error"])
}

func TestFormatForLog_NilError(t *testing.T) {
	assert.Nil(t, FormatForLog(nil))
}
