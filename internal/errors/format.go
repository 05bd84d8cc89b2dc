package errors

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatForCLI formats an error for CLI output (cmd/mydocsmcp's debugging
// subcommands; the server itself never writes errors to stdout).
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	ce, ok := err.(*CoreError)
	if !ok {
		ce = Wrap(CodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", ce.Message))
	sb.WriteString(fmt.Sprintf("  Code: %s\n", ce.Code))
	return sb.String()
}

// RPCData is the shape serialized under a JSON-RPC error's "data" field,
// per spec §6: a stable code string plus optional structured details.
type RPCData struct {
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// ToRPCData extracts the data.code / data.details payload the protocol
// engine attaches to application-range JSON-RPC errors. Non-CoreErrors map
// to CodeInternal.
func ToRPCData(err error) RPCData {
	ce, ok := err.(*CoreError)
	if !ok {
		return RPCData{Code: CodeInternal}
	}
	return RPCData{Code: ce.Code, Details: ce.Details}
}

// jsonError is the JSON representation of an error for structured logging.
type jsonError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Category  string            `json:"category"`
	Severity  string            `json:"severity"`
	Details   map[string]string `json:"details,omitempty"`
	Cause     string            `json:"cause,omitempty"`
	Retryable bool              `json:"retryable"`
}

// FormatJSON returns a JSON representation of the error, suitable for
// machine consumption.
func FormatJSON(err error) ([]byte, error) {
	if err == nil {
		return json.Marshal(nil)
	}

	ce, ok := err.(*CoreError)
	if !ok {
		ce = Wrap(CodeInternal, err)
	}

	je := jsonError{
		Code:      ce.Code,
		Message:   ce.Message,
		Category:  string(ce.Category),
		Severity:  string(ce.Severity),
		Details:   ce.Details,
		Retryable: ce.Retryable,
	}
	if ce.Cause != nil {
		je.Cause = ce.Cause.Error()
	}
	return json.Marshal(je)
}

// FormatForLog formats an error as key-value pairs suitable for slog attributes.
func FormatForLog(err error) map[string]any {
	if err == nil {
		return nil
	}

	ce, ok := err.(*CoreError)
	if !ok {
		return map[string]any{"error": err.Error()}
	}

	result := map[string]any{
		"error_code": ce.Code,
		"message":    ce.Message,
		"category":   string(ce.Category),
		"severity":   string(ce.Severity),
		"retryable":  ce.Retryable,
	}
	if ce.Cause != nil {
		result["cause"] = ce.Cause.Error()
	}
	for k, v := range ce.Details {
		result["detail_"+k] = v
	}
	return result
}
