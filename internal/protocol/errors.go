package protocol

import (
	coreerrors "github.com/mydocs-mcp/mydocs-mcp/internal/errors"
	"github.com/mydocs-mcp/mydocs-mcp/internal/registry"
)

// appErrorCodes assigns each stable application code a position in the
// reserved -32000..-32099 range (§4.6). Two stable codes that share the
// same JSON-RPC range still disambiguate through data.code, so the exact
// int chosen here is only ever compared for equality by tests, never
// parsed for meaning.
var appErrorCodes = map[string]int{
	coreerrors.CodeFileNotFound:     appErrorRangeStart - 1,
	coreerrors.CodeDocumentNotFound: appErrorRangeStart - 2,
	coreerrors.CodeUnsupportedType:  appErrorRangeStart - 3,
	coreerrors.CodeParseError:       appErrorRangeStart - 4,
	coreerrors.CodeStorageError:     appErrorRangeStart - 5,
	coreerrors.CodeDatabaseBusy:     appErrorRangeStart - 6,
	coreerrors.CodeInvalidQuery:     appErrorRangeStart - 7,
	coreerrors.CodeFileTooLarge:     appErrorRangeStart - 8,
	coreerrors.CodeToolTimeout:      appErrorRangeStart - 9,
	coreerrors.CodeCorruptStorage:   appErrorRangeStart - 10,
	coreerrors.CodeToolNotFound:     appErrorRangeStart - 11,
}

// toolErrorToRPC maps a failed ToolResult's error onto a JSON-RPC error
// object. CodeInvalidParams reuses the standard JSON-RPC "invalid
// params" code, since schema validation is precisely that. Every stable
// code listed in appErrorCodes, including an unregistered tool name,
// lands in the application range; any other code (INTERNAL_ERROR among
// them) maps to -32603. Both carry data.code so a host agent can still
// pattern-match on the exact condition (§7); -32601 "method not found"
// is reserved for dispatch's default case, an unrecognized top-level
// RPC method.
func toolErrorToRPC(te *registry.ToolError) *Error {
	if te == nil {
		return nil
	}

	if te.Code == coreerrors.CodeInvalidParams {
		return &Error{Code: CodeInvalidParams, Message: te.Message}
	}

	code, ok := appErrorCodes[te.Code]
	if !ok {
		code = CodeInternalError
	}
	return &Error{
		Code:    code,
		Message: te.Message,
		Data:    errorData{Code: te.Code},
	}
}
