package main

import (
	"errors"
	"fmt"

	"github.com/sourcegraph/jsonrpc2"
)

// Application error codes, above the JSON-RPC reserved range.
const (
	codeConnectionFailed int64 = -32001
	codeNotInitialized   int64 = -32002
	codeAcquireFailed    int64 = -32003
	codeExecutionFailed  int64 = -32004
	codeTableNotFound    int64 = -32005
)

var errTableNotFound = errors.New("table not found")

func newError(code int64, format string, args ...any) *jsonrpc2.Error {
	return &jsonrpc2.Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func parseError(err error) *jsonrpc2.Error {
	e := newError(jsonrpc2.CodeParseError, "Parse error")
	e.SetError(err.Error())
	return e
}

func methodNotFound(method string) *jsonrpc2.Error {
	return newError(jsonrpc2.CodeMethodNotFound, "Method not found: %s", method)
}

func toolNotFound(name string) *jsonrpc2.Error {
	return newError(jsonrpc2.CodeMethodNotFound, "Unknown tool: %s", name)
}

func invalidParams(format string, args ...any) *jsonrpc2.Error {
	return newError(jsonrpc2.CodeInvalidParams, format, args...)
}

func invalidTableName() *jsonrpc2.Error {
	return invalidParams("Invalid table name")
}

func internalError(err error) *jsonrpc2.Error {
	return newError(jsonrpc2.CodeInternalError, "Internal error: %v", err)
}

func notInitialized() *jsonrpc2.Error {
	return newError(codeNotInitialized, "Server not initialized")
}

func connectionFailed(err error) *jsonrpc2.Error {
	return newError(codeConnectionFailed, "Database connection failed: %v", err)
}

func acquireFailed(err error) *jsonrpc2.Error {
	return newError(codeAcquireFailed, "Database connection error: %v", err)
}

// executionFailed reports a driver-level failure; op is the capitalized
// operation name ("Insert", "Query execution", ...).
func executionFailed(op string, err error) *jsonrpc2.Error {
	return newError(codeExecutionFailed, "%s failed: %v", op, err)
}

func tableNotFound(table string) *jsonrpc2.Error {
	return newError(codeTableNotFound, "Table '%s' not found", table)
}

// asRPCError extracts the protocol error carried by err. Anything that is not
// already a protocol error is reported as an internal error.
func asRPCError(err error) *jsonrpc2.Error {
	var rpcErr *jsonrpc2.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return internalError(err)
}
