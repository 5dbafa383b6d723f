package gateway

import (
	"errors"
	"regexp"
)

// Sentinel errors forming the closed gateway error taxonomy. Every failure
// surfaced to a client maps to exactly one of these kinds, and callers
// match them with errors.Is rather than by message.
var (
	// ErrNotReadOnly is returned when a query does not start with an
	// allowlisted read-only keyword.
	ErrNotReadOnly = errors.New("only read-only queries (SELECT, SHOW, DESCRIBE, EXPLAIN) are allowed")

	// ErrMultiStatement is returned when a query contains more than one
	// statement.
	ErrMultiStatement = errors.New("multiple statements are not allowed in a single query")

	// ErrQueryTooLong is returned when a query exceeds the configured
	// maximum length.
	ErrQueryTooLong = errors.New("query exceeds the maximum allowed length")

	// ErrTimeout is returned when query execution exceeds the configured
	// timeout.
	ErrTimeout = errors.New("query execution timed out")

	// ErrExecutionFailed is returned when the database reports an error
	// during execution. The underlying driver message is sanitized before
	// it reaches a client.
	ErrExecutionFailed = errors.New("query execution failed")

	// ErrResourceUnavailable is returned when the schema resource cannot
	// be produced, typically because the database is unreachable.
	ErrResourceUnavailable = errors.New("schema information is currently unavailable")
)

var (
	urlCredentials = regexp.MustCompile(`([a-zA-Z][a-zA-Z0-9+.-]*://)[^@/\s]+@`)
	dsnCredentials = regexp.MustCompile(`(?i)\b(password|passwd|pwd|sslpassword)=[^\s;&]+`)
)

// RedactSecrets removes credential material from a message before it is
// logged or surfaced to a client. Connection-string userinfo and key=value
// password fragments are replaced, everything else passes through.
func RedactSecrets(msg string) string {
	msg = urlCredentials.ReplaceAllString(msg, "${1}***@")
	msg = dsnCredentials.ReplaceAllString(msg, "${1}=***")
	return msg
}
