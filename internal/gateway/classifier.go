// Package gateway implements the read-only query gateway: classification of
// incoming SQL before execution and the closed error taxonomy shared by the
// tool handlers.
package gateway

import "strings"

// Verdict is the outcome of classifying a query. The set is closed: every
// query maps to exactly one verdict before any database work happens.
type Verdict int

const (
	VerdictAllowed Verdict = iota
	VerdictRejectedNotReadOnly
	VerdictRejectedMultiStatement
	VerdictRejectedTooLong
)

// String returns a stable snake_case name, used in logs and analytics.
func (v Verdict) String() string {
	switch v {
	case VerdictAllowed:
		return "allowed"
	case VerdictRejectedNotReadOnly:
		return "rejected_not_read_only"
	case VerdictRejectedMultiStatement:
		return "rejected_multi_statement"
	case VerdictRejectedTooLong:
		return "rejected_too_long"
	default:
		return "unknown"
	}
}

// Err maps a rejection verdict to its sentinel error. It returns nil for
// VerdictAllowed.
func (v Verdict) Err() error {
	switch v {
	case VerdictRejectedNotReadOnly:
		return ErrNotReadOnly
	case VerdictRejectedMultiStatement:
		return ErrMultiStatement
	case VerdictRejectedTooLong:
		return ErrQueryTooLong
	default:
		return nil
	}
}

// readOnlyKeywords is the closed allowlist of statement keywords the
// gateway will execute. Anything else is rejected, including statements
// that merely happen to be safe.
var readOnlyKeywords = map[string]bool{
	"SELECT":   true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
}

// DialectFeatures describes the quoting and comment syntax of a SQL
// dialect. The classifier strips literals and comments according to these
// flags, so quoted text never influences keyword or statement detection.
type DialectFeatures struct {
	// HashComments enables MySQL-style # line comments.
	HashComments bool
	// BacktickQuotes enables `identifier` quoting.
	BacktickQuotes bool
	// DollarQuotes enables PostgreSQL $tag$...$tag$ string literals.
	DollarQuotes bool
	// BracketQuotes enables SQL Server style [identifier] quoting,
	// which SQLite also accepts.
	BracketQuotes bool
	// BackslashEscapes treats a backslash inside ' and " literals as an
	// escape character rather than an ordinary byte.
	BackslashEscapes bool
}

// Classification is the result of inspecting a query.
type Classification struct {
	Verdict Verdict
	// Keyword is the uppercased leading keyword of the statement, empty
	// when none could be extracted.
	Keyword string
}

// Classifier decides whether a query may be sent to the database. It is
// stateless after construction and safe for concurrent use.
type Classifier struct {
	maxQueryBytes int
	readOnly      bool
	features      DialectFeatures
}

// NewClassifier builds a classifier for one dialect. maxQueryBytes bounds
// the raw query length in bytes. When readOnly is false the keyword
// allowlist is not enforced, but length and multi-statement checks still
// apply.
func NewClassifier(maxQueryBytes int, readOnly bool, features DialectFeatures) *Classifier {
	return &Classifier{
		maxQueryBytes: maxQueryBytes,
		readOnly:      readOnly,
		features:      features,
	}
}

// Classify inspects a query without touching the database. Checks run in a
// fixed order: length first, then the keyword allowlist, then statement
// count, so an over-long destructive query reports VerdictRejectedTooLong.
func (c *Classifier) Classify(query string) Classification {
	if len(query) > c.maxQueryBytes {
		return Classification{Verdict: VerdictRejectedTooLong}
	}

	cleaned := strings.TrimSpace(c.features.StripLiteralsAndComments(query))
	if cleaned == "" {
		// Empty or comment-only input carries no executable read
		// statement.
		return Classification{Verdict: VerdictRejectedNotReadOnly}
	}

	keyword := leadingKeyword(cleaned)
	if c.readOnly && !readOnlyKeywords[keyword] {
		return Classification{Verdict: VerdictRejectedNotReadOnly, Keyword: keyword}
	}
	if hasMultipleStatements(cleaned) {
		return Classification{Verdict: VerdictRejectedMultiStatement, Keyword: keyword}
	}
	return Classification{Verdict: VerdictAllowed, Keyword: keyword}
}

// leadingKeyword returns the first run of letters in s, uppercased.
func leadingKeyword(s string) string {
	end := 0
	for end < len(s) {
		ch := s[end]
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
			end++
			continue
		}
		break
	}
	return strings.ToUpper(s[:end])
}

// hasMultipleStatements reports whether cleaned contains a semicolon with
// further content after it. A single trailing semicolon is permitted.
func hasMultipleStatements(cleaned string) bool {
	idx := strings.IndexByte(cleaned, ';')
	if idx < 0 {
		return false
	}
	return strings.TrimSpace(cleaned[idx+1:]) != ""
}

// StripLiteralsAndComments returns query with string literals, quoted
// identifiers, and comments each replaced by a single space. Statement
// structure such as keywords and semicolons is preserved, which makes the
// result safe to inspect for classification.
func (f DialectFeatures) StripLiteralsAndComments(query string) string {
	var b strings.Builder
	b.Grow(len(query))

	// Byte scanning is sufficient here: every syntactically significant
	// character is ASCII, and multi-byte runes only occur inside
	// identifiers or literals.
	i, n := 0, len(query)
	for i < n {
		ch := query[i]
		switch {
		case ch == '\'' || ch == '"':
			i = f.skipQuoted(query, i, ch)
			b.WriteByte(' ')
		case ch == '`' && f.BacktickQuotes:
			i = f.skipQuoted(query, i, ch)
			b.WriteByte(' ')
		case ch == '[' && f.BracketQuotes:
			i = skipBracketed(query, i)
			b.WriteByte(' ')
		case ch == '$' && f.DollarQuotes:
			end, ok := skipDollarQuoted(query, i)
			if !ok {
				// A lone $ such as a positional parameter.
				b.WriteByte(ch)
				i++
				break
			}
			i = end
			b.WriteByte(' ')
		case ch == '-' && i+1 < n && query[i+1] == '-':
			i = skipLineComment(query, i)
			b.WriteByte(' ')
		case ch == '#' && f.HashComments:
			i = skipLineComment(query, i)
			b.WriteByte(' ')
		case ch == '/' && i+1 < n && query[i+1] == '*':
			i = skipBlockComment(query, i)
			b.WriteByte(' ')
		default:
			b.WriteByte(ch)
			i++
		}
	}
	return b.String()
}

// skipQuoted advances past a quoted region opened at start and returns the
// index after the closing quote. Doubled quotes ('') are treated as an
// escaped quote in every dialect. An unterminated region runs to the end
// of the input, which is the safe reading for classification.
func (f DialectFeatures) skipQuoted(query string, start int, quote byte) int {
	i, n := start+1, len(query)
	for i < n {
		ch := query[i]
		if ch == '\\' && f.BackslashEscapes && quote != '`' {
			i += 2
			continue
		}
		if ch == quote {
			if i+1 < n && query[i+1] == quote {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return n
}

func skipBracketed(query string, start int) int {
	i, n := start+1, len(query)
	for i < n {
		if query[i] == ']' {
			// ]] is an escaped closing bracket.
			if i+1 < n && query[i+1] == ']' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return n
}

// skipDollarQuoted handles $tag$...$tag$ literals. It reports ok=false
// when the $ at start does not open a dollar-quoted literal.
func skipDollarQuoted(query string, start int) (int, bool) {
	i, n := start+1, len(query)
	for i < n && isDollarTagByte(query[i]) {
		i++
	}
	if i >= n || query[i] != '$' {
		return 0, false
	}
	delim := query[start : i+1]
	rest := query[i+1:]
	end := strings.Index(rest, delim)
	if end < 0 {
		return n, true
	}
	return i + 1 + end + len(delim), true
}

func isDollarTagByte(ch byte) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9')
}

// skipLineComment advances to the terminating newline, leaving the newline
// itself in place so line structure survives.
func skipLineComment(query string, start int) int {
	if idx := strings.IndexByte(query[start:], '\n'); idx >= 0 {
		return start + idx
	}
	return len(query)
}

func skipBlockComment(query string, start int) int {
	if idx := strings.Index(query[start+2:], "*/"); idx >= 0 {
		return start + 2 + idx + 2
	}
	return len(query)
}
