package parsers

import (
	"net/url"
	"os"
	"strings"
)

const (
	// FieldDelimiter separates values within a line.
	FieldDelimiter = ","
	// LineDelimiter separates lines.
	LineDelimiter = "\n"
)

// Record represents a single table row as a map of column name to value
type Record map[string]string

// Blank reports whether every value in the row is empty or whitespace, as produced by a
// trailing newline.
func (r Record) Blank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// RowTransform converts a row into a caller-defined object.
// Returning ok == false skips the row.
type RowTransform[T any] func(row Record) (obj T, ok bool)

// Identity is a RowTransform that keeps every row as-is.
func Identity(row Record) (Record, bool) {
	return row, true
}

// HeaderState tracks whether a TableParser has consumed its header line.
type HeaderState int

const (
	HeadersUnset HeaderState = iota
	HeadersSet
)

// String returns a human-readable state name.
func (s HeaderState) String() string {
	switch s {
	case HeadersUnset:
		return "unset"
	case HeadersSet:
		return "set"
	default:
		return "unknown"
	}
}

// TableParser converts comma separated, newline delimited text into objects of type T.
//
// The whole source is held in memory. The first line converted by ConvertRows is taken as the
// header row and cached on the parser for its lifetime, so a second ConvertRows call treats its
// first line as data.
type TableParser[T any] struct {
	data    string
	state   HeaderState
	headers []string
}

// NewTableParser stores data as the source text.
func NewTableParser[T any](data string) *TableParser[T] {
	return &TableParser[T]{data: data}
}

// NewTableParserFromFile reads the whole file at path as text.
func NewTableParserFromFile[T any](path string, opts ...Option) (*TableParser[T], error) {
	o := buildOptions(opts)

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, newParserError(ErrFileRead, "failed to read "+path, err)
	}

	text, err := decodeText(raw, o.encoding)
	if err != nil {
		return nil, newParserError(ErrFileRead, "failed to decode "+path, err)
	}

	return NewTableParser[T](text), nil
}

// NewTableParserFromURL resolves a file URL to a path and reads it like NewTableParserFromFile.
func NewTableParserFromURL[T any](u *url.URL, opts ...Option) (*TableParser[T], error) {
	if u == nil {
		return nil, newParserError(ErrInvalidPath, "path does not exist", nil)
	}
	if u.Scheme != "" && u.Scheme != "file" {
		return nil, newParserError(ErrInvalidPath, "not a file URL: "+u.String(), nil)
	}
	if u.Path == "" {
		return nil, newParserError(ErrInvalidPath, "path does not exist", nil)
	}
	return NewTableParserFromFile[T](u.Path, opts...)
}

// State reports whether the header row has been consumed.
func (p *TableParser[T]) State() HeaderState {
	return p.state
}

// Headers returns a copy of the cached header row, or nil before the first ConvertRows call.
func (p *TableParser[T]) Headers() []string {
	if p.state != HeadersSet {
		return nil
	}
	headers := make([]string, len(p.headers))
	copy(headers, p.headers)
	return headers
}

// AllHeaders returns the cached header row as a set. It is empty before the first ConvertRows call.
func (p *TableParser[T]) AllHeaders() map[string]struct{} {
	if p.state != HeadersSet {
		return map[string]struct{}{}
	}
	return toSet(p.headers)
}

// HeaderNames splits the first line of the source into a set of column names.
// It neither reads nor updates the cached header row used by ConvertRows.
func (p *TableParser[T]) HeaderNames() (map[string]struct{}, error) {
	if p.data == "" {
		return nil, newParserError(ErrEmptyInput, "no lines", nil)
	}
	first, _, _ := strings.Cut(p.data, LineDelimiter)
	return toSet(strings.Split(first, FieldDelimiter)), nil
}

// ConvertRows runs transform over every data line and collects the objects it keeps, in input order.
//
// Fields are matched to headers by position: fields past the last header are dropped and
// headers past the last field are left out of the row.
func (p *TableParser[T]) ConvertRows(transform RowTransform[T]) []T {
	var result []T

	for _, line := range strings.Split(p.data, LineDelimiter) {
		fields := strings.Split(line, FieldDelimiter)

		if p.state == HeadersUnset {
			p.headers = fields
			p.state = HeadersSet
			continue
		}

		row := make(Record, len(fields))
		for i, value := range fields {
			if i < len(p.headers) {
				row[p.headers[i]] = value
			}
		}

		if obj, ok := transform(row); ok {
			result = append(result, obj)
		}
	}

	return result
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
