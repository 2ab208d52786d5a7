package parsers

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

var errNilWriter = errors.New("parsers: writer destination cannot be nil")

var fieldSanitizer = strings.NewReplacer(FieldDelimiter, " ", LineDelimiter, " ", "\r", " ")

// TableWriter emits lines in the format TableParser reads.
//
// Lines are separated, not terminated, by LineDelimiter so the output parses back without a
// trailing empty row. The format has no quoting: delimiter characters inside a value are
// replaced by a space.
type TableWriter struct {
	dst   *bufio.Writer
	lines int
	err   error
}

// NewTableWriter creates a buffered TableWriter. Call Flush when done.
func NewTableWriter(w io.Writer) *TableWriter {
	if w == nil {
		panic(errNilWriter.Error())
	}
	return &TableWriter{dst: bufio.NewWriter(w)}
}

// Write emits one line. The first line written is the header row.
func (w *TableWriter) Write(fields []string) error {
	if w.err != nil {
		return w.err
	}

	if w.lines > 0 {
		if _, err := w.dst.WriteString(LineDelimiter); err != nil {
			w.err = err
			return err
		}
	}

	for i, field := range fields {
		if i > 0 {
			if _, err := w.dst.WriteString(FieldDelimiter); err != nil {
				w.err = err
				return err
			}
		}
		if _, err := w.dst.WriteString(SanitizeField(field)); err != nil {
			w.err = err
			return err
		}
	}

	w.lines++
	return nil
}

// Lines returns how many lines have been written.
func (w *TableWriter) Lines() int {
	return w.lines
}

// Flush writes buffered data to the underlying writer.
func (w *TableWriter) Flush() error {
	if w.err != nil {
		return w.err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
	}
	return w.err
}

// SanitizeField replaces characters that would split a value into several fields or lines.
func SanitizeField(value string) string {
	return fieldSanitizer.Replace(value)
}
