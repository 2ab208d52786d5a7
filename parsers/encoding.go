package parsers

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "utf-8"

var errInvalidUTF8 = errors.New("source is not valid UTF-8")

// Option configures how a TableParser loads its source file.
type Option func(*options)

type options struct {
	encoding string
}

// WithEncoding sets the text encoding of the source file.
// Supported: utf-8, latin1 (iso-8859-1) and windows-1252.
func WithEncoding(name string) Option {
	return func(o *options) {
		o.encoding = name
	}
}

func buildOptions(opts []Option) options {
	o := options{encoding: DefaultEncoding}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// SupportedEncoding reports whether name can be passed to WithEncoding.
func SupportedEncoding(name string) bool {
	_, _, err := lookupEncoding(name)
	return err == nil
}

func lookupEncoding(name string) (encoding.Encoding, bool, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, true, nil
	case "latin1", "iso-8859-1":
		return charmap.ISO8859_1, false, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, false, nil
	default:
		return nil, false, fmt.Errorf("unsupported encoding %q", name)
	}
}

func decodeText(raw []byte, name string) (string, error) {
	enc, isUTF8, err := lookupEncoding(name)
	if err != nil {
		return "", err
	}
	if isUTF8 {
		if !utf8.Valid(raw) {
			return "", errInvalidUTF8
		}
		return string(raw), nil
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}
