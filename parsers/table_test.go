package parsers

import (
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertRows_InfersHeaders(t *testing.T) {
	parser := NewTableParser[Record]("a,b,c\n1,2,3\n4,5,6")

	rows := parser.ConvertRows(Identity)

	require.Len(t, rows, 2, "Header line should not produce a row")
	assert.Equal(t, Record{"a": "1", "b": "2", "c": "3"}, rows[0])
	assert.Equal(t, Record{"a": "4", "b": "5", "c": "6"}, rows[1])
	assert.Equal(t, HeadersSet, parser.State())
	assert.Equal(t, []string{"a", "b", "c"}, parser.Headers())
}

func TestConvertRows_RaggedRows(t *testing.T) {
	parser := NewTableParser[Record]("a,b,c\n1,2\n1,2,3,4")

	rows := parser.ConvertRows(Identity)

	require.Len(t, rows, 2)
	assert.Equal(t, Record{"a": "1", "b": "2"}, rows[0])
	_, hasC := rows[0]["c"]
	assert.False(t, hasC, "Missing trailing field should leave the key absent")
	assert.Equal(t, Record{"a": "1", "b": "2", "c": "3"}, rows[1], "Extra field should be dropped")
}

func TestConvertRows_TransformFiltering(t *testing.T) {
	type item struct {
		ID   string
		Name string
	}

	parser := NewTableParser[item]("id,name,status\n1,first,keep\n2,second,skip\n3,third,keep\n4,fourth,skip")

	items := parser.ConvertRows(func(row Record) (item, bool) {
		if row["status"] == "skip" {
			return item{}, false
		}
		return item{ID: row["id"], Name: row["name"]}, true
	})

	assert.Equal(t, []item{{ID: "1", Name: "first"}, {ID: "3", Name: "third"}}, items)
}

func TestConvertRows_TrailingNewlineYieldsEmptyRow(t *testing.T) {
	parser := NewTableParser[Record]("a,b\n1,2\n")

	rows := parser.ConvertRows(Identity)

	require.Len(t, rows, 2, "Trailing empty line is not trimmed")
	assert.Equal(t, Record{"a": ""}, rows[1])
}

func TestConvertRows_SecondCallReusesHeaders(t *testing.T) {
	parser := NewTableParser[Record]("a,b\n1,2")

	first := parser.ConvertRows(Identity)
	require.Len(t, first, 1)

	second := parser.ConvertRows(Identity)

	require.Len(t, second, 2, "Header line is read as data once headers are cached")
	assert.Equal(t, Record{"a": "a", "b": "b"}, second[0])
	assert.Equal(t, Record{"a": "1", "b": "2"}, second[1])
	assert.Equal(t, HeadersSet, parser.State())
}

func TestConvertRows_DuplicateHeadersLastWins(t *testing.T) {
	parser := NewTableParser[Record]("a,b,a\n1,2,3")

	rows := parser.ConvertRows(Identity)

	require.Len(t, rows, 1)
	assert.Equal(t, Record{"a": "3", "b": "2"}, rows[0])
	assert.Equal(t, []string{"a", "b", "a"}, parser.Headers(), "Cached header row keeps order and duplicates")
}

func TestHeaderNames(t *testing.T) {
	tests := []struct {
		name string
		data string
		want map[string]struct{}
	}{
		{
			name: "duplicatesCollapse",
			data: "a,b,a\n1,2,3",
			want: map[string]struct{}{"a": {}, "b": {}},
		},
		{
			name: "headerOnly",
			data: "id,email",
			want: map[string]struct{}{"id": {}, "email": {}},
		},
		{
			name: "blankFirstLine",
			data: "\nx,y",
			want: map[string]struct{}{"": {}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			parser := NewTableParser[Record](tt.data)

			got, err := parser.HeaderNames()

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHeaderNames_IndependentOfConvertRows(t *testing.T) {
	parser := NewTableParser[Record]("a,b,a\n1,2,3")

	before, err := parser.HeaderNames()
	require.NoError(t, err)
	assert.Len(t, before, 2)
	assert.Equal(t, HeadersUnset, parser.State(), "HeaderNames must not touch cached headers")

	parser.ConvertRows(Identity)

	after, err := parser.HeaderNames()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestHeaderNames_EmptyInput(t *testing.T) {
	parser := NewTableParser[Record]("")

	_, err := parser.HeaderNames()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyInput)

	var parserErr *ParserError
	require.ErrorAs(t, err, &parserErr)
	assert.Equal(t, "no lines", parserErr.Message)
}

func TestAllHeaders(t *testing.T) {
	parser := NewTableParser[Record]("a,b,a\n1,2,3")

	assert.Empty(t, parser.AllHeaders(), "No cached headers before ConvertRows")
	assert.Nil(t, parser.Headers())

	parser.ConvertRows(Identity)

	assert.Equal(t, map[string]struct{}{"a": {}, "b": {}}, parser.AllHeaders())
}

func TestNewTableParserFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,city\nAda,London\nLinus,Helsinki"), 0o644))

	parser, err := NewTableParserFromFile[Record](path)
	require.NoError(t, err)

	rows := parser.ConvertRows(Identity)
	require.Len(t, rows, 2)
	assert.Equal(t, "Helsinki", rows[1]["city"])
}

func TestNewTableParserFromFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.csv")

	parser, err := NewTableParserFromFile[Record](path)

	assert.Nil(t, parser)
	assert.ErrorIs(t, err, ErrFileRead)
	assert.ErrorIs(t, err, os.ErrNotExist, "Underlying I/O error should be propagated")
}

func TestNewTableParserFromFile_InvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\nJos\xe9"), 0o644))

	_, err := NewTableParserFromFile[Record](path)

	assert.ErrorIs(t, err, ErrFileRead)
}

func TestNewTableParserFromFile_Latin1(t *testing.T) {
	path := filepath.Join(t.TempDir(), "latin1.csv")
	require.NoError(t, os.WriteFile(path, []byte("name\nJos\xe9"), 0o644))

	parser, err := NewTableParserFromFile[Record](path, WithEncoding("latin1"))
	require.NoError(t, err)

	rows := parser.ConvertRows(Identity)
	require.Len(t, rows, 1)
	assert.Equal(t, "José", rows[0]["name"])
}

func TestNewTableParserFromFile_UnsupportedEncoding(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1"), 0o644))

	_, err := NewTableParserFromFile[Record](path, WithEncoding("ebcdic"))

	assert.ErrorIs(t, err, ErrFileRead)
	assert.False(t, SupportedEncoding("ebcdic"))
	assert.True(t, SupportedEncoding("Windows-1252"))
}

func TestNewTableParserFromURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("a\n1"), 0o644))

	parser, err := NewTableParserFromURL[Record](&url.URL{Scheme: "file", Path: path})
	require.NoError(t, err)
	assert.Equal(t, []Record{{"a": "1"}}, parser.ConvertRows(Identity))
}

func TestNewTableParserFromURL_InvalidPath(t *testing.T) {
	tests := []struct {
		name string
		url  *url.URL
	}{
		{name: "nil", url: nil},
		{name: "emptyPath", url: &url.URL{Scheme: "file"}},
		{name: "remoteScheme", url: &url.URL{Scheme: "https", Host: "example.com", Path: "/data.csv"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			parser, err := NewTableParserFromURL[Record](tt.url)

			assert.Nil(t, parser)
			assert.ErrorIs(t, err, ErrInvalidPath)
			assert.NotErrorIs(t, err, ErrFileRead)
		})
	}
}

func TestHeaderStateString(t *testing.T) {
	assert.Equal(t, "unset", HeadersUnset.String())
	assert.Equal(t, "set", HeadersSet.String())
	assert.Equal(t, "unknown", HeaderState(7).String())
}

func TestRecordBlank(t *testing.T) {
	assert.True(t, Record{}.Blank())
	assert.True(t, Record{"a": "", "b": "  "}.Blank())
	assert.False(t, Record{"a": "", "b": "x"}.Blank())
}
