// Package parsers converts comma separated, newline delimited text tables into caller-defined values.
//
// The format is deliberately plain: fields are split on ',' and lines on '\n' with no quoting or
// escaping, and the first line names the columns. The whole table is loaded into memory.
//
// A TableParser is built from a string, a file path or a file URL. ConvertRows hands each data
// line to a RowTransform as a Record (column name to value) and keeps the values the transform
// accepts:
//
//	parser, err := parsers.NewTableParserFromFile[User]("users.csv")
//	if err != nil {
//	    return err // errors.Is(err, parsers.ErrFileRead)
//	}
//
//	users := parser.ConvertRows(func(row parsers.Record) (User, bool) {
//	    if row["email"] == "" {
//	        return User{}, false // skip the row
//	    }
//	    return User{Email: row["email"], Name: row["name"]}, true
//	})
//
// Rows are matched to the header by position. A row with more fields than headers loses the
// extra fields; a row with fewer fields simply lacks the trailing keys. Conversion never fails.
//
// The header row is cached on the parser by the first ConvertRows call. Calling ConvertRows
// again on the same parser treats the first line as data; build a new parser to re-read a table.
// HeaderNames reads the first line independently and returns its distinct names as a set.
//
// TableWriter produces the same format, so exported tables can be parsed back.
package parsers
