package database

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/koustreak/simpledb/internal/errs"
)

type fetchStyle int

const (
	styleAssoc fetchStyle = iota
	styleNum
	styleColumn
	styleInto
)

// Fetch selects how a result row is shaped. The zero value is FetchAssoc.
type Fetch struct {
	style  fetchStyle
	column int
	dest   any
}

var (
	// FetchAssoc shapes each row as map[string]any keyed by column name.
	FetchAssoc = Fetch{style: styleAssoc}

	// FetchNum shapes each row as []any in column order.
	FetchNum = Fetch{style: styleNum}
)

// FetchColumn shapes each row as its value at the zero-based column index.
func FetchColumn(index int) Fetch {
	return Fetch{style: styleColumn, column: index}
}

// FetchInto maps rows onto structs using `db` tags (lower-cased field names
// otherwise). dest must be a pointer to a slice of structs for Query and a
// pointer to a struct for Row; the returned values alias dest.
func FetchInto(dest any) Fetch {
	return Fetch{style: styleInto, dest: dest}
}

func (f Fetch) String() string {
	switch f.style {
	case styleNum:
		return "num"
	case styleColumn:
		return fmt.Sprintf("column:%d", f.column)
	case styleInto:
		return fmt.Sprintf("into:%T", f.dest)
	default:
		return "assoc"
	}
}

// ParseFetch reads the textual form used on the command line:
// "assoc", "num" or "column:N".
func ParseFetch(s string) (Fetch, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "" || s == "assoc":
		return FetchAssoc, nil
	case s == "num":
		return FetchNum, nil
	case strings.HasPrefix(s, "column"):
		idx := 0
		if rest := strings.TrimPrefix(s, "column"); rest != "" {
			n, err := strconv.Atoi(strings.TrimPrefix(rest, ":"))
			if err != nil || !strings.HasPrefix(rest, ":") || n < 0 {
				return Fetch{}, errs.Newf(errs.ErrKindInvalidInput, "invalid fetch style %q", s)
			}
			idx = n
		}
		return FetchColumn(idx), nil
	default:
		return Fetch{}, errs.Newf(errs.ErrKindInvalidInput, "invalid fetch style %q (want assoc, num or column:N)", s)
	}
}

// scanAll reads every remaining row in the requested style.
// The returned slice is never nil.
func scanAll(rows *sqlx.Rows, f Fetch) ([]any, error) {
	if f.style == styleInto {
		return scanAllInto(rows, f.dest)
	}

	result := make([]any, 0)
	for rows.Next() {
		v, err := scanCurrent(rows, f)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// scanOne reads the next row. found is false when the result set is empty.
func scanOne(rows *sqlx.Rows, f Fetch) (row any, found bool, err error) {
	if !rows.Next() {
		return nil, false, rows.Err()
	}
	row, err = scanCurrent(rows, f)
	if err != nil {
		return nil, false, err
	}
	return row, true, nil
}

func scanCurrent(rows *sqlx.Rows, f Fetch) (any, error) {
	switch f.style {
	case styleNum, styleColumn:
		values, err := rows.SliceScan()
		if err != nil {
			return nil, err
		}
		for i := range values {
			values[i] = normalize(values[i])
		}
		if f.style == styleNum {
			return values, nil
		}
		if f.column < 0 || f.column >= len(values) {
			return nil, errs.Newf(errs.ErrKindInvalidInput,
				"column index %d out of range (result has %d columns)", f.column, len(values))
		}
		return values[f.column], nil

	case styleInto:
		if f.dest == nil {
			return nil, errs.New(errs.ErrKindInvalidInput, "FetchInto needs a destination")
		}
		if err := rows.StructScan(f.dest); err != nil {
			return nil, err
		}
		return f.dest, nil

	default:
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, err
		}
		for k, v := range row {
			row[k] = normalize(v)
		}
		return row, nil
	}
}

func scanAllInto(rows *sqlx.Rows, dest any) ([]any, error) {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Slice {
		return nil, errs.Newf(errs.ErrKindInvalidInput,
			"FetchInto on a result set needs a pointer to a slice, got %T", dest)
	}

	// StructScan appends; a reused destination starts over.
	v.Elem().SetLen(0)
	if err := sqlx.StructScan(rows, dest); err != nil {
		return nil, err
	}

	slice := v.Elem()
	result := make([]any, slice.Len())
	for i := range result {
		result[i] = slice.Index(i).Interface()
	}
	return result, nil
}

// normalize turns driver byte slices (MySQL text columns) into strings.
func normalize(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// toInt64 converts the first column of a count query.
func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("count %d overflows int64", n)
		}
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("count %v is not an integer", n)
		}
		return int64(n), nil
	case string:
		return strconv.ParseInt(strings.TrimSpace(n), 10, 64)
	case []byte:
		return strconv.ParseInt(strings.TrimSpace(string(n)), 10, 64)
	default:
		return 0, fmt.Errorf("count column has type %T", v)
	}
}
