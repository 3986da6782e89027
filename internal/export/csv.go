// Package export renders record slices as spreadsheet-friendly CSV.
package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
)

const bom = "\uFEFF"

var ErrNotStruct = errors.New("export: rows must be structs")

type column struct {
	name  string
	index int
}

// CSV writes a header of json field names followed by one row per element.
// Every field is quoted, rows end in CRLF and the output starts with a UTF-8
// BOM so spreadsheet tools pick the right encoding.
func CSV[T any](rows []T) ([]byte, error) {
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}
	columns := columnsOf(typ)

	var buf bytes.Buffer
	buf.WriteString(bom)

	header := make([]string, len(columns))
	for i, col := range columns {
		header[i] = col.name
	}
	writeRow(&buf, header)

	for _, row := range rows {
		value := reflect.ValueOf(row)
		cells := make([]string, len(columns))
		for i, col := range columns {
			cell, err := formatCell(value.Field(col.index))
			if err != nil {
				return nil, fmt.Errorf("export: column %s: %w", col.name, err)
			}
			cells[i] = cell
		}
		writeRow(&buf, cells)
	}
	return buf.Bytes(), nil
}

// Filename builds base_YYYY-MM-DD.csv.
func Filename(base string, day time.Time) string {
	return fmt.Sprintf("%s_%s.csv", base, day.Format("2006-01-02"))
}

func columnsOf(typ reflect.Type) []column {
	columns := make([]column, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("json"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		columns = append(columns, column{name: name, index: i})
	}
	return columns
}

func formatCell(v reflect.Value) (string, error) {
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}

	switch val := v.Interface().(type) {
	case time.Time:
		if val.IsZero() {
			return "", nil
		}
		return val.Format(time.RFC3339), nil
	case fmt.Stringer:
		return val.String(), nil
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fmt.Sprint(v.Interface()), nil
	default:
		raw, err := json.Marshal(v.Interface())
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

func writeRow(buf *bytes.Buffer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(cell, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteString("\r\n")
}
