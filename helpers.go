package main

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
	"time"
)

type columnKind int

const (
	kindUnknown columnKind = iota
	kindText
	kindInteger
	kindFloat
	kindBool
)

// classifyColumn maps a driver-reported type name ("UNSIGNED INT",
// "VARCHAR(255)", "INT8", ...) to the kind used to steer decoding.
func classifyColumn(dbType string) columnKind {
	t := strings.ToUpper(strings.TrimSpace(dbType))
	t = strings.TrimPrefix(t, "UNSIGNED ")
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = strings.TrimSpace(t[:i])
	}

	switch t {
	case "":
		return kindUnknown
	case "TINYINT", "SMALLINT", "MEDIUMINT", "INT", "INTEGER", "BIGINT",
		"INT2", "INT4", "INT8", "YEAR":
		return kindInteger
	case "DECIMAL", "NUMERIC", "FLOAT", "DOUBLE", "REAL", "FLOAT4", "FLOAT8":
		return kindFloat
	case "BOOL", "BOOLEAN":
		return kindBool
	default:
		return kindText
	}
}

// columnDecoder tries to turn one scanned driver value into a JSON value.
// ok is false when the decoder does not apply and the next one should run.
type columnDecoder func(raw any, kind columnKind) (value any, ok bool)

// columnDecoders run in order; a value none of them accepts becomes null.
var columnDecoders = []columnDecoder{
	decodeText,
	decodeInt64,
	decodeFloat64,
	decodeBool,
	decodeRawText,
}

func decodeColumn(raw any, kind columnKind) any {
	for _, decode := range columnDecoders {
		if v, ok := decode(raw, kind); ok {
			return v
		}
	}
	return nil
}

func decodeText(raw any, kind columnKind) (any, bool) {
	switch v := raw.(type) {
	case time.Time:
		return v.Format(time.RFC3339Nano), true
	case string:
		if kind == kindText || kind == kindUnknown {
			return v, true
		}
	case []byte:
		if kind == kindText || kind == kindUnknown {
			return string(v), true
		}
	}
	return nil, false
}

// decodeRawText keeps text that no typed decoder could parse, such as a
// string stored in an INTEGER column.
func decodeRawText(raw any, _ columnKind) (any, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	}
	return nil, false
}

func decodeInt64(raw any, kind columnKind) (any, bool) {
	switch v := raw.(type) {
	case int64:
		return v, true
	case int32:
		return int64(v), true
	case int:
		return int64(v), true
	case uint64:
		if v <= 1<<63-1 {
			return int64(v), true
		}
	case []byte:
		if kind == kindInteger {
			if n, err := strconv.ParseInt(string(v), 10, 64); err == nil {
				return n, true
			}
		}
	case string:
		if kind == kindInteger {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return n, true
			}
		}
	}
	return nil, false
}

func decodeFloat64(raw any, kind columnKind) (any, bool) {
	switch v := raw.(type) {
	case float64:
		return finiteOrNull(v), true
	case float32:
		return finiteOrNull(float64(v)), true
	case []byte:
		if kind == kindFloat || kind == kindInteger {
			if f, err := strconv.ParseFloat(string(v), 64); err == nil {
				return finiteOrNull(f), true
			}
		}
	case string:
		if kind == kindFloat || kind == kindInteger {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return finiteOrNull(f), true
			}
		}
	}
	return nil, false
}

// finiteOrNull maps NaN and the infinities to null; JSON has no encoding
// for them.
func finiteOrNull(f float64) any {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

func decodeBool(raw any, kind columnKind) (any, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case []byte:
		if kind == kindBool {
			if b, err := strconv.ParseBool(string(v)); err == nil {
				return b, true
			}
		}
	case string:
		if kind == kindBool {
			if b, err := strconv.ParseBool(v); err == nil {
				return b, true
			}
		}
	}
	return nil, false
}

// scanRows reads every remaining row into column-keyed maps. The returned
// slice is never nil so an empty result still encodes as [].
func scanRows(rows *sql.Rows) ([]string, []map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	kinds := make([]columnKind, len(columns))
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			kinds[i] = classifyColumn(ct.DatabaseTypeName())
		}
	}

	results := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = decodeColumn(values[i], kinds[i])
		}
		results = append(results, row)
	}

	return columns, results, rows.Err()
}
