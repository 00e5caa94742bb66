package main

import (
	"encoding/json"
	"regexp"
	"sort"

	sq "github.com/Masterminds/squirrel"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// validIdentifier reports whether name may be formatted into SQL text as a
// table or column name.
func validIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// buildInsert renders a single-row INSERT for data. Columns are emitted in
// sorted order.
func buildInsert(sb sq.StatementBuilderType, table string, data map[string]any) (sq.InsertBuilder, error) {
	if !validIdentifier(table) {
		return sq.InsertBuilder{}, invalidTableName()
	}
	if len(data) == 0 {
		return sq.InsertBuilder{}, invalidParams("Data object is empty")
	}

	columns := sortedKeys(data)
	values := make([]any, 0, len(columns))
	for _, col := range columns {
		if !validIdentifier(col) {
			return sq.InsertBuilder{}, invalidParams("Invalid column name: %s", col)
		}
		v, err := bindValue(col, data[col])
		if err != nil {
			return sq.InsertBuilder{}, err
		}
		values = append(values, v)
	}

	return sb.Insert(table).Columns(columns...).Values(values...), nil
}

// buildUpdate renders UPDATE ... SET ... WHERE ...; data arguments come
// before condition arguments.
func buildUpdate(sb sq.StatementBuilderType, table string, data, conditions map[string]any) (sq.UpdateBuilder, error) {
	if !validIdentifier(table) {
		return sq.UpdateBuilder{}, invalidTableName()
	}
	if len(data) == 0 {
		return sq.UpdateBuilder{}, invalidParams("Data object is empty")
	}
	if len(conditions) == 0 {
		return sq.UpdateBuilder{}, invalidParams("Conditions object is empty")
	}

	ub := sb.Update(table)
	for _, col := range sortedKeys(data) {
		if !validIdentifier(col) {
			return sq.UpdateBuilder{}, invalidParams("Invalid column name: %s", col)
		}
		v, err := bindValue(col, data[col])
		if err != nil {
			return sq.UpdateBuilder{}, err
		}
		ub = ub.Set(col, v)
	}

	where, err := buildConditions(conditions)
	if err != nil {
		return sq.UpdateBuilder{}, err
	}
	return ub.Where(where), nil
}

func buildDelete(sb sq.StatementBuilderType, table string, conditions map[string]any) (sq.DeleteBuilder, error) {
	if !validIdentifier(table) {
		return sq.DeleteBuilder{}, invalidTableName()
	}
	if len(conditions) == 0 {
		return sq.DeleteBuilder{}, invalidParams("Conditions object is empty")
	}

	where, err := buildConditions(conditions)
	if err != nil {
		return sq.DeleteBuilder{}, err
	}
	return sb.Delete(table).Where(where), nil
}

// buildConditions turns a condition map into an equality conjunction. A nil
// value renders as IS NULL.
func buildConditions(conditions map[string]any) (sq.Eq, error) {
	eq := make(sq.Eq, len(conditions))
	for col, raw := range conditions {
		if !validIdentifier(col) {
			return nil, invalidParams("Invalid column name: %s", col)
		}
		v, err := bindValue(col, raw)
		if err != nil {
			return nil, err
		}
		eq[col] = v
	}
	return eq, nil
}

// bindValue converts a decoded JSON scalar into a driver argument.
func bindValue(col string, v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool:
		return t, nil
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return n, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, invalidParams("Invalid number for column %s: %s", col, t.String())
		}
		return f, nil
	case float64:
		return t, nil
	default:
		return nil, invalidParams("Unsupported value for column %s: only strings, numbers, booleans and null are allowed", col)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
