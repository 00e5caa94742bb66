package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const allTables = "all-tables"

func (s *Server) handleSchema(ctx context.Context, st *store, raw json.RawMessage) (*mcp.CallToolResult, error) {
	var args SchemaArguments
	if err := decodeArguments("mysql", raw, &args); err != nil {
		return nil, err
	}

	if args.TableName == allTables {
		output, err := s.allTableSchemas(ctx, st)
		if err != nil {
			return nil, err
		}
		text := fmt.Sprintf("Retrieved schemas for %d tables.", output.Count)
		return textResult(text, output), nil
	}

	if !validIdentifier(args.TableName) {
		return nil, invalidTableName()
	}

	schema, err := tableSchema(ctx, st, args.TableName)
	if err != nil {
		if errors.Is(err, errTableNotFound) {
			return nil, tableNotFound(args.TableName)
		}
		return nil, st.failed("Schema", err)
	}

	text := fmt.Sprintf("Retrieved schema for table '%s'.", args.TableName)
	return textResult(text, SchemaOutput{Schema: schema}), nil
}

// allTableSchemas introspects every base table. A table that fails is logged
// and left out; the rest are still returned.
func (s *Server) allTableSchemas(ctx context.Context, st *store) (AllSchemasOutput, error) {
	tables, err := st.dialect.ListTables(ctx, st.db)
	if err != nil {
		return AllSchemasOutput{}, st.failed("Schema", err)
	}

	schemas := make([]TableSchema, 0, len(tables))
	for _, table := range tables {
		schema, err := tableSchema(ctx, st, table)
		if err != nil {
			s.logger.Warn("skipping table in schema listing", "table", table, "error", err)
			continue
		}
		schemas = append(schemas, *schema)
	}

	return AllSchemasOutput{Schemas: schemas, Count: len(schemas)}, nil
}

// tableSchema returns the columns and indexes of one table. A missing table
// yields an error wrapping errTableNotFound.
func tableSchema(ctx context.Context, st *store, table string) (*TableSchema, error) {
	exists, err := st.dialect.TableExists(ctx, st.db, table)
	if err != nil {
		return nil, fmt.Errorf("failed to check table %s: %w", table, err)
	}
	if !exists {
		return nil, fmt.Errorf("%s: %w", table, errTableNotFound)
	}

	columns, err := st.dialect.ListColumns(ctx, st.db, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns of %s: %w", table, err)
	}

	indexes, err := st.dialect.ListIndexes(ctx, st.db, table)
	if err != nil {
		return nil, fmt.Errorf("failed to get indexes of %s: %w", table, err)
	}

	return &TableSchema{
		TableName: table,
		Columns:   columns,
		Indexes:   indexes,
	}, nil
}
