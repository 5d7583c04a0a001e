package tools

import (
	"context"
	"database/sql"

	"github.com/swarmmind/swarmmind/core"
)

// DatabaseTool answers the "database" capability over any database/sql
// driver the caller wires in (e.g. postgres, sqlite); swarmmind's core
// only ever sees the uniform execute(params)->Result contract, never
// the driver (spec §1: "the concrete implementations of individual
// tools... the core only sees a uniform tool invocation contract").
type DatabaseTool struct {
	db *sql.DB
}

func NewDatabaseTool(db *sql.DB) *DatabaseTool {
	return &DatabaseTool{db: db}
}

func (t *DatabaseTool) Name() string { return "database" }

func (t *DatabaseTool) Describe() string {
	return "runs a parameterised SQL query or statement against the configured database (operations: query, exec)"
}

func (t *DatabaseTool) Execute(ctx context.Context, params map[string]interface{}) (*core.ToolResult, error) {
	op, _ := params["operation"].(string)
	query, _ := params["query"].(string)
	if query == "" {
		return &core.ToolResult{Success: false, Error: "database: query is required"}, nil
	}
	args := argsFromParams(params["args"])

	switch op {
	case "exec":
		res, err := t.db.ExecContext(ctx, query, args...)
		if err != nil {
			return &core.ToolResult{Success: false, Error: err.Error()}, nil
		}
		affected, _ := res.RowsAffected()
		return &core.ToolResult{Success: true, Data: map[string]interface{}{"rows_affected": affected}}, nil

	default: // "query"
		rows, err := t.db.QueryContext(ctx, query, args...)
		if err != nil {
			return &core.ToolResult{Success: false, Error: err.Error()}, nil
		}
		defer rows.Close()

		cols, err := rows.Columns()
		if err != nil {
			return &core.ToolResult{Success: false, Error: err.Error()}, nil
		}
		var out []map[string]interface{}
		for rows.Next() {
			values := make([]interface{}, len(cols))
			ptrs := make([]interface{}, len(cols))
			for i := range values {
				ptrs[i] = &values[i]
			}
			if err := rows.Scan(ptrs...); err != nil {
				return &core.ToolResult{Success: false, Error: err.Error()}, nil
			}
			row := make(map[string]interface{}, len(cols))
			for i, c := range cols {
				row[c] = values[i]
			}
			out = append(out, row)
		}
		return &core.ToolResult{Success: true, Data: map[string]interface{}{"rows": out}}, nil
	}
}

func argsFromParams(raw interface{}) []interface{} {
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	return list
}
