package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"jobhunt-consolidate/internal/config"
)

// sourceRow is one legacy row, keyed by source column name. Values are
// stringified; the mapping layer parses numbers and timestamps back out.
type sourceRow struct {
	rowid int64
	vals  map[string]string
}

// sourceColumns returns the distinct source columns a mapping reads, in
// stable order.
func sourceColumns(s config.Source) []string {
	seen := map[string]bool{}
	var cols []string
	for _, col := range s.Columns {
		if !seen[col] {
			seen[col] = true
			cols = append(cols, col)
		}
	}
	sort.Strings(cols)
	return cols
}

// readBatch pages through a source table by rowid so arbitrarily large
// legacy tables never have to fit in memory.
func readBatch(ctx context.Context, db *sql.DB, table string, cols []string, after int64, limit int) ([]sourceRow, error) {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
	}

	q := fmt.Sprintf(`SELECT rowid, %s FROM "%s" WHERE rowid > ? ORDER BY rowid LIMIT ?;`,
		strings.Join(quoted, ", "), strings.ReplaceAll(table, `"`, `""`))

	rows, err := db.QueryContext(ctx, q, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []sourceRow
	for rows.Next() {
		raw := make([]any, len(cols)+1)
		ptrs := make([]any, len(cols)+1)
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		r := sourceRow{vals: make(map[string]string, len(cols))}
		rowid, ok := raw[0].(int64)
		if !ok {
			return nil, fmt.Errorf("table %s: rowid is not an integer", table)
		}
		r.rowid = rowid
		for i, c := range cols {
			r.vals[c] = stringify(raw[i+1])
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// stringify renders whatever a legacy column holds as text.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}

// fieldValues maps a source row onto canonical field names and fills
// defaults for anything blank.
func fieldValues(s config.Source, row sourceRow) map[string]string {
	out := make(map[string]string, len(s.Columns)+len(s.Defaults))
	for field, col := range s.Columns {
		out[field] = strings.TrimSpace(row.vals[col])
	}
	for field, def := range s.Defaults {
		if out[field] == "" {
			out[field] = def
		}
	}
	return out
}
