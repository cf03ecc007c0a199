package migrate

import "fmt"

// RowError is a single record that failed normalization or insert. It is
// recovered locally: logged, counted, and the table's migration goes on.
type RowError struct {
	Entity      string `json:"entity"`
	SourceDB    string `json:"source_db"`
	SourceTable string `json:"source_table"`
	RowID       int64  `json:"row_id"`
	Reason      string `json:"reason"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s %s.%s rowid=%d: %s", e.Entity, e.SourceDB, e.SourceTable, e.RowID, e.Reason)
}

// TableError marks a whole (source db, table) migration as failed and
// rolled back. The run continues with the next table.
type TableError struct {
	SourceDB    string `json:"source_db"`
	SourceTable string `json:"source_table"`
	Reason      string `json:"reason"`
}

func (e TableError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.SourceDB, e.SourceTable, e.Reason)
}
