package repositories

import (
	"database/sql"
	"fmt"
)

// CountRows returns the number of rows in table.
//
// Table names come from this package only and are never user input.
func CountRows(db *sql.DB, table string) (int, error) {
	var n int
	if err := db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", table, err)
	}
	return n, nil
}
