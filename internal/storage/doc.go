// Package storage persists formatted pivot tables into an embedded SQLite
// database file using the pure Go modernc.org/sqlite driver.
//
// A table is always replaced as a whole inside one transaction, so readers
// see either the previous table or the new one:
//
//	store, err := storage.Open(ctx, "african_cow.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	err = store.ReplaceTable(ctx, "pivot_table", formatted)
//
// The first column holds the pivot index and is covered by a secondary index
// named ix_<table>_<column>. Every other column is TEXT.
package storage
