// Package files provides the file operations shared by the pipeline stages.
//
// Every artifact of a run (raw export, pivot workbook) is written with
// Manager.WriteAtomic: a failing stage leaves the previous run's file in
// place rather than a truncated one.
//
// Example usage:
//
//	manager := files.NewManager("", logger)
//	if err := manager.WriteAtomic("pivot_table.xlsx", data); err != nil {
//	    return err
//	}
package files
