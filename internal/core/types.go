package core

import "time"

// Placeholder values used when no configured workbook yields usable data.
// The validity gate in the pipeline treats a snapshot made only of these as
// not-real, so it can never displace real cached data.
const (
	DefaultSheetName    = "Default"
	PlaceholderTaskName = "Sample Task"
	placeholderDetails  = "No data available\nPlease check your workbook files"
)

// EntryMetadata locates a task entry in its source workbook and carries the
// raw cell values the row was parsed from. Clients echo file_path, sheet_name,
// row_index and task_name back on save so the edit can be validated against
// the current file state.
type EntryMetadata struct {
	SourcePath string         `json:"file_path"`
	SheetName  string         `json:"sheet_name"`
	RowIndex   int            `json:"row_index"`
	Columns    []string       `json:"columns"`
	RawValues  map[string]any `json:"raw_values"`
	TaskName   string         `json:"task_name"`
}

// TaskEntry is one parsed workbook row. Metadata is nil only for the
// synthetic placeholder entry.
type TaskEntry struct {
	TaskName string         `json:"task_name"`
	Details  string         `json:"details"`
	Metadata *EntryMetadata `json:"metadata"`
}

// Snapshot is one complete, consistent parse of all configured workbooks.
// Sheets maps sheet name to task name to the ordered entries sharing that
// task name; rows are never merged.
type Snapshot struct {
	Sheets      map[string]map[string][]TaskEntry `json:"all_sheets_data"`
	SheetNames  []string                          `json:"sheet_names"`
	LastUpdated time.Time                         `json:"last_updated"`
}

// placeholderSnapshot is what the pipeline produces when nothing parsed.
func placeholderSnapshot() *Snapshot {
	return &Snapshot{
		Sheets: map[string]map[string][]TaskEntry{
			DefaultSheetName: {
				PlaceholderTaskName: []TaskEntry{{
					TaskName: PlaceholderTaskName,
					Details:  placeholderDetails,
				}},
			},
		},
		SheetNames:  []string{DefaultSheetName},
		LastUpdated: time.Now(),
	}
}

// isReal reports whether a snapshot contains at least one task that is not
// the synthetic placeholder.
func isReal(s *Snapshot) bool {
	if s == nil {
		return false
	}
	for sheet, tasks := range s.Sheets {
		if sheet == DefaultSheetName {
			continue
		}
		for task := range tasks {
			if task != PlaceholderTaskName {
				return true
			}
		}
	}
	return false
}
