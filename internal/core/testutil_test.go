package core

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook writes a workbook to path with the given sheets in order.
// Each sheet's first row is its header.
func writeWorkbook(t *testing.T, path string, order []string, sheets map[string][][]any) {
	t.Helper()
	require.NotEmpty(t, order)

	x := excelize.NewFile()
	for i, name := range order {
		if i == 0 {
			require.NoError(t, x.SetSheetName("Sheet1", name))
		} else {
			_, err := x.NewSheet(name)
			require.NoError(t, err)
		}
		for r, rowVals := range sheets[name] {
			anchor, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			vals := rowVals
			require.NoError(t, x.SetSheetRow(name, anchor, &vals))
		}
	}
	require.NoError(t, x.SaveAs(path))
	require.NoError(t, x.Close())
}

// planWorkbook writes a simple two-task "Plan" sheet used across tests.
func planWorkbook(t *testing.T, path string) {
	t.Helper()
	writeWorkbook(t, path, []string{"Plan"}, map[string][][]any{
		"Plan": {
			{"Task", "Owner", "Status"},
			{"Build", "Alice", "open"},
			{"Ship", "Bob", "blocked"},
		},
	})
}
