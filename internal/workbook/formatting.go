package workbook

import (
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Formatting is the visual state captured from a workbook before a rewrite:
// column widths, the number format of each column's first data row, sheet tab
// colors and sheet view settings. Reapplying it makes the rewritten file look
// like the original beyond the edited cell.
type Formatting struct {
	ColWidths map[string]map[string]float64
	NumFmts   map[string]map[string]numberFormat
	TabColors map[string]string
	Views     map[string]excelize.ViewOptions
}

type numberFormat struct {
	ID     int
	Custom *string
}

// CaptureFormatting reads the workbook at path (through the shared-access
// reader) and records its per-sheet formatting. Failures on individual sheets
// are skipped; the save path treats formatting as best effort.
func CaptureFormatting(path string) (*Formatting, error) {
	f, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fm := &Formatting{
		ColWidths: make(map[string]map[string]float64),
		NumFmts:   make(map[string]map[string]numberFormat),
		TabColors: make(map[string]string),
		Views:     make(map[string]excelize.ViewOptions),
	}

	for _, sheet := range f.SheetNames() {
		rows, err := f.x.GetRows(sheet)
		if err != nil {
			continue
		}
		width := 0
		for _, row := range rows {
			if len(row) > width {
				width = len(row)
			}
		}

		widths := make(map[string]float64)
		formats := make(map[string]numberFormat)
		for col := 1; col <= width; col++ {
			name, err := excelize.ColumnNumberToName(col)
			if err != nil {
				continue
			}
			if w, err := f.x.GetColWidth(sheet, name); err == nil {
				widths[name] = w
			}

			// Sample the first data row's format and apply it uniformly.
			if len(rows) < 2 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(col, 2)
			if err != nil {
				continue
			}
			styleID, err := f.x.GetCellStyle(sheet, cell)
			if err != nil || styleID == 0 {
				continue
			}
			style, err := f.x.GetStyle(styleID)
			if err != nil || style == nil {
				continue
			}
			if style.NumFmt != 0 || style.CustomNumFmt != nil {
				formats[name] = numberFormat{ID: style.NumFmt, Custom: style.CustomNumFmt}
			}
		}
		fm.ColWidths[sheet] = widths
		fm.NumFmts[sheet] = formats

		if props, err := f.x.GetSheetProps(sheet); err == nil && props.TabColorRGB != nil {
			fm.TabColors[sheet] = *props.TabColorRGB
		}
		if view, err := f.x.GetSheetView(sheet, 0); err == nil {
			fm.Views[sheet] = view
		}
	}

	return fm, nil
}

// apply restores the captured formatting onto a freshly built workbook.
// rowCounts maps sheet name to data row count so number formats can cover
// every data row.
func (fm *Formatting) apply(x *excelize.File, rowCounts map[string]int) {
	if fm == nil {
		return
	}
	for _, sheet := range x.GetSheetList() {
		for col, w := range fm.ColWidths[sheet] {
			_ = x.SetColWidth(sheet, col, col, w)
		}

		lastRow := rowCounts[sheet] + 1
		for col, nf := range fm.NumFmts[sheet] {
			if lastRow < 2 {
				break
			}
			styleID, err := x.NewStyle(&excelize.Style{NumFmt: nf.ID, CustomNumFmt: nf.Custom})
			if err != nil {
				continue
			}
			top := col + "2"
			bottom := col + strconv.Itoa(lastRow)
			_ = x.SetCellStyle(sheet, top, bottom, styleID)
		}

		if rgb, ok := fm.TabColors[sheet]; ok {
			color := rgb
			_ = x.SetSheetProps(sheet, &excelize.SheetPropsOptions{TabColorRGB: &color})
		}
		if view, ok := fm.Views[sheet]; ok {
			_ = x.SetSheetView(sheet, 0, &view)
		}
	}
}

// isDateFormat reports whether a style renders serial numbers as dates or
// times. Covers the built-in date/time format IDs plus custom formats built
// from date tokens.
func isDateFormat(style *excelize.Style) bool {
	id := style.NumFmt
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}

	if style.CustomNumFmt == nil {
		return false
	}
	custom := strings.ToLower(*style.CustomNumFmt)
	// Strip color/condition sections and quoted literals before token checks.
	for {
		start := strings.IndexByte(custom, '[')
		end := strings.IndexByte(custom, ']')
		if start == -1 || end == -1 || end < start {
			break
		}
		custom = custom[:start] + custom[end+1:]
	}
	if strings.ContainsAny(custom, "#?") || strings.Contains(custom, "0.") {
		return false
	}
	return strings.ContainsAny(custom, "ymdhs")
}
