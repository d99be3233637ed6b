package export

import (
	"fmt"
	"io"

	"github.com/shepherd-church/shepherd/internal/models"
	"github.com/shepherd-church/shepherd/internal/stats"
	"github.com/xuri/excelize/v2"
)

const dateLayout = "2006-01-02"

// Sheet names used by the generated workbooks
const (
	SheetDonations  = "Donations"
	SheetSummary    = "Summary"
	SheetAttendance = "Attendance"
)

// ContentTypeXLSX is the MIME type of the generated workbooks
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// sheetWriter wraps an excelize file with row-oriented helpers.
type sheetWriter struct {
	f           *excelize.File
	headerStyle int
}

func newWorkbook(first string) (*sheetWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	return &sheetWriter{f: f, headerStyle: style}, nil
}

func (w *sheetWriter) addSheet(name string) error {
	if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	return nil
}

// header writes a bold first row and freezes it.
func (w *sheetWriter) header(sheet string, headers []string, widths []float64) error {
	if err := w.row(sheet, 1, toValues(headers)...); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := w.f.SetCellStyle(sheet, "A1", last, w.headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := w.f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}
	return w.f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func (w *sheetWriter) row(sheet string, row int, values ...interface{}) error {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := w.f.SetCellValue(sheet, cell, value); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
	}
	return nil
}

func (w *sheetWriter) writeTo(out io.Writer) error {
	defer w.f.Close()
	if _, err := w.f.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func toValues(s []string) []interface{} {
	out := make([]interface{}, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// donorName hides the donor of anonymous gifts.
func donorName(d *models.Donation) string {
	if _, ok := d.AttributedTo(); !ok {
		return "Anonymous"
	}
	if d.Member == nil {
		return ""
	}
	return d.Member.FullName()
}

// WriteDonations writes a workbook with one row per donation and a summary
// sheet of per-type totals.
func WriteDonations(out io.Writer, donations []models.Donation, summary stats.BreakdownSummary) error {
	w, err := newWorkbook(SheetDonations)
	if err != nil {
		return err
	}

	if err := w.header(SheetDonations, []string{"Date", "Type", "Amount", "Donor", "Member Code", "Note"}, []float64{12, 12, 12, 24, 14, 40}); err != nil {
		w.f.Close()
		return err
	}
	for i := range donations {
		d := &donations[i]
		code := ""
		if _, ok := d.AttributedTo(); ok && d.Member != nil {
			code = d.Member.MemberCode
		}
		amount, _ := d.Amount.Float64()
		if err := w.row(SheetDonations, i+2,
			d.DonationDate.Format(dateLayout), string(d.Type), amount, donorName(d), code, d.Note,
		); err != nil {
			w.f.Close()
			return err
		}
	}

	if err := w.addSheet(SheetSummary); err != nil {
		w.f.Close()
		return err
	}
	if err := w.header(SheetSummary, []string{"Type", "Count", "Total"}, []float64{14, 10, 14}); err != nil {
		w.f.Close()
		return err
	}
	row := 2
	for _, t := range summary.ByType {
		total, _ := t.Total.Float64()
		if err := w.row(SheetSummary, row, string(t.Type), t.Count, total); err != nil {
			w.f.Close()
			return err
		}
		row++
	}
	total, _ := summary.Total.Float64()
	average, _ := summary.Average.Float64()
	if err := w.row(SheetSummary, row, "Total", summary.Count, total); err != nil {
		w.f.Close()
		return err
	}
	if err := w.row(SheetSummary, row+1, "Average", "", average); err != nil {
		w.f.Close()
		return err
	}
	if err := w.row(SheetSummary, row+3, "Period",
		summary.Start.Format(dateLayout)+" to "+summary.End.Format(dateLayout)); err != nil {
		w.f.Close()
		return err
	}

	return w.writeTo(out)
}

// WriteAttendance writes a workbook with one row per check-in.
func WriteAttendance(out io.Writer, records []models.Attendance) error {
	w, err := newWorkbook(SheetAttendance)
	if err != nil {
		return err
	}

	if err := w.header(SheetAttendance, []string{"Event", "Event Date", "Name", "Member Code", "Method", "Recorded At"}, []float64{30, 12, 24, 14, 10, 20}); err != nil {
		w.f.Close()
		return err
	}
	for i := range records {
		a := &records[i]
		var eventTitle, eventDate string
		if a.Event != nil {
			eventTitle = a.Event.Title
			eventDate = a.Event.StartsAt.Format(dateLayout)
		}
		name := a.VisitorFirstName + " " + a.VisitorLastName
		code := ""
		if a.Member != nil {
			name = a.Member.FullName()
			code = a.Member.MemberCode
		}
		if err := w.row(SheetAttendance, i+2,
			eventTitle, eventDate, name, code, string(a.Method), a.RecordedAt.Format("2006-01-02 15:04"),
		); err != nil {
			w.f.Close()
			return err
		}
	}

	return w.writeTo(out)
}
