// Package export renders a solved timetable into the exchange formats the
// school office actually consumes: a paginated per-class PDF and a flat CSV.
package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

// PDFExporter renders one page per class: days as columns, periods as rows.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

var dayNames = []string{"Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"}

// Render creates the timetable PDF for every class in the solution.
func (e *PDFExporter) Render(data *domain.SchoolData, sol *domain.Solution) ([]byte, error) {
	if data.Grid == nil {
		return nil, fmt.Errorf("pdf requires a time grid")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)

	days := data.Grid.Days
	labelWidth := 14.0
	colWidth := (277.0 - labelWidth) / float64(days)

	for ci := range data.Classes {
		cls := &data.Classes[ci]
		entries := sol.ForClass(cls.ID)
		byCell := map[domain.DayPeriod]domain.ScheduleEntry{}
		for _, en := range entries {
			byCell[domain.DayPeriod{Day: en.Day, Period: en.Period}] = en
		}

		pdf.AddPage()
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, fmt.Sprintf("Klasse %s", cls.Name), "", 1, "C", false, 0, "")
		pdf.Ln(3)

		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(labelWidth, 8, "", "1", 0, "C", false, 0, "")
		for d := 0; d < days; d++ {
			pdf.CellFormat(colWidth, 8, dayNames[d], "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 9)
		for period := 1; period <= data.Grid.PeriodsPerDay; period++ {
			pdf.SetFont("Arial", "B", 9)
			pdf.CellFormat(labelWidth, 10, fmt.Sprintf("%d.", period), "1", 0, "C", false, 0, "")
			pdf.SetFont("Arial", "", 9)
			for d := 0; d < days; d++ {
				text := ""
				if en, ok := byCell[domain.DayPeriod{Day: d, Period: period}]; ok {
					text = cellText(data, en)
				}
				pdf.CellFormat(colWidth, 10, text, "1", 0, "C", false, 0, "")
			}
			pdf.Ln(-1)
		}
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func cellText(data *domain.SchoolData, en domain.ScheduleEntry) string {
	short := en.Subject
	if subj := data.Subject(en.Subject); subj != nil && subj.Short != "" {
		short = subj.Short
	}
	out := fmt.Sprintf("%s %s", short, en.TeacherID)
	if en.RoomID != "" {
		out += " " + en.RoomID
	}
	return out
}
