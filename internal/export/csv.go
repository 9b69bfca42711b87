package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

// CSVExporter renders a solution's entries into a flat CSV, one row per
// placed lesson, in the solution's stable (day, period, class) order.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

var csvHeader = []string{"day", "period", "class_id", "subject", "teacher_id", "room_id", "is_double", "coupling_id"}

// Render produces CSV encoded bytes for the solution.
func (e *CSVExporter) Render(sol *domain.Solution) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, en := range sol.Entries {
		record := []string{
			strconv.Itoa(en.Day),
			strconv.Itoa(en.Period),
			en.ClassID,
			en.Subject,
			en.TeacherID,
			en.RoomID,
			strconv.FormatBool(en.IsDouble),
			en.CouplingID,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
