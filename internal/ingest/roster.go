package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sekundarstufe/stundenplan-core/internal/domain"
)

// rosterHeader is the expected column layout of a teacher roster CSV.
// Subjects are semicolon-separated within their cell.
var rosterHeader = []string{"id", "name", "subjects", "deputat_min", "deputat_max", "max_hours_per_day", "parttime"}

// ImportTeacherRoster parses a roster CSV into Teacher records. The header
// row is mandatory and must match rosterHeader exactly.
func ImportTeacherRoster(r io.Reader) ([]domain.Teacher, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read roster header: %w", err)
	}
	if len(header) != len(rosterHeader) {
		return nil, fmt.Errorf("roster header has %d columns, want %d", len(header), len(rosterHeader))
	}
	for i, want := range rosterHeader {
		if strings.TrimSpace(strings.ToLower(header[i])) != want {
			return nil, fmt.Errorf("roster column %d is %q, want %q", i+1, header[i], want)
		}
	}

	var teachers []domain.Teacher
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("roster line %d: %w", line, err)
		}

		depMin, err := strconv.Atoi(strings.TrimSpace(record[3]))
		if err != nil {
			return nil, fmt.Errorf("roster line %d: bad deputat_min %q", line, record[3])
		}
		depMax, err := strconv.Atoi(strings.TrimSpace(record[4]))
		if err != nil {
			return nil, fmt.Errorf("roster line %d: bad deputat_max %q", line, record[4])
		}
		maxPerDay, err := strconv.Atoi(strings.TrimSpace(record[5]))
		if err != nil {
			return nil, fmt.Errorf("roster line %d: bad max_hours_per_day %q", line, record[5])
		}
		parttime, err := strconv.ParseBool(strings.TrimSpace(record[6]))
		if err != nil {
			return nil, fmt.Errorf("roster line %d: bad parttime flag %q", line, record[6])
		}

		var subjects []string
		for _, s := range strings.Split(record[2], ";") {
			if s = strings.TrimSpace(s); s != "" {
				subjects = append(subjects, s)
			}
		}

		teachers = append(teachers, domain.Teacher{
			ID:             strings.ToUpper(strings.TrimSpace(record[0])),
			Name:           strings.TrimSpace(record[1]),
			Subjects:       subjects,
			DeputatMin:     depMin,
			DeputatMax:     depMax,
			MaxHoursPerDay: maxPerDay,
			IsPartTime:     parttime,
		})
	}
	return teachers, nil
}

// ExportTeacherRoster writes teachers back out in the roster CSV layout.
func ExportTeacherRoster(w io.Writer, teachers []domain.Teacher) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(rosterHeader); err != nil {
		return fmt.Errorf("write roster header: %w", err)
	}
	for _, t := range teachers {
		record := []string{
			t.ID,
			t.Name,
			strings.Join(t.Subjects, ";"),
			strconv.Itoa(t.DeputatMin),
			strconv.Itoa(t.DeputatMax),
			strconv.Itoa(t.MaxHoursPerDay),
			strconv.FormatBool(t.IsPartTime),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write roster row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
