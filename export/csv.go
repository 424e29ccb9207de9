package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dealsweep/models"
)

// header matches the exported row layout exactly.
var header = []string{"Street", "City", "State", "Zip", "PhoneNumber", "FirstName", "LastName"}

// BuildCSV serializes rows with every field quoted, embedded quotes
// doubled and CRLF separators. The downstream consumers of these files
// expect that exact shape, so the stricter stdlib writer is not used here.
func BuildCSV(rows []models.OutputRow) string {
	var b strings.Builder

	writeLine := func(fields []string) {
		for i, f := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(f, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteString("\r\n")
	}

	writeLine(header)
	for _, row := range rows {
		writeLine([]string{
			row.Street, row.City, row.State, row.Zip,
			row.Phone, row.FirstName, row.LastName,
		})
	}
	return b.String()
}

// Filename encodes the run date, row count and a partial marker for runs
// stopped before natural completion.
func Filename(when time.Time, count int, partial bool) string {
	suffix := ""
	if partial {
		suffix = "_PARTIAL"
	}
	return fmt.Sprintf("dealmachine_wireless_%s_%d%s.csv", when.Format("2006-01-02"), count, suffix)
}

// WriteFile writes the export into dir and returns the full path.
func WriteFile(dir string, rows []models.OutputRow, when time.Time, partial bool) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, Filename(when, len(rows), partial))
	if err := os.WriteFile(path, []byte(BuildCSV(rows)), 0644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return path, nil
}
