package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// CSVWriter materializes export tables as <dir>/<name>.csv files.
type CSVWriter struct {
	Dir string
}

// NewCSVWriter returns a writer rooted at dir, creating it if needed.
func NewCSVWriter(dir string) (*CSVWriter, error) {
	if dir == "" {
		return nil, fmt.Errorf("export: csv output dir must not be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export: create dir %s: %w", dir, err)
	}
	return &CSVWriter{Dir: dir}, nil
}

// Write writes one table, header row first. An existing file is replaced:
// exports are whole-snapshot artifacts, never appended.
func (w *CSVWriter) Write(t Table) error {
	path := filepath.Join(w.Dir, t.Name+".csv")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("export: write header %s: %w", path, err)
	}

	row := make([]string, len(t.Columns))
	for _, r := range t.Rows {
		if len(r) != len(t.Columns) {
			return fmt.Errorf("export: %s: row has %d cells, want %d", t.Name, len(r), len(t.Columns))
		}
		for i, v := range r {
			row[i] = formatCell(v)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write row %s: %w", path, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush %s: %w", path, err)
	}
	return nil
}

// formatCell renders one cell value. Missing values stay empty, matching
// the parser's empty-to-nil convention on the way in.
func formatCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case time.Time:
		return t.Format("2006-01-02 15:04:05")
	default:
		return fmt.Sprint(t)
	}
}
