package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"depositbeta/pkg/contracts/domain"
)

// Panel artifact layout: a date column, an institution column, then the panel
// columns in build order. Dates are calendar dates, the institution cell is
// either a certificate number or the small-bank aggregate label.
const (
	panelDateColumn = "date"
	panelCertColumn = "cert"
	panelDateFormat = "2006-01-02"
)

// PanelWriter persists finished panels.
type PanelWriter struct {
	logger *slog.Logger
}

func NewPanelWriter(logger *slog.Logger) *PanelWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &PanelWriter{logger: logger}
}

// Write sorts the panel by institution then period and writes it to path
// atomically. Real certificate numbers sort numerically ascending with the
// small-bank aggregate last.
func (w *PanelWriter) Write(path string, p *domain.Panel) error {
	sort.SliceStable(p.Rows, func(i, j int) bool {
		a, b := p.Rows[i], p.Rows[j]
		if a.ID != b.ID {
			return a.ID.Less(b.ID)
		}
		return a.Period < b.Period
	})

	header := append([]string{panelDateColumn, panelCertColumn}, p.Columns...)

	err := writeAtomic(path, func(cw *csv.Writer) error {
		if err := cw.Write(header); err != nil {
			return err
		}
		row := make([]string, len(header))
		for _, r := range p.Rows {
			row[0] = r.Period.Time().Format(panelDateFormat)
			row[1] = r.ID.String()
			for i, col := range p.Columns {
				row[i+2] = r.Get(col).CSV()
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write panel %s: %w", path, err)
	}

	w.logger.Info("panel written",
		slog.String("path", path),
		slog.Int("rows", len(p.Rows)),
		slog.Int("columns", len(header)))
	return nil
}

// LoadPanel reads a persisted panel back into memory, for serving and for
// fitting models against it.
func LoadPanel(path string) (*domain.Panel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open panel: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read panel header: %w", err)
	}
	if len(header) < 2 || header[0] != panelDateColumn || header[1] != panelCertColumn {
		return nil, fmt.Errorf("unexpected panel header %v", header)
	}

	p := &domain.Panel{Columns: append([]string(nil), header[2:]...)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read panel row: %w", err)
		}
		date, err := time.Parse(panelDateFormat, row[0])
		if err != nil {
			return nil, fmt.Errorf("invalid panel date %q: %w", row[0], err)
		}
		id, err := domain.ParseInstitutionID(row[1])
		if err != nil {
			return nil, fmt.Errorf("invalid institution %q: %w", row[1], err)
		}
		pr := domain.NewPanelRow(domain.Period(date.Format("20060102")), id)
		for i, col := range p.Columns {
			v, err := domain.ParseValue(row[i+2])
			if err != nil {
				return nil, fmt.Errorf("invalid cell %s at %s/%s: %w", row[i+2], row[0], row[1], err)
			}
			pr.Set(col, v)
		}
		p.Rows = append(p.Rows, pr)
	}
	return p, nil
}

// writeAtomic writes CSV content to a temp file in the target directory and
// renames it into place once flushed.
func writeAtomic(path string, fill func(*csv.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		tmp.Close()
		os.Remove(tmp.Name())
	}()

	cw := csv.NewWriter(tmp)
	if err := fill(cw); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
