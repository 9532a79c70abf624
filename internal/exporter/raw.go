package exporter

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"depositbeta/pkg/contracts/domain"
)

// WriteRawFiling writes one per-period filing file in the layout the readers
// expect: Date, Cert, Field, Value. Records are written as given.
func WriteRawFiling(path string, period domain.Period, records []domain.RawRecord) error {
	err := writeAtomic(path, func(cw *csv.Writer) error {
		if err := cw.Write([]string{"Date", "Cert", "Field", "Value"}); err != nil {
			return err
		}
		for _, r := range records {
			row := []string{
				string(period),
				strconv.Itoa(r.Cert),
				r.Field,
				strconv.FormatFloat(r.Value, 'f', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write filing %s: %w", path, err)
	}
	return nil
}

// WriteRateSeries writes the macro rate series with a date column and one
// column per series. Null observations are written as empty cells.
func WriteRateSeries(path string, rs *domain.RateSeries) error {
	err := writeAtomic(path, func(cw *csv.Writer) error {
		header := append([]string{"date"}, rs.Names...)
		if err := cw.Write(header); err != nil {
			return err
		}
		row := make([]string, len(header))
		for _, point := range rs.Points {
			row[0] = point.Date.Format(panelDateFormat)
			for i, name := range rs.Names {
				row[i+1] = point.Values[name].CSV()
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write rate series %s: %w", path, err)
	}
	return nil
}
