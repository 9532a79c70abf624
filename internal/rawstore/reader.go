package rawstore

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"depositbeta/pkg/contracts/domain"
)

// ErrSchemaMismatch marks an input table missing an expected column. It is
// fatal: the pipeline aborts before any stage runs.
var ErrSchemaMismatch = errors.New("schema mismatch")

// LoadRawRecords discovers and reads every filing file in dir at or after
// startYear and returns the combined raw record set, periods ascending.
func LoadRawRecords(ctx context.Context, dir string, startYear int) ([]domain.RawRecord, error) {
	files, err := DiscoverFilings(dir, startYear)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no filing files found in %s", dir)
	}

	logger := slog.Default()
	start := time.Now()

	var records []domain.RawRecord
	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fileRecords, err := ReadFiling(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read filing %s: %w", file.Name, err)
		}
		records = append(records, fileRecords...)

		if (i+1)%15 == 0 || i+1 == len(files) {
			elapsed := time.Since(start)
			remaining := time.Duration(float64(elapsed) / float64(i+1) * float64(len(files)-i-1))
			logger.InfoContext(ctx, "loading filing files",
				slog.Int("processed", i+1),
				slog.Int("total", len(files)),
				slog.Duration("elapsed", elapsed.Round(time.Millisecond)),
				slog.Duration("estimated_remaining", remaining.Round(time.Millisecond)))
		}
	}
	return records, nil
}

// ReadFiling reads one per-period filing file, CSV or Excel.
func ReadFiling(file FilingFile) ([]domain.RawRecord, error) {
	switch strings.ToLower(filepath.Ext(file.Name)) {
	case ".xlsx":
		return readFilingXLSX(file)
	default:
		return readFilingCSV(file)
	}
}

// filingColumns locates the required Cert/Field/Value columns in a header
// row. Extra columns (the fetcher also writes Date) are ignored.
func filingColumns(header []string) (certIdx, fieldIdx, valueIdx int, err error) {
	certIdx, fieldIdx, valueIdx = -1, -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case "Cert":
			certIdx = i
		case "Field":
			fieldIdx = i
		case "Value":
			valueIdx = i
		}
	}
	if certIdx < 0 || fieldIdx < 0 || valueIdx < 0 {
		return 0, 0, 0, fmt.Errorf("%w: filing needs Cert, Field, Value columns, got %v",
			ErrSchemaMismatch, header)
	}
	return certIdx, fieldIdx, valueIdx, nil
}

func readFilingCSV(file FilingFile) ([]domain.RawRecord, error) {
	f, err := os.Open(file.Path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	certIdx, fieldIdx, valueIdx, err := filingColumns(header)
	if err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		rec, ok := filingRecord(file.Period, row, certIdx, fieldIdx, valueIdx)
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

func readFilingXLSX(file FilingFile) ([]domain.RawRecord, error) {
	f, err := excelize.OpenFile(file.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrSchemaMismatch)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: workbook sheet %s is empty", ErrSchemaMismatch, sheets[0])
	}

	certIdx, fieldIdx, valueIdx, err := filingColumns(rows[0])
	if err != nil {
		return nil, err
	}

	var records []domain.RawRecord
	for _, row := range rows[1:] {
		rec, ok := filingRecord(file.Period, row, certIdx, fieldIdx, valueIdx)
		if ok {
			records = append(records, rec)
		}
	}
	return records, nil
}

// filingRecord parses one data row. A missing or unparseable value cell
// means the field was absent for that institution, not zero: the row is
// dropped and aggregation-time summation treats it as no observation.
func filingRecord(period domain.Period, row []string, certIdx, fieldIdx, valueIdx int) (domain.RawRecord, bool) {
	if certIdx >= len(row) || fieldIdx >= len(row) || valueIdx >= len(row) {
		return domain.RawRecord{}, false
	}
	cert, err := strconv.Atoi(strings.TrimSpace(row[certIdx]))
	if err != nil {
		return domain.RawRecord{}, false
	}
	field := strings.TrimSpace(row[fieldIdx])
	if field == "" {
		return domain.RawRecord{}, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(row[valueIdx]), 64)
	if err != nil {
		return domain.RawRecord{}, false
	}
	return domain.RawRecord{Period: period, Cert: cert, Field: field, Value: value}, true
}

// LoadRankReference reads the rank reference table. An institution absent
// from the table is treated as tail by the pipeline.
func LoadRankReference(path string) ([]domain.RankEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rank reference: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read rank reference header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	certIdx, okCert := idx["Cert"]
	rankIdx, okRank := idx["Best_Asset_Rank"]
	if !okCert || !okRank {
		return nil, fmt.Errorf("%w: rank reference needs Cert and Best_Asset_Rank columns, got %v",
			ErrSchemaMismatch, header)
	}

	cell := func(row []string, i int, ok bool) string {
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	assetIdx, okAsset := idx["Asset_Value"]
	periodIdx, okPeriod := idx["Period"]
	nameIdx, okName := idx["Institution_Name"]

	var entries []domain.RankEntry
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rank reference row: %w", err)
		}
		cert, err := strconv.Atoi(cell(row, certIdx, true))
		if err != nil {
			continue
		}
		// Ranks arrive as pandas-style floats ("12.0") from older
		// reference files; parse through float.
		rankF, err := strconv.ParseFloat(cell(row, rankIdx, true), 64)
		if err != nil {
			continue
		}
		entry := domain.RankEntry{Cert: cert, BestRank: int(rankF)}
		if v, err := strconv.ParseFloat(cell(row, assetIdx, okAsset), 64); err == nil {
			entry.AssetValue = v
		}
		if p, err := domain.ParsePeriod(cell(row, periodIdx, okPeriod)); err == nil {
			entry.Period = p
		}
		entry.Name = cell(row, nameIdx, okName)
		entries = append(entries, entry)
	}
	return entries, nil
}

// LoadRateSeries reads the macro rate CSV: the first column is the calendar
// date, every other column a named rate series in percentage units. Empty
// cells are nulls. Every expected series must be present.
func LoadRateSeries(path string, expected []string) (*domain.RateSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate series: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read rate series header: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: rate series needs a date column plus series columns", ErrSchemaMismatch)
	}

	names := make([]string, 0, len(header)-1)
	for _, h := range header[1:] {
		names = append(names, strings.TrimSpace(h))
	}
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	for _, want := range expected {
		if !present[want] {
			return nil, fmt.Errorf("%w: rate series missing column %s", ErrSchemaMismatch, want)
		}
	}

	rs := &domain.RateSeries{Names: names}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rate series row: %w", err)
		}
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("invalid rate series date %q: %w", row[0], err)
		}
		point := domain.RatePoint{Date: date, Values: make(map[string]domain.Value, len(names))}
		for i, name := range names {
			cellValue := ""
			if i+1 < len(row) {
				cellValue = strings.TrimSpace(row[i+1])
			}
			if cellValue == "" {
				point.Values[name] = domain.Null()
				continue
			}
			v, err := strconv.ParseFloat(cellValue, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid rate value %q for %s: %w", cellValue, name, err)
			}
			point.Values[name] = domain.Num(v)
		}
		rs.Points = append(rs.Points, point)
	}
	return rs, nil
}
