package rawstore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"depositbeta/pkg/contracts/domain"
)

// FilingFile is one discovered per-period filing file. The period comes from
// the file name, YYYYMMDD plus extension.
type FilingFile struct {
	Path   string
	Name   string
	Period domain.Period
}

// DiscoverFilings lists the filing files in dir whose period year is at or
// after startYear, sorted ascending by period so downstream grouping sees
// periods pre-sorted. Files that are not named for a valid period are
// skipped.
func DiscoverFilings(dir string, startYear int) ([]FilingFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read filings directory %s: %w", dir, err)
	}

	var files []FilingFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".csv" && ext != ".xlsx" {
			continue
		}
		period, err := domain.ParsePeriod(strings.TrimSuffix(name, filepath.Ext(name)))
		if err != nil {
			continue
		}
		if period.Year() < startYear {
			continue
		}
		files = append(files, FilingFile{
			Path:   filepath.Join(dir, name),
			Name:   name,
			Period: period,
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Period < files[j].Period })
	return files, nil
}
