package exporter

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"depositbeta/pkg/contracts/domain"
)

var rankHeader = []string{"Cert", "Best_Asset_Rank", "Asset_Value", "Period", "Institution_Name"}

// WriteRankReference persists best-ever asset ranks, sorted by certificate
// number so diffs between refreshes stay readable.
func WriteRankReference(path string, entries []domain.RankEntry, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	sorted := append([]domain.RankEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Cert < sorted[j].Cert })

	err := writeAtomic(path, func(cw *csv.Writer) error {
		if err := cw.Write(rankHeader); err != nil {
			return err
		}
		for _, e := range sorted {
			row := []string{
				strconv.Itoa(e.Cert),
				strconv.Itoa(e.BestRank),
				strconv.FormatFloat(e.AssetValue, 'f', -1, 64),
				string(e.Period),
				e.Name,
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write rank reference %s: %w", path, err)
	}

	logger.Info("rank reference written",
		slog.String("path", path),
		slog.Int("institutions", len(sorted)))
	return nil
}
