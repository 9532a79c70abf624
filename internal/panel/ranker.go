package panel

import (
	"sort"

	"depositbeta/internal/config"
	"depositbeta/pkg/contracts/domain"
)

// BestAssetRanks folds the full filing history into one RankEntry per
// institution. For every period independently, institutions are ranked by
// total assets descending with competition ("min") ranking: equal asset
// values share the same, lowest, rank and the next distinct value gets
// 1 + the count of institutions strictly above it. Each institution keeps
// the minimum rank it ever achieved, with the asset value and period where
// that happened. The best-ever rank, not the most recent one, decides
// whether a bank deserves individual treatment for the whole panel history.
func BestAssetRanks(records []domain.RawRecord) []domain.RankEntry {
	// period -> cert -> summed asset value
	assetsByPeriod := make(map[domain.Period]map[int]float64)
	for _, rec := range records {
		if rec.Field != config.AssetField {
			continue
		}
		certs, ok := assetsByPeriod[rec.Period]
		if !ok {
			certs = make(map[int]float64)
			assetsByPeriod[rec.Period] = certs
		}
		certs[rec.Cert] += rec.Value
	}

	periods := make([]domain.Period, 0, len(assetsByPeriod))
	for p := range assetsByPeriod {
		periods = append(periods, p)
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i] < periods[j] })

	best := make(map[int]domain.RankEntry)
	for _, period := range periods {
		for cert, rank := range competitionRanks(assetsByPeriod[period]) {
			entry, seen := best[cert]
			if !seen || rank < entry.BestRank {
				best[cert] = domain.RankEntry{
					Cert:       cert,
					BestRank:   rank,
					AssetValue: assetsByPeriod[period][cert],
					Period:     period,
				}
			}
		}
	}

	entries := make([]domain.RankEntry, 0, len(best))
	for _, entry := range best {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Cert < entries[j].Cert })
	return entries
}

// competitionRanks assigns standard competition ranks (1 = largest value;
// ties share a rank, the following rank number is skipped).
func competitionRanks(values map[int]float64) map[int]int {
	certs := make([]int, 0, len(values))
	for cert := range values {
		certs = append(certs, cert)
	}
	sort.Slice(certs, func(i, j int) bool {
		if values[certs[i]] != values[certs[j]] {
			return values[certs[i]] > values[certs[j]]
		}
		return certs[i] < certs[j]
	})

	ranks := make(map[int]int, len(certs))
	for i, cert := range certs {
		if i > 0 && values[cert] == values[certs[i-1]] {
			ranks[cert] = ranks[certs[i-1]]
		} else {
			ranks[cert] = i + 1
		}
	}
	return ranks
}

// RankedCerts returns the set of certificates whose best rank is at or above
// the threshold. Institutions absent from the entries are tail by
// definition.
func RankedCerts(entries []domain.RankEntry, threshold int) map[int]bool {
	ranked := make(map[int]bool)
	for _, e := range entries {
		if e.BestRank <= threshold {
			ranked[e.Cert] = true
		}
	}
	return ranked
}
