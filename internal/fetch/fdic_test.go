package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"depositbeta/internal/config"
	"depositbeta/pkg/contracts/domain"
)

func fetchConfig(baseURL string) config.FetchConfig {
	cfg := config.Default().Fetch
	cfg.FDICBaseURL = baseURL
	cfg.FREDBaseURL = baseURL
	cfg.RPS = 1000
	cfg.Burst = 1000
	return cfg
}

func TestReportDates(t *testing.T) {
	now := time.Date(2023, 8, 1, 0, 0, 0, 0, time.UTC)
	periods := ReportDates(2022, now)

	// 2022 full year plus the two completed 2023 quarters.
	require.Len(t, periods, 6)
	assert.Equal(t, domain.Period("20220331"), periods[0])
	assert.Equal(t, domain.Period("20230630"), periods[5])
}

func TestFDICFetchPeriod(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.URL.Query().Get("fields"))
		assert.Equal(t, "REPDTE:20230331", r.URL.Query().Get("filters"))

		fields := r.URL.Query().Get("fields")
		item := map[string]any{"CERT": 14}
		if fields == "CERT,ASSET,EDEPDOM" {
			item["ASSET"] = 1234.5
			item["EDEPDOM"] = "40" // numbers sometimes arrive as strings
		} else {
			item["DEPDOM"] = 1000
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"data": item}},
			"meta": map[string]any{"total": 1},
		})
	}))
	defer server.Close()

	cfg := fetchConfig(server.URL)
	cfg.BatchSize = 2
	client := NewFDICClient(cfg, nil)

	records, err := client.FetchPeriod(context.Background(), "20230331",
		[]string{"ASSET", "EDEPDOM", "DEPDOM"})
	require.NoError(t, err)

	// Two field batches, one request each.
	assert.Equal(t, []string{"CERT,ASSET,EDEPDOM", "CERT,DEPDOM"}, requests)

	require.Len(t, records, 3)
	assert.Equal(t, domain.RawRecord{Period: "20230331", Cert: 14, Field: "ASSET", Value: 1234.5}, records[0])
	assert.Equal(t, domain.RawRecord{Period: "20230331", Cert: 14, Field: "EDEPDOM", Value: 40}, records[1])
	assert.Equal(t, domain.RawRecord{Period: "20230331", Cert: 14, Field: "DEPDOM", Value: 1000}, records[2])
}

func TestFDICFetchPeriodPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		cert := 100 + offset/fdicPageLimit
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"data": map[string]any{"CERT": cert, "ASSET": 1}}},
			"meta": map[string]any{"total": 2 * fdicPageLimit},
		})
	}))
	defer server.Close()

	client := NewFDICClient(fetchConfig(server.URL), nil)
	records, err := client.FetchPeriod(context.Background(), "20230331", []string{"ASSET"})
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, 100, records[0].Cert)
	assert.Equal(t, 101, records[1].Cert)
}

func TestFDICFetchPeriodServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broken", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewFDICClient(fetchConfig(server.URL), nil)
	_, err := client.FetchPeriod(context.Background(), "20230331", []string{"ASSET"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestFDICAnnotateNames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		period := r.URL.Query().Get("filters")
		name := "First National"
		if period == "REPDTE:20230331" {
			name = "First National Rebranded"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"data": map[string]any{"CERT": 14, "NAME": name}}},
			"meta": map[string]any{"total": 1},
		})
	}))
	defer server.Close()

	client := NewFDICClient(fetchConfig(server.URL), nil)
	entries := []domain.RankEntry{{Cert: 14, BestRank: 1}, {Cert: 999, BestRank: 2}}
	periods := []domain.Period{"20220331", "20220630", "20220930", "20221231", "20230331"}

	require.NoError(t, client.AnnotateNames(context.Background(), entries, periods))

	// Latest sampled period wins; unknown certs keep an empty name.
	assert.Equal(t, "First National Rebranded", entries[0].Name)
	assert.Empty(t, entries[1].Name)
}
