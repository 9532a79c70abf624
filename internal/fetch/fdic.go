package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"depositbeta/internal/config"
	"depositbeta/pkg/contracts/domain"
)

// fdicPageLimit is the maximum rows the FDIC API returns per request.
const fdicPageLimit = 10000

// FDICClient pulls quarterly financial filings from the FDIC BankFind API.
type FDICClient struct {
	baseURL   string
	client    *http.Client
	limiter   *rate.Limiter
	batchSize int
	logger    *slog.Logger
}

// NewFDICClient creates a client from the fetch configuration.
func NewFDICClient(cfg config.FetchConfig, logger *slog.Logger) *FDICClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &FDICClient{
		baseURL:   cfg.FDICBaseURL,
		client:    &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		batchSize: cfg.BatchSize,
		logger:    logger,
	}
}

// ReportDates returns every quarter-end reporting date from startYear up to
// the last completed quarter, oldest first.
func ReportDates(startYear int, now time.Time) []domain.Period {
	var periods []domain.Period
	for year := startYear; year <= now.Year(); year++ {
		for _, md := range [...]string{"0331", "0630", "0930", "1231"} {
			p := domain.Period(fmt.Sprintf("%d%s", year, md))
			if !p.Time().Before(now) {
				continue
			}
			periods = append(periods, p)
		}
	}
	return periods
}

// fdicResponse mirrors the BankFind financials payload.
type fdicResponse struct {
	Data []struct {
		Data map[string]json.RawMessage `json:"data"`
	} `json:"data"`
	Meta struct {
		Total int `json:"total"`
	} `json:"meta"`
}

// FetchPeriod downloads every requested field for one reporting period and
// returns the flattened records. Fields are requested in batches so URLs
// stay under the API's length limit, and each batch pages through the full
// institution set.
func (c *FDICClient) FetchPeriod(ctx context.Context, period domain.Period, fields []string) ([]domain.RawRecord, error) {
	var records []domain.RawRecord
	for start := 0; start < len(fields); start += c.batchSize {
		end := start + c.batchSize
		if end > len(fields) {
			end = len(fields)
		}
		batch := fields[start:end]

		batchRecords, err := c.fetchBatch(ctx, period, batch)
		if err != nil {
			return nil, fmt.Errorf("period %s fields %s..%s: %w", period, batch[0], batch[len(batch)-1], err)
		}
		records = append(records, batchRecords...)
	}

	c.logger.InfoContext(ctx, "period fetched",
		slog.String("period", string(period)),
		slog.Int("records", len(records)))
	return records, nil
}

func (c *FDICClient) fetchBatch(ctx context.Context, period domain.Period, fields []string) ([]domain.RawRecord, error) {
	var records []domain.RawRecord
	offset := 0
	for {
		page, err := c.fetchPage(ctx, period, fields, offset)
		if err != nil {
			return nil, err
		}

		for _, item := range page.Data {
			cert, ok := parseCert(item.Data["CERT"])
			if !ok {
				continue
			}
			for _, field := range fields {
				raw, ok := item.Data[field]
				if !ok {
					continue
				}
				value, ok := parseNumber(raw)
				if !ok {
					continue
				}
				records = append(records, domain.RawRecord{
					Period: period,
					Cert:   cert,
					Field:  field,
					Value:  value,
				})
			}
		}

		offset += fdicPageLimit
		if offset >= page.Meta.Total || len(page.Data) == 0 {
			return records, nil
		}
	}
}

func (c *FDICClient) fetchPage(ctx context.Context, period domain.Period, fields []string, offset int) (*fdicResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("filters", "REPDTE:"+string(period))
	params.Set("fields", "CERT,"+strings.Join(fields, ","))
	params.Set("limit", strconv.Itoa(fdicPageLimit))
	params.Set("offset", strconv.Itoa(offset))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload fdicResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &payload, nil
}

// InstitutionNames resolves certificate numbers to legal names for one
// reporting period. Names arrive as strings rather than numbers, so they
// bypass the numeric record path.
func (c *FDICClient) InstitutionNames(ctx context.Context, period domain.Period) (map[int]string, error) {
	names := make(map[int]string)
	offset := 0
	for {
		page, err := c.fetchPage(ctx, period, []string{config.NameField}, offset)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Data {
			cert, ok := parseCert(item.Data["CERT"])
			if !ok {
				continue
			}
			var name string
			if err := json.Unmarshal(item.Data[config.NameField], &name); err == nil && name != "" {
				names[cert] = name
			}
		}
		offset += fdicPageLimit
		if offset >= page.Meta.Total || len(page.Data) == 0 {
			return names, nil
		}
	}
}

// AnnotateNames fills in institution names on rank entries, querying roughly
// one reporting period per year. Later periods win, so each institution
// carries its most recent legal name.
func (c *FDICClient) AnnotateNames(ctx context.Context, entries []domain.RankEntry, periods []domain.Period) error {
	sampled := make([]domain.Period, 0, len(periods)/4+1)
	for i, p := range periods {
		if i%4 == 0 || i == len(periods)-1 {
			sampled = append(sampled, p)
		}
	}
	sort.Slice(sampled, func(i, j int) bool { return sampled[i] < sampled[j] })

	names := make(map[int]string)
	for _, p := range sampled {
		periodNames, err := c.InstitutionNames(ctx, p)
		if err != nil {
			return fmt.Errorf("failed to resolve names for %s: %w", p, err)
		}
		for cert, name := range periodNames {
			names[cert] = name
		}
	}

	for i := range entries {
		if name, ok := names[entries[i].Cert]; ok {
			entries[i].Name = name
		}
	}
	return nil
}

func parseCert(raw json.RawMessage) (int, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return int(asNumber), true
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if cert, err := strconv.Atoi(strings.TrimSpace(asString)); err == nil {
			return cert, true
		}
	}
	return 0, false
}

func parseNumber(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		return asNumber, true
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(asString), 64); err == nil {
			return v, true
		}
	}
	return 0, false
}
