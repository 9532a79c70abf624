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
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"depositbeta/internal/config"
	"depositbeta/pkg/contracts/domain"
)

// fredConcurrency bounds parallel series downloads. FRED allows generous
// request rates but there is no point hammering it for a dozen series.
const fredConcurrency = 4

// FREDClient pulls daily observation series from the FRED API.
type FREDClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewFREDClient creates a client from the fetch configuration.
func NewFREDClient(cfg config.FetchConfig, logger *slog.Logger) *FREDClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &FREDClient{
		baseURL: cfg.FREDBaseURL,
		apiKey:  cfg.FREDAPIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		logger:  logger,
	}
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type fredResponse struct {
	Observations []fredObservation `json:"observations"`
}

// FetchSeries downloads every configured rate series from startDate onward
// and merges them into one date-indexed series, columns in the order of
// names. FRED reports missing observations as ".", which become nulls.
func (c *FREDClient) FetchSeries(ctx context.Context, names []string, startDate time.Time) (*domain.RateSeries, error) {
	var mu sync.Mutex
	byDate := make(map[string]map[string]domain.Value)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(fredConcurrency)

	for _, name := range names {
		seriesID, ok := config.FREDSeriesIDs[name]
		if !ok {
			return nil, fmt.Errorf("no FRED series mapped for rate column %q", name)
		}
		g.Go(func() error {
			observations, err := c.fetchOne(ctx, seriesID, startDate)
			if err != nil {
				return fmt.Errorf("series %s (%s): %w", name, seriesID, err)
			}

			mu.Lock()
			defer mu.Unlock()
			for _, obs := range observations {
				values, ok := byDate[obs.Date]
				if !ok {
					values = make(map[string]domain.Value)
					byDate[obs.Date] = values
				}
				values[name] = parseObservation(obs.Value)
			}

			c.logger.InfoContext(ctx, "rate series fetched",
				slog.String("series", name),
				slog.Int("observations", len(observations)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	rs := &domain.RateSeries{Names: append([]string(nil), names...)}
	for _, date := range dates {
		parsed, err := time.Parse("2006-01-02", date)
		if err != nil {
			return nil, fmt.Errorf("invalid observation date %q: %w", date, err)
		}
		point := domain.RatePoint{Date: parsed, Values: make(map[string]domain.Value, len(names))}
		for _, name := range names {
			value, ok := byDate[date][name]
			if !ok {
				value = domain.Null()
			}
			point.Values[name] = value
		}
		rs.Points = append(rs.Points, point)
	}
	return rs, nil
}

func (c *FREDClient) fetchOne(ctx context.Context, seriesID string, startDate time.Time) ([]fredObservation, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", c.apiKey)
	params.Set("file_type", "json")
	params.Set("observation_start", startDate.Format("2006-01-02"))

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

	var payload fredResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return payload.Observations, nil
}

func parseObservation(s string) domain.Value {
	s = strings.TrimSpace(s)
	if s == "" || s == "." {
		return domain.Null()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return domain.Null()
	}
	return domain.Num(v)
}
