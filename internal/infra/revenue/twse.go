// Package revenue provides the TWSE OpenAPI client for monthly revenue
// disclosures.
package revenue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sony/gobreaker"

	"tw-stock-tracker/internal/domain/entity"
	"tw-stock-tracker/internal/observability/metrics"
	"tw-stock-tracker/internal/resilience/circuitbreaker"
	"tw-stock-tracker/internal/resilience/retry"
)

const (
	defaultBaseURL  = "https://openapi.twse.com.tw/v1/opendata/t187ap46_L_7"
	defaultCacheTTL = 10 * time.Minute
)

// disclosureRow mirrors one entry of the monthly revenue disclosure document.
// The upstream keys are the Chinese column headers of the t187ap46_L_7 dataset.
type disclosureRow struct {
	CompanyCode       string `json:"公司代號"`
	YearMonth         string `json:"資料年月"`
	MonthRevenue      string `json:"當月營收"`
	MonthOverMonthPct string `json:"上月比較增減(%)"`
	YearOverYearPct   string `json:"去年同月增減(%)"`
	CumulativeRevenue string `json:"累計營收"`
	CumulativeYoYPct  string `json:"前期比較增減(%)"`
}

// Config holds the settings for a TWSEClient.
type Config struct {
	// BaseURL is the disclosure endpoint. Defaults to the TWSE OpenAPI
	// dataset URL; tests point it at a local server.
	BaseURL string

	// CacheTTL bounds how long one fetched disclosure document serves
	// lookups. The dataset updates monthly, so the TTL only needs to cover
	// a single run's concurrent lookups.
	CacheTTL time.Duration
}

// TWSEClient serves per-security revenue lookups from the TWSE monthly
// revenue disclosure dataset. The dataset is one bulk JSON document, so the
// client fetches it once and answers all lookups of a run from the snapshot.
type TWSEClient struct {
	client         *http.Client
	cfg            Config
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config

	mu        sync.Mutex
	rows      map[string]disclosureRow
	fetchedAt time.Time
}

// NewTWSEClient creates a client with the given HTTP client and configuration.
// Zero-value config fields fall back to production defaults.
func NewTWSEClient(client *http.Client, cfg Config) *TWSEClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = defaultCacheTTL
	}

	return &TWSEClient{
		client:         client,
		cfg:            cfg,
		circuitBreaker: circuitbreaker.New(circuitbreaker.RevenueAPIConfig()),
		retryConfig:    retry.RevenueAPIConfig(),
	}
}

// LatestRevenue returns the security's most recent disclosed figures. A code
// absent from the dataset yields an absent-marker fact, not an error; only an
// unreachable source is an error, reported as entity.ErrSourceUnavailable.
func (c *TWSEClient) LatestRevenue(ctx context.Context, sec entity.Security) (entity.RevenueFact, error) {
	rows, err := c.snapshot(ctx)
	if err != nil {
		return entity.RevenueFact{}, fmt.Errorf("%w: revenue lookup for %s: %v", entity.ErrSourceUnavailable, sec.Code, err)
	}

	row, ok := rows[sec.Code]
	if !ok {
		return entity.MissingRevenue(sec.Code, "no data for this period yet"), nil
	}

	return entity.RevenueFact{
		Code:              sec.Code,
		Month:             row.YearMonth,
		MonthRevenue:      row.MonthRevenue,
		MonthOverMonthPct: row.MonthOverMonthPct,
		YearOverYearPct:   row.YearOverYearPct,
		CumulativeRevenue: row.CumulativeRevenue,
		CumulativeYoYPct:  row.CumulativeYoYPct,
	}, nil
}

// InvalidateSnapshot drops the cached disclosure snapshot so the next lookup
// fetches the document fresh. The tracking run calls this at its start; the
// snapshot must never carry over from one run to the next.
func (c *TWSEClient) InvalidateSnapshot() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows = nil
	c.fetchedAt = time.Time{}
}

// snapshot returns the cached disclosure map, fetching the document when the
// cache is empty or stale. The lock is held across the fetch so concurrent
// lookups in one run trigger a single request.
func (c *TWSEClient) snapshot(ctx context.Context) (map[string]disclosureRow, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.rows != nil && time.Since(c.fetchedAt) < c.cfg.CacheTTL {
		return c.rows, nil
	}

	var rows map[string]disclosureRow
	retryErr := retry.WithBackoff(ctx, c.retryConfig, func() error {
		cbResult, err := c.circuitBreaker.Execute(func() (interface{}, error) {
			return c.doFetch(ctx)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("revenue circuit breaker open, request rejected",
					slog.String("service", "revenue-api"),
					slog.String("state", c.circuitBreaker.State().String()))
			}
			return err
		}

		rows = cbResult.(map[string]disclosureRow)
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	c.rows = rows
	c.fetchedAt = time.Now()
	return rows, nil
}

// doFetch performs the actual document fetch without retry or circuit breaker.
func (c *TWSEClient) doFetch(ctx context.Context) (map[string]disclosureRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			slog.Warn("failed to close response body", slog.Any("error", cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, &retry.HTTPError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	var doc []disclosureRow
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode disclosure document: %w", err)
	}

	rows := make(map[string]disclosureRow, len(doc))
	for _, row := range doc {
		code := strings.TrimSpace(row.CompanyCode)
		if code == "" {
			continue
		}
		rows[code] = row
	}

	metrics.RecordRevenueRows(len(rows))
	slog.Debug("revenue disclosure document loaded", slog.Int("rows", len(rows)))

	return rows, nil
}
