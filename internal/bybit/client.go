// Package bybit provides a read-only client for the Bybit v5 market API:
// the linear instrument catalog and kline (candle) data.
package bybit

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/arslanov-m/macdscan/internal/logger"
	"github.com/arslanov-m/macdscan/internal/models"
)

// Config carries the client tuning knobs.
type Config struct {
	BaseURL        string
	Category       string
	KlineLimit     int
	Timeout        time.Duration
	MaxRetries     int
	RetryDelayBase time.Duration
}

// Client fetches instrument catalogs and kline series.
type Client struct {
	client     *resty.Client
	category   string
	klineLimit int
}

// NewClient creates a Bybit market-data client with bounded retries and
// linear backoff (delay grows with the attempt number).
func NewClient(cfg Config) *Client {
	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.MaxRetries).
		SetRetryAfter(func(c *resty.Client, resp *resty.Response) (time.Duration, error) {
			return cfg.RetryDelayBase * time.Duration(resp.Request.Attempt), nil
		}).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			return err != nil || resp.StatusCode() >= 500
		})

	category := cfg.Category
	if category == "" {
		category = "linear"
	}
	klineLimit := cfg.KlineLimit
	if klineLimit <= 0 {
		klineLimit = 200
	}

	return &Client{client: rc, category: category, klineLimit: klineLimit}
}

type instrumentsResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List []struct {
			Symbol    string `json:"symbol"`
			QuoteCoin string `json:"quoteCoin"`
		} `json:"list"`
	} `json:"result"`
}

type klineResponse struct {
	RetCode int    `json:"retCode"`
	RetMsg  string `json:"retMsg"`
	Result  struct {
		List [][]string `json:"list"`
	} `json:"result"`
}

// Instruments returns the symbols of all instruments in the configured
// category quoted in quoteCoin.
func (c *Client) Instruments(ctx context.Context, quoteCoin string) ([]string, error) {
	var out instrumentsResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("category", c.category).
		SetResult(&out).
		Get("/v5/market/instruments-info")
	if err != nil {
		return nil, fmt.Errorf("fetch instruments: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch instruments: status %d", resp.StatusCode())
	}
	if out.RetCode != 0 {
		return nil, fmt.Errorf("fetch instruments: retCode %d: %s", out.RetCode, out.RetMsg)
	}

	symbols := make([]string, 0, len(out.Result.List))
	for _, in := range out.Result.List {
		if in.QuoteCoin == quoteCoin {
			symbols = append(symbols, in.Symbol)
		}
	}
	return symbols, nil
}

// Klines returns up to the configured number of candles for symbol at the
// given timeframe, sorted ascending by start time. Malformed rows are
// skipped. Implements scanner.SeriesProvider.
func (c *Client) Klines(ctx context.Context, symbol string, tf models.Timeframe) (models.Series, error) {
	var out klineResponse
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"category": c.category,
			"symbol":   symbol,
			"interval": tf.Interval(),
			"limit":    strconv.Itoa(c.klineLimit),
		}).
		SetResult(&out).
		Get("/v5/market/kline")
	if err != nil {
		return nil, fmt.Errorf("fetch %s %s klines: %w", symbol, tf, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s %s klines: status %d", symbol, tf, resp.StatusCode())
	}
	if out.RetCode != 0 {
		return nil, fmt.Errorf("fetch %s %s klines: retCode %d: %s", symbol, tf, out.RetCode, out.RetMsg)
	}

	series := make(models.Series, 0, len(out.Result.List))
	for _, row := range out.Result.List {
		candle, ok := parseCandle(row)
		if !ok {
			logger.Debug("Skipping malformed kline row for %s: %v", symbol, row)
			continue
		}
		series = append(series, candle)
	}

	// Bybit returns klines newest first; the indicator needs them ascending.
	sort.Slice(series, func(i, j int) bool { return series[i].Start < series[j].Start })
	return series, nil
}

// parseCandle converts a raw kline row [startTime, open, high, low, close,
// volume, turnover] of decimal strings into a Candle.
func parseCandle(row []string) (models.Candle, bool) {
	if len(row) < 7 {
		return models.Candle{}, false
	}
	vals := make([]float64, 7)
	for i := 0; i < 7; i++ {
		v, err := strconv.ParseFloat(row[i], 64)
		if err != nil {
			return models.Candle{}, false
		}
		vals[i] = v
	}
	return models.Candle{
		Start:    int64(vals[0]),
		Open:     vals[1],
		High:     vals[2],
		Low:      vals[3],
		Close:    vals[4],
		Volume:   vals[5],
		Turnover: vals[6],
	}, true
}
