package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/cryptofolio/src/config"
	"github.com/username/cryptofolio/src/logger"
	"github.com/username/cryptofolio/src/models"
	"github.com/username/cryptofolio/src/processors"
	"github.com/username/cryptofolio/src/utils"
	"golang.org/x/time/rate"
)

// Responses of the consumed feeds.
type coinbaseExchangeRatesResponse struct {
	Data struct {
		Currency string            `json:"currency"`
		Rates    map[string]string `json:"rates"`
	} `json:"data"`
}

type coingeckoRangeResponse struct {
	// Prices is a list of [unixTimestampMs, usdRate] pairs.
	Prices [][2]float64 `json:"prices"`
}

type frankfurterLatestResponse struct {
	Rates map[string]float64 `json:"rates"`
}

type frankfurterSeriesResponse struct {
	// Rates maps YYYY-MM-DD to currency->rate. Weekdays only.
	Rates map[string]map[string]float64 `json:"rates"`
}

type priceServiceImpl struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	rateCache  *cache.Cache

	coinbaseBaseURL    string
	coingeckoBaseURL   string
	frankfurterBaseURL string
}

// NewPriceService builds the external market-data client. Outbound lookups
// are staggered by the configured delay to respect provider quotas, and
// successful rates are cached.
func NewPriceService() PriceService {
	cfg := config.Cfg
	return &priceServiceImpl{
		httpClient: &http.Client{Timeout: cfg.PriceFeedTimeout},
		limiter:    rate.NewLimiter(rate.Every(cfg.PriceRequestDelay), 1),
		rateCache:  cache.New(cfg.RateCacheExpiry, 2*cfg.RateCacheExpiry),

		coinbaseBaseURL:    cfg.CoinbaseAPIBaseURL,
		coingeckoBaseURL:   cfg.CoingeckoAPIBaseURL,
		frankfurterBaseURL: cfg.FrankfurterAPIBaseURL,
	}
}

func (s *priceServiceImpl) CurrentRate(ctx context.Context, symbol string) (models.Rate, error) {
	if symbol == "USD" {
		return models.Rate{Symbol: "USD", USDRate: 1}, nil
	}

	if cached, ok := s.rateCache.Get("rate:" + symbol); ok {
		return models.Rate{Symbol: symbol, USDRate: cached.(float64)}, nil
	}

	info := processors.Lookup(symbol)
	if !info.Supported {
		logger.L.Warn("No price feed mapping for currency", "symbol", symbol)
		return models.Rate{}, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, symbol)
	}

	var (
		usdRate float64
		err     error
	)
	if info.Class == processors.ClassFiat {
		usdRate, err = s.fiatRate(ctx, symbol)
	} else {
		usdRate, err = s.coinbaseRate(ctx, symbol)
	}
	if err != nil {
		return models.Rate{}, err
	}

	s.rateCache.SetDefault("rate:"+symbol, usdRate)
	return models.Rate{Symbol: symbol, USDRate: usdRate}, nil
}

func (s *priceServiceImpl) HistoricalRates(ctx context.Context, symbol string, from, to time.Time) ([]models.DatedRate, error) {
	if symbol == "USD" {
		return []models.DatedRate{{Date: to.Format(utils.DateFormat), USDRate: 1}}, nil
	}

	info := processors.Lookup(symbol)
	if !info.Supported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCurrency, symbol)
	}
	if info.Class == processors.ClassFiat {
		return s.fiatSeries(ctx, symbol, from, to)
	}
	return s.coingeckoSeries(ctx, info.CoingeckoID, symbol, from, to)
}

// EnrichLedger applies current rates to every balance. SetRate calls are
// commutative and idempotent, so failures simply leave that one currency
// unpriced without blocking the rest.
func (s *priceServiceImpl) EnrichLedger(ctx context.Context, state *models.LedgerState) []string {
	var unpriced []string
	for _, symbol := range state.Symbols() {
		r, err := s.CurrentRate(ctx, symbol)
		if err != nil {
			logger.L.Warn("Rate lookup failed, currency stays unpriced", "symbol", symbol, "error", err)
			unpriced = append(unpriced, symbol)
			continue
		}
		state.SetRate(symbol, r.USDRate)
	}
	return unpriced
}

func (s *priceServiceImpl) coinbaseRate(ctx context.Context, symbol string) (float64, error) {
	reqURL := fmt.Sprintf("%s/v2/exchange-rates?currency=%s", s.coinbaseBaseURL, url.QueryEscape(symbol))

	var resp coinbaseExchangeRatesResponse
	if err := s.getJSON(ctx, reqURL, &resp); err != nil {
		return 0, err
	}
	usdStr, ok := resp.Data.Rates["USD"]
	if !ok {
		return 0, fmt.Errorf("no USD rate in exchange-rates response for %s", symbol)
	}
	usdRate, err := strconv.ParseFloat(usdStr, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid USD rate %q for %s: %w", usdStr, symbol, err)
	}
	return usdRate, nil
}

func (s *priceServiceImpl) fiatRate(ctx context.Context, symbol string) (float64, error) {
	reqURL := fmt.Sprintf("%s/latest?from=%s&to=USD", s.frankfurterBaseURL, url.QueryEscape(symbol))

	var resp frankfurterLatestResponse
	if err := s.getJSON(ctx, reqURL, &resp); err != nil {
		return 0, err
	}
	usdRate, ok := resp.Rates["USD"]
	if !ok {
		return 0, fmt.Errorf("no USD rate in fiat feed response for %s", symbol)
	}
	return usdRate, nil
}

func (s *priceServiceImpl) fiatSeries(ctx context.Context, symbol string, from, to time.Time) ([]models.DatedRate, error) {
	// Central-bank style series publish weekdays only; clamp the range end
	// to the last business day to avoid an empty trailing window.
	end := utils.LastBusinessDayBefore(to)
	reqURL := fmt.Sprintf("%s/%s..%s?from=%s&to=USD",
		s.frankfurterBaseURL, from.Format(utils.DateFormat), end.Format(utils.DateFormat), url.QueryEscape(symbol))

	var resp frankfurterSeriesResponse
	if err := s.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}

	series := make([]models.DatedRate, 0, len(resp.Rates))
	for date, rates := range resp.Rates {
		if usdRate, ok := rates["USD"]; ok {
			series = append(series, models.DatedRate{Date: date, USDRate: usdRate})
		}
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	return series, nil
}

func (s *priceServiceImpl) coingeckoSeries(ctx context.Context, coingeckoID, symbol string, from, to time.Time) ([]models.DatedRate, error) {
	reqURL := fmt.Sprintf("%s/api/v3/coins/%s/market_chart/range?vs_currency=usd&from=%d&to=%d",
		s.coingeckoBaseURL, url.PathEscape(coingeckoID), from.Unix(), to.Unix())

	var resp coingeckoRangeResponse
	if err := s.getJSON(ctx, reqURL, &resp); err != nil {
		return nil, err
	}

	// Collapse intraday samples to one closing observation per day.
	byDay := make(map[string]float64, len(resp.Prices))
	for _, p := range resp.Prices {
		ts := time.UnixMilli(int64(p[0])).UTC()
		byDay[ts.Format(utils.DateFormat)] = p[1]
	}

	series := make([]models.DatedRate, 0, len(byDay))
	for date, usdRate := range byDay {
		series = append(series, models.DatedRate{Date: date, USDRate: usdRate})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Date < series[j].Date })
	if len(series) == 0 {
		return nil, fmt.Errorf("empty price series for %s", symbol)
	}
	return series, nil
}

func (s *priceServiceImpl) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("price feed request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("price feed returned status %d for %s", resp.StatusCode, reqURL)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode price feed response: %w", err)
	}
	return nil
}
