package fx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"github.com/username/pitfolio/backend/src/logger"
)

// RateStore persists fetched rates between runs so the NBP API is only asked
// once per (currency, date).
type RateStore interface {
	GetRate(currency string, date time.Time) (decimal.Decimal, bool, error)
	SaveRate(currency string, date time.Time, rate decimal.Decimal) error
}

// nbpRatesResponse mirrors the NBP table-A JSON payload, e.g.
// https://api.nbp.pl/api/exchangerates/rates/a/USD/2024-03-01/?format=json
type nbpRatesResponse struct {
	Code  string `json:"code"`
	Rates []struct {
		EffectiveDate string  `json:"effectiveDate"`
		Mid           float64 `json:"mid"`
	} `json:"rates"`
}

// NBPClient is a RateSource backed by the National Bank of Poland API.
// Results are cached in memory and, when a store is supplied, in the
// database. Concurrent lookups for the same key are collapsed into a single
// HTTP round-trip.
type NBPClient struct {
	baseURL    string
	httpClient *http.Client
	memCache   *cache.Cache
	store      RateStore
	group      singleflight.Group
}

// NewNBPClient builds a client for the given table-A base URL. store may be
// nil, in which case only the in-memory cache is used.
func NewNBPClient(baseURL string, timeout time.Duration, store RateStore) *NBPClient {
	return &NBPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		memCache:   cache.New(cache.NoExpiration, cache.NoExpiration),
		store:      store,
	}
}

// Lookup fetches the PLN mid rate for currency on date. A date the NBP
// published no table for yields ErrRateNotFound. GBX (pence sterling) is
// quoted as GBP divided by 100; the NBP has no GBX table of its own.
func (c *NBPClient) Lookup(currency string, date time.Time) (decimal.Decimal, error) {
	if currency == "GBX" {
		rate, err := c.Lookup("GBP", date)
		if err != nil {
			return decimal.Decimal{}, err
		}
		return rate.Div(decimal.NewFromInt(100)), nil
	}

	key := rateKey(currency, date)
	if cached, found := c.memCache.Get(key); found {
		return cached.(decimal.Decimal), nil
	}

	// Collapse concurrent lookups for the same key into one round-trip.
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		if cached, found := c.memCache.Get(key); found {
			return cached.(decimal.Decimal), nil
		}

		if c.store != nil {
			rate, found, err := c.store.GetRate(currency, date)
			if err != nil {
				logger.L.Warn("Rate store lookup failed, falling through to NBP API",
					"currency", currency, "date", date.Format("2006-01-02"), "error", err)
			} else if found {
				c.memCache.Set(key, rate, cache.NoExpiration)
				return rate, nil
			}
		}

		rate, err := c.fetch(currency, date)
		if err != nil {
			return nil, err
		}

		c.memCache.Set(key, rate, cache.NoExpiration)
		if c.store != nil {
			if err := c.store.SaveRate(currency, date, rate); err != nil {
				logger.L.Warn("Failed to persist exchange rate",
					"currency", currency, "date", date.Format("2006-01-02"), "error", err)
			}
		}
		return rate, nil
	})
	if err != nil {
		return decimal.Decimal{}, err
	}
	return v.(decimal.Decimal), nil
}

func (c *NBPClient) fetch(currency string, date time.Time) (decimal.Decimal, error) {
	url := fmt.Sprintf("%s/%s/%s/?format=json", c.baseURL, currency, date.Format("2006-01-02"))

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("calling NBP API for %s: %w", currency, err)
	}
	defer resp.Body.Close()

	// The NBP API answers 404 both for unknown currencies and for dates
	// without a published table (weekends, holidays).
	if resp.StatusCode == http.StatusNotFound {
		return decimal.Decimal{}, fmt.Errorf("NBP has no %s table for %s: %w",
			currency, date.Format("2006-01-02"), ErrRateNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return decimal.Decimal{}, fmt.Errorf("NBP API returned status %d for %s on %s",
			resp.StatusCode, currency, date.Format("2006-01-02"))
	}

	var payload nbpRatesResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return decimal.Decimal{}, fmt.Errorf("decoding NBP response for %s: %w", currency, err)
	}
	if len(payload.Rates) == 0 {
		return decimal.Decimal{}, fmt.Errorf("NBP response for %s on %s carried no rates: %w",
			currency, date.Format("2006-01-02"), ErrRateNotFound)
	}

	rate := decimal.NewFromFloat(payload.Rates[0].Mid)
	logger.L.Debug("Fetched NBP rate", "currency", currency,
		"date", date.Format("2006-01-02"), "rate", rate.String())
	return rate, nil
}
