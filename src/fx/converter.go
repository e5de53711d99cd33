package fx

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/pitfolio/backend/src/logger"
)

// DefaultLookbackDays bounds how far Convert walks back looking for a
// published rate. Ten calendar days spans any weekend/holiday cluster in the
// NBP table-A calendar.
const DefaultLookbackDays = 10

// Converter translates foreign-denominated amounts into the local currency
// using a RateSource, applying the lookback rule: a date with no published
// rate falls back to the most recent earlier date that has one.
//
// Successful lookups are memoized under the requested (currency, date) key
// for the lifetime of the converter, so repeated conversions are stable and
// hit the source at most once per key.
type Converter struct {
	source        RateSource
	localCurrency string
	lookbackDays  int

	mu    sync.RWMutex
	rates map[string]decimal.Decimal
}

// NewConverter wraps a RateSource. lookbackDays <= 0 selects
// DefaultLookbackDays.
func NewConverter(source RateSource, localCurrency string, lookbackDays int) *Converter {
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}
	return &Converter{
		source:        source,
		localCurrency: localCurrency,
		lookbackDays:  lookbackDays,
		rates:         make(map[string]decimal.Decimal),
	}
}

// Convert returns amount expressed in the local currency at the rate
// effective on date. Amounts already in the local currency are returned
// unchanged, without touching the rate source.
func (c *Converter) Convert(amount decimal.Decimal, currency string, date time.Time) (decimal.Decimal, error) {
	if currency == "" || currency == c.localCurrency {
		return amount, nil
	}
	rate, err := c.Rate(currency, date)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return amount.Mul(rate), nil
}

// Rate resolves the local-currency rate for currency on date, walking back
// day by day when the source has nothing published, up to the lookback
// window. The resolved rate is cached under the requested date.
func (c *Converter) Rate(currency string, date time.Time) (decimal.Decimal, error) {
	key := rateKey(currency, date)

	c.mu.RLock()
	rate, found := c.rates[key]
	c.mu.RUnlock()
	if found {
		return rate, nil
	}

	rate, err := c.resolve(currency, date)
	if err != nil {
		return decimal.Decimal{}, err
	}

	c.mu.Lock()
	c.rates[key] = rate
	c.mu.Unlock()
	return rate, nil
}

func (c *Converter) resolve(currency string, date time.Time) (decimal.Decimal, error) {
	lookupDate := date
	for attempt := 0; attempt <= c.lookbackDays; attempt++ {
		rate, err := c.source.Lookup(currency, lookupDate)
		if err == nil {
			if attempt > 0 && logger.L != nil {
				logger.L.Debug("Exchange rate resolved via lookback",
					"currency", currency,
					"requestedDate", date.Format("2006-01-02"),
					"effectiveDate", lookupDate.Format("2006-01-02"))
			}
			return rate, nil
		}
		if !errors.Is(err, ErrRateNotFound) {
			return decimal.Decimal{}, fmt.Errorf("looking up %s rate for %s: %w",
				currency, lookupDate.Format("2006-01-02"), err)
		}
		lookupDate = lookupDate.AddDate(0, 0, -1)
	}
	return decimal.Decimal{}, &MissingRateError{
		Currency:     currency,
		Date:         date,
		LookbackDays: c.lookbackDays,
	}
}

func rateKey(currency string, date time.Time) string {
	return currency + "|" + date.Format("2006-01-02")
}
