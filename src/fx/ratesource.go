package fx

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrRateNotFound is returned by a RateSource when the source has no
// published rate for the requested date. The Converter treats it as a signal
// to walk back to an earlier date; any other error is propagated as-is.
var ErrRateNotFound = errors.New("exchange rate not found")

// RateSource supplies the official local-currency reference rate for one
// foreign currency on one calendar date.
type RateSource interface {
	Lookup(currency string, date time.Time) (decimal.Decimal, error)
}

// MissingRateError reports that no rate could be resolved for a currency
// within the configured lookback window. It carries the originally requested
// date, not the last date tried.
type MissingRateError struct {
	Currency     string
	Date         time.Time
	LookbackDays int
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no %s exchange rate found for %s within %d day lookback window",
		e.Currency, e.Date.Format("2006-01-02"), e.LookbackDays)
}

// RateSourceFunc adapts a function to the RateSource interface.
type RateSourceFunc func(currency string, date time.Time) (decimal.Decimal, error)

func (f RateSourceFunc) Lookup(currency string, date time.Time) (decimal.Decimal, error) {
	return f(currency, date)
}
