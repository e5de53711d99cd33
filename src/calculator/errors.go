package calculator

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InsufficientLotsError reports a sell that exceeds the tracked holdings of a
// security. It is fatal for the whole run: an oversell means the input stream
// is incomplete or misordered, and matching it against nothing would produce
// a silently wrong cost basis.
type InsufficientLotsError struct {
	ISIN      string
	Date      time.Time
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientLotsError) Error() string {
	return fmt.Sprintf("sell of %s on %s requests %s units but only %s are held",
		e.ISIN, e.Date.Format("2006-01-02"), e.Requested, e.Available)
}

// InvalidQuantityError reports a trade whose quantity is not strictly
// positive. Such a row cannot be matched against lots; letting it through
// would divide by the quantity when computing the unit cost.
type InvalidQuantityError struct {
	ISIN     string
	Date     time.Time
	Quantity decimal.Decimal
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("trade of %s on %s has non-positive quantity %s",
		e.ISIN, e.Date.Format("2006-01-02"), e.Quantity)
}

// OutOfOrderError reports a transaction whose date precedes the last date
// already processed for its routing key. FIFO matching cannot be trusted once
// the chronological precondition is violated, so the run is aborted.
type OutOfOrderError struct {
	Key      string
	Date     time.Time
	LastDate time.Time
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("transaction for %s dated %s arrived after %s was already processed",
		e.Key, e.Date.Format("2006-01-02"), e.LastDate.Format("2006-01-02"))
}

// ErrFinalized is returned when transactions are fed to an orchestrator whose
// run has already completed. A new calculation needs a fresh orchestrator.
var ErrFinalized = fmt.Errorf("calculation already finalized")
