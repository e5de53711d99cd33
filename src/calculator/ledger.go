package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/pitfolio/backend/src/fx"
)

// Lot is a single open acquisition: a quantity still held and its unit cost
// in PLN, fees included, converted at the acquisition date. A lot is owned by
// exactly one LotLedger and only ever shrinks, in FIFO order.
type Lot struct {
	ISIN     string
	Date     time.Time
	Quantity decimal.Decimal
	UnitCost decimal.Decimal // PLN per unit, (price*qty + fee) converted / qty
}

// RealizedGain is the outcome of one sell matched against open lots. One sell
// produces one RealizedGain even when it consumes several lots.
type RealizedGain struct {
	ISIN        string          `json:"isin"`
	ProductName string          `json:"product_name"`
	Country     string          `json:"country"`
	SellDate    time.Time       `json:"sell_date"`
	Quantity    decimal.Decimal `json:"quantity"`
	Proceeds    decimal.Decimal `json:"proceeds_pln"` // price*qty converted at sell date, minus fee
	Cost        decimal.Decimal `json:"cost_pln"`     // consumed lots' unit cost * quantity
	Gain        decimal.Decimal `json:"gain_pln"`     // Proceeds - Cost
}

// LotLedger tracks the open lots of one security, oldest first, and matches
// sells against them using FIFO. It is strictly sequential: calls must arrive
// in non-decreasing date order, which the orchestrator enforces.
type LotLedger struct {
	isin      string
	converter *fx.Converter
	lots      []Lot
}

// NewLotLedger creates an empty ledger for one security.
func NewLotLedger(isin string, converter *fx.Converter) *LotLedger {
	return &LotLedger{isin: isin, converter: converter}
}

// Acquire converts price*quantity+fee at the trade date and appends a lot.
// The fee is baked into the unit cost so later partial disposals pro-rate it
// automatically. localFee is already denominated in PLN and is added to the
// cost without touching the exchange rate.
func (l *LotLedger) Acquire(quantity, price decimal.Decimal, currency string, date time.Time, fee, localFee decimal.Decimal) error {
	if !quantity.IsPositive() {
		return &InvalidQuantityError{ISIN: l.isin, Date: date, Quantity: quantity}
	}
	total, err := l.converter.Convert(price.Mul(quantity).Add(fee), currency, date)
	if err != nil {
		return err
	}
	total = total.Add(localFee)
	l.lots = append(l.lots, Lot{
		ISIN:     l.isin,
		Date:     date,
		Quantity: quantity,
		UnitCost: total.Div(quantity),
	})
	return nil
}

// Dispose matches a sell of quantity units against the open lots, front
// first. It fails with InsufficientLotsError when the ledger holds less than
// the requested quantity; nothing is consumed in that case. localFee is a
// PLN-denominated fee subtracted from the proceeds as-is.
func (l *LotLedger) Dispose(quantity, price decimal.Decimal, currency string, date time.Time, fee, localFee decimal.Decimal) (RealizedGain, error) {
	if !quantity.IsPositive() {
		return RealizedGain{}, &InvalidQuantityError{ISIN: l.isin, Date: date, Quantity: quantity}
	}
	if held := l.Held(); held.LessThan(quantity) {
		return RealizedGain{}, &InsufficientLotsError{
			ISIN:      l.isin,
			Date:      date,
			Requested: quantity,
			Available: held,
		}
	}

	proceeds, err := l.converter.Convert(price.Mul(quantity), currency, date)
	if err != nil {
		return RealizedGain{}, err
	}
	if !fee.IsZero() {
		feePLN, err := l.converter.Convert(fee, currency, date)
		if err != nil {
			return RealizedGain{}, err
		}
		proceeds = proceeds.Sub(feePLN)
	}
	proceeds = proceeds.Sub(localFee)

	cost := decimal.Zero
	remaining := quantity
	for remaining.IsPositive() {
		front := &l.lots[0]
		matched := decimal.Min(remaining, front.Quantity)

		cost = cost.Add(matched.Mul(front.UnitCost))
		front.Quantity = front.Quantity.Sub(matched)
		remaining = remaining.Sub(matched)

		if front.Quantity.IsZero() {
			l.lots = l.lots[1:]
		}
	}

	return RealizedGain{
		ISIN:     l.isin,
		SellDate: date,
		Quantity: quantity,
		Proceeds: proceeds,
		Cost:     cost,
		Gain:     proceeds.Sub(cost),
	}, nil
}

// Held returns the total quantity currently tracked across all open lots.
func (l *LotLedger) Held() decimal.Decimal {
	held := decimal.Zero
	for _, lot := range l.lots {
		held = held.Add(lot.Quantity)
	}
	return held
}

// OpenLots returns a copy of the remaining lots, oldest first. Used for
// holdings reporting; mutating the copy does not affect the ledger.
func (l *LotLedger) OpenLots() []Lot {
	out := make([]Lot, len(l.lots))
	copy(out, l.lots)
	return out
}
