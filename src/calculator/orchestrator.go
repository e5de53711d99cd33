package calculator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/pitfolio/backend/src/fx"
	"github.com/username/pitfolio/backend/src/logger"
	"github.com/username/pitfolio/backend/src/models"
	"github.com/username/pitfolio/backend/src/utils"
)

type runState int

const (
	stateIdle runState = iota
	stateReplaying
	stateFinalized
)

// Orchestrator replays a canonical transaction stream through the lot
// ledgers and the dividend aggregator and produces the final TaxRecordSet.
// An orchestrator is single-use: once Finalize has run, or a replay has
// failed, every further call returns an error and no partial output can be
// read. Start over with a fresh orchestrator and the full stream.
type Orchestrator struct {
	converter *fx.Converter
	dividends *DividendAggregator

	ledgers   map[string]*LotLedger
	lastDates map[string]time.Time
	gains     []RealizedGain

	state runState
	err   error
}

func NewOrchestrator(converter *fx.Converter, statutoryRate decimal.Decimal) *Orchestrator {
	return &Orchestrator{
		converter: converter,
		dividends: NewDividendAggregator(converter, statutoryRate),
		ledgers:   make(map[string]*LotLedger),
		lastDates: make(map[string]time.Time),
	}
}

func (o *Orchestrator) ledger(isin string) *LotLedger {
	l, ok := o.ledgers[isin]
	if !ok {
		l = NewLotLedger(isin, o.converter)
		o.ledgers[isin] = l
	}
	return l
}

// Replay sorts the batch chronologically and feeds it through the engine.
// The sort is stable, so same-day transactions keep their input order, which
// is how brokers report intraday sequences. Replay may be called several
// times; batches must not overlap in time per security.
func (o *Orchestrator) Replay(transactions []models.CanonicalTransaction) error {
	if o.state == stateFinalized {
		return ErrFinalized
	}
	if o.err != nil {
		return o.err
	}
	o.state = stateReplaying

	sorted := make([]models.CanonicalTransaction, len(transactions))
	copy(sorted, transactions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].TradeDate.Before(sorted[j].TradeDate)
	})

	for _, tx := range sorted {
		if err := o.process(tx); err != nil {
			o.err = err
			logger.L.Error("calculation aborted", "isin", tx.ISIN, "date", utils.FormatDate(tx.TradeDate), "error", err)
			return err
		}
	}
	return nil
}

func (o *Orchestrator) process(tx models.CanonicalTransaction) error {
	if last, ok := o.lastDates[tx.ISIN]; ok && tx.TradeDate.Before(last) {
		return &OutOfOrderError{Key: tx.ISIN, Date: tx.TradeDate, LastDate: last}
	}
	o.lastDates[tx.ISIN] = tx.TradeDate

	country := utils.CountryCodeFromISIN(tx.ISIN)

	switch tx.Type {
	case models.TypeBuy:
		return o.ledger(tx.ISIN).Acquire(tx.Quantity, tx.Price, tx.Currency, tx.TradeDate, tx.Fee, tx.LocalFee)

	case models.TypeSell:
		gain, err := o.ledger(tx.ISIN).Dispose(tx.Quantity, tx.Price, tx.Currency, tx.TradeDate, tx.Fee, tx.LocalFee)
		if err != nil {
			return err
		}
		gain.ProductName = tx.ProductName
		gain.Country = country
		o.gains = append(o.gains, gain)
		return nil

	case models.TypeDividend:
		return o.dividends.RecordDividend(tx.ISIN, tx.ProductName, country, tx.TradeDate, tx.Amount, tx.WithholdingTax, tx.Currency)

	case models.TypeWithholdingTax:
		return o.dividends.RecordWithholding(country, tx.TradeDate, tx.Amount, tx.Currency)

	default:
		logger.L.Warn("skipping transaction of unknown type", "type", string(tx.Type), "isin", tx.ISIN)
		return nil
	}
}

// Finalize closes the run and assembles the record set. After a successful
// Finalize the orchestrator refuses further input. If any earlier replay
// failed, Finalize returns that error and no output.
func (o *Orchestrator) Finalize() (*TaxRecordSet, error) {
	if o.state == stateFinalized {
		return nil, ErrFinalized
	}
	if o.err != nil {
		return nil, o.err
	}
	o.state = stateFinalized

	totals := make(map[YearCountry]TaxTotals)
	for _, g := range o.gains {
		key := YearCountry{Year: g.SellDate.Year(), Country: g.Country}
		t := totals[key]
		t.Proceeds = t.Proceeds.Add(g.Proceeds)
		t.Costs = t.Costs.Add(g.Cost)
		t.Gain = t.Gain.Add(g.Gain)
		totals[key] = t
	}
	for key, d := range o.dividends.Totals() {
		t := totals[key]
		t.GrossDividends = d.GrossDividends
		t.WithholdingPaid = d.WithholdingPaid
		t.CreditableTax = d.CreditableTax
		totals[key] = t
	}

	gains := make([]RealizedGain, len(o.gains))
	copy(gains, o.gains)
	return &TaxRecordSet{totals: totals, gains: gains}, nil
}

// DividendRecords exposes the converted dividend rows for reporting.
func (o *Orchestrator) DividendRecords() []DividendRecord {
	return o.dividends.Records()
}

// Holdings returns the still-open lots of every security, for the portfolio
// view. Securities fully disposed of are omitted.
func (o *Orchestrator) Holdings() map[string][]Lot {
	out := make(map[string][]Lot)
	for isin, l := range o.ledgers {
		if lots := l.OpenLots(); len(lots) > 0 {
			out[isin] = lots
		}
	}
	return out
}
