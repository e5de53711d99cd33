package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/pitfolio/backend/src/fx"
)

// DividendRecord is one dividend payment after conversion to PLN.
type DividendRecord struct {
	ISIN        string          `json:"isin"`
	ProductName string          `json:"product_name"`
	Country     string          `json:"country"`
	Date        time.Time       `json:"date"`
	GrossPLN    decimal.Decimal `json:"gross_pln"`
	WithheldPLN decimal.Decimal `json:"withheld_pln"`
}

type dividendBucket struct {
	gross    decimal.Decimal
	withheld decimal.Decimal
}

// DividendAggregator accumulates dividend income and foreign withholding tax
// per (year, country) bucket. Amounts are converted to PLN at each payment's
// own date. The statutory-rate cap on the foreign tax credit is applied to
// the yearly bucket totals at finalization, not per payment.
type DividendAggregator struct {
	converter     *fx.Converter
	statutoryRate decimal.Decimal
	buckets       map[YearCountry]*dividendBucket
	records       []DividendRecord
}

func NewDividendAggregator(converter *fx.Converter, statutoryRate decimal.Decimal) *DividendAggregator {
	return &DividendAggregator{
		converter:     converter,
		statutoryRate: statutoryRate,
		buckets:       make(map[YearCountry]*dividendBucket),
	}
}

func (a *DividendAggregator) bucket(year int, country string) *dividendBucket {
	key := YearCountry{Year: year, Country: country}
	b, ok := a.buckets[key]
	if !ok {
		b = &dividendBucket{}
		a.buckets[key] = b
	}
	return b
}

// RecordDividend adds one dividend payment. withheld may be zero when the
// broker reports withholding as a separate row; RecordWithholding picks those
// up. Pass the payment's own date, not the ex-date.
func (a *DividendAggregator) RecordDividend(isin, productName, country string, date time.Time, gross, withheld decimal.Decimal, currency string) error {
	grossPLN, err := a.converter.Convert(gross, currency, date)
	if err != nil {
		return err
	}
	withheldPLN, err := a.converter.Convert(withheld, currency, date)
	if err != nil {
		return err
	}
	b := a.bucket(date.Year(), country)
	b.gross = b.gross.Add(grossPLN)
	b.withheld = b.withheld.Add(withheldPLN)
	a.records = append(a.records, DividendRecord{
		ISIN:        isin,
		ProductName: productName,
		Country:     country,
		Date:        date,
		GrossPLN:    grossPLN,
		WithheldPLN: withheldPLN,
	})
	return nil
}

// RecordWithholding adds a standalone withholding-tax row to the bucket of
// the row's own year and country.
func (a *DividendAggregator) RecordWithholding(country string, date time.Time, amount decimal.Decimal, currency string) error {
	amountPLN, err := a.converter.Convert(amount, currency, date)
	if err != nil {
		return err
	}
	b := a.bucket(date.Year(), country)
	b.withheld = b.withheld.Add(amountPLN)
	return nil
}

// Totals returns the per-bucket gross income, withholding paid and the
// creditable portion of it. Creditable tax is the withheld amount capped at
// gross times the statutory rate, never negative.
func (a *DividendAggregator) Totals() map[YearCountry]TaxTotals {
	out := make(map[YearCountry]TaxTotals, len(a.buckets))
	for key, b := range a.buckets {
		limit := b.gross.Mul(a.statutoryRate)
		creditable := decimal.Min(b.withheld, limit)
		if creditable.IsNegative() {
			creditable = decimal.Zero
		}
		out[key] = TaxTotals{
			Proceeds:        decimal.Zero,
			Costs:           decimal.Zero,
			Gain:            decimal.Zero,
			GrossDividends:  b.gross,
			WithholdingPaid: b.withheld,
			CreditableTax:   creditable,
		}
	}
	return out
}

// Records returns the converted dividend detail rows in replay order.
func (a *DividendAggregator) Records() []DividendRecord {
	out := make([]DividendRecord, len(a.records))
	copy(out, a.records)
	return out
}
