package calculator

import (
	"sort"

	"github.com/shopspring/decimal"
)

// YearCountry keys the tax record buckets: one bucket per tax year per
// source country.
type YearCountry struct {
	Year    int    `json:"year"`
	Country string `json:"country"` // ISO 3166-1 alpha-2
}

// TaxTotals aggregates everything the PIT forms need for one (year, country)
// bucket. All amounts are PLN.
type TaxTotals struct {
	Proceeds        decimal.Decimal `json:"proceeds"`
	Costs           decimal.Decimal `json:"costs"`
	Gain            decimal.Decimal `json:"gain"`
	GrossDividends  decimal.Decimal `json:"gross_dividends"`
	WithholdingPaid decimal.Decimal `json:"withholding_paid"`
	CreditableTax   decimal.Decimal `json:"creditable_tax"`
}

// TaxRecordSet is the final output of one calculation run: the per-bucket
// totals plus the realized-gain detail rows they were built from. It is
// produced once at finalization and never mutated afterwards.
type TaxRecordSet struct {
	totals map[YearCountry]TaxTotals
	gains  []RealizedGain
}

// Totals returns the aggregated figures for one bucket. The zero value is
// returned for buckets with no activity.
func (s *TaxRecordSet) Totals(year int, country string) TaxTotals {
	return s.totals[YearCountry{Year: year, Country: country}]
}

// Keys returns all populated buckets ordered by year, then country.
func (s *TaxRecordSet) Keys() []YearCountry {
	keys := make([]YearCountry, 0, len(s.totals))
	for k := range s.totals {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Year != keys[j].Year {
			return keys[i].Year < keys[j].Year
		}
		return keys[i].Country < keys[j].Country
	})
	return keys
}

// Years returns the distinct tax years present, ascending.
func (s *TaxRecordSet) Years() []int {
	seen := map[int]bool{}
	for k := range s.totals {
		seen[k.Year] = true
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// RealizedGains returns the detail rows for one tax year, in replay order.
// Year filtering is a read-side concern; the run itself always replays the
// full stream so FIFO matching sees every acquisition.
func (s *TaxRecordSet) RealizedGains(year int) []RealizedGain {
	var out []RealizedGain
	for _, g := range s.gains {
		if g.SellDate.Year() == year {
			out = append(out, g)
		}
	}
	return out
}

// AllRealizedGains returns every detail row of the run, in replay order.
func (s *TaxRecordSet) AllRealizedGains() []RealizedGain {
	out := make([]RealizedGain, len(s.gains))
	copy(out, s.gains)
	return out
}
