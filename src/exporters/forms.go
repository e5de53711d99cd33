package exporters

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/username/pitfolio/backend/src/calculator"
	"github.com/username/pitfolio/backend/src/utils"
)

// PIT38DividendRow is one country's line in section G of the PIT-38 form.
// TaxDue is the flat-rate Polish tax on the gross dividends, TaxPaidAbroad
// is what the source country withheld, and TaxToPay is the difference after
// crediting the capped foreign tax.
type PIT38DividendRow struct {
	Country       string          `json:"country"`
	GrossDividend decimal.Decimal `json:"gross_dividend"`
	TaxDue        decimal.Decimal `json:"tax_due"`
	TaxPaidAbroad decimal.Decimal `json:"tax_paid_abroad"`
	CreditableTax decimal.Decimal `json:"creditable_tax"`
	TaxToPay      decimal.Decimal `json:"tax_to_pay"`
}

// PIT38Summary holds the filled-in cells of one year's PIT-38: section C and
// D for securities, section G for dividends.
type PIT38Summary struct {
	Year        int             `json:"year"`
	TotalIncome decimal.Decimal `json:"total_income"` // C.22 / C.24
	TotalCost   decimal.Decimal `json:"total_cost"`   // C.23 / C.25
	Profit      decimal.Decimal `json:"profit"`       // C.26
	Loss        decimal.Decimal `json:"loss"`         // C.27

	TaxBase int64 `json:"tax_base"` // D.29, whole złoty
	TaxDue  int64 `json:"tax_due"`  // D.31 / D.33

	Dividends []PIT38DividendRow `json:"dividends"`
}

// PITZGRow is one country row of the PIT/ZG attachment, listing foreign
// securities income. Countries identified only by ISIN prefix are flagged
// for manual verification.
type PITZGRow struct {
	Country              string          `json:"country"`
	CountryDisplay       string          `json:"country_display"`
	Income               decimal.Decimal `json:"income"`
	Cost                 decimal.Decimal `json:"cost"`
	Profit               decimal.Decimal `json:"profit"`
	TaxPaidAbroad        decimal.Decimal `json:"tax_paid_abroad"`
	IncludeInForm        bool            `json:"include_in_form"`
	RequiresVerification bool            `json:"requires_verification"`
}

// TaxForms bundles the two form outputs for one tax year.
type TaxForms struct {
	PIT38 PIT38Summary `json:"pit38"`
	PITZG []PITZGRow   `json:"pitzg"`
}

// BuildTaxForms assembles the PIT-38 and PIT/ZG figures for one year out of
// a finalized record set. statutoryRate is the flat Polish rate on capital
// income, 0.19 at the time of writing.
func BuildTaxForms(set *calculator.TaxRecordSet, year int, statutoryRate decimal.Decimal) TaxForms {
	var countries []string
	for _, key := range set.Keys() {
		if key.Year == year {
			countries = append(countries, key.Country)
		}
	}
	sort.Strings(countries)

	summary := PIT38Summary{Year: year}
	var pitzg []PITZGRow
	totalIncome := decimal.Zero
	totalCost := decimal.Zero

	for _, country := range countries {
		t := set.Totals(year, country)
		totalIncome = totalIncome.Add(t.Proceeds)
		totalCost = totalCost.Add(t.Costs)

		if !t.GrossDividends.IsZero() || !t.WithholdingPaid.IsZero() {
			taxDue := utils.RoundMoney(t.GrossDividends.Mul(statutoryRate))
			toPay := taxDue.Sub(t.CreditableTax)
			if toPay.IsNegative() {
				toPay = decimal.Zero
			}
			summary.Dividends = append(summary.Dividends, PIT38DividendRow{
				Country:       country,
				GrossDividend: t.GrossDividends,
				TaxDue:        taxDue,
				TaxPaidAbroad: t.WithholdingPaid,
				CreditableTax: t.CreditableTax,
				TaxToPay:      toPay,
			})
		}

		if !t.Proceeds.IsZero() || !t.Costs.IsZero() {
			profit := t.Proceeds.Sub(t.Costs)
			if profit.IsNegative() {
				profit = decimal.Zero
			}
			pitzg = append(pitzg, PITZGRow{
				Country:              country,
				CountryDisplay:       utils.CountryDisplayString(country),
				Income:               t.Proceeds,
				Cost:                 t.Costs,
				Profit:               profit,
				TaxPaidAbroad:        decimal.Zero,
				IncludeInForm:        profit.IsPositive(),
				RequiresVerification: !utils.IsKnownCountry(country),
			})
		}
	}

	summary.TotalIncome = totalIncome
	summary.TotalCost = totalCost
	if totalIncome.GreaterThan(totalCost) {
		summary.Profit = totalIncome.Sub(totalCost)
	} else {
		summary.Loss = totalCost.Sub(totalIncome)
	}

	// The tax base is the profit rounded to whole złoty; tax is rounded the
	// same way after applying the rate.
	summary.TaxBase = utils.WholeZloty(summary.Profit).IntPart()
	summary.TaxDue = utils.WholeZloty(decimal.NewFromInt(summary.TaxBase).Mul(statutoryRate)).IntPart()

	return TaxForms{PIT38: summary, PITZG: pitzg}
}
