package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDividendCreditBelowCap(t *testing.T) {
	conv := newTestConverter(map[string]string{"2023-05-02": "4.00"})
	agg := NewDividendAggregator(conv, dec("0.19"))

	// 100 USD gross, 15 USD withheld at source, rate 4.00.
	if err := agg.RecordDividend("US0378331005", "Apple Inc.", "US", day(2023, 5, 2), dec("100"), dec("15"), "USD"); err != nil {
		t.Fatalf("record: %v", err)
	}

	totals := agg.Totals()[YearCountry{Year: 2023, Country: "US"}]
	if want := dec("400"); !totals.GrossDividends.Equal(want) {
		t.Errorf("gross = %s, want %s", totals.GrossDividends, want)
	}
	if want := dec("60"); !totals.WithholdingPaid.Equal(want) {
		t.Errorf("withheld = %s, want %s", totals.WithholdingPaid, want)
	}
	// Cap is 400*0.19 = 76; withheld 60 stays below it.
	if want := dec("60"); !totals.CreditableTax.Equal(want) {
		t.Errorf("creditable = %s, want %s", totals.CreditableTax, want)
	}
}

func TestDividendCreditCapped(t *testing.T) {
	conv := newTestConverter(map[string]string{"2023-05-02": "4.00"})
	agg := NewDividendAggregator(conv, dec("0.19"))

	// 30% withheld exceeds the 19% statutory rate.
	if err := agg.RecordDividend("US0378331005", "Apple Inc.", "US", day(2023, 5, 2), dec("100"), dec("30"), "USD"); err != nil {
		t.Fatalf("record: %v", err)
	}

	totals := agg.Totals()[YearCountry{Year: 2023, Country: "US"}]
	if want := dec("120"); !totals.WithholdingPaid.Equal(want) {
		t.Errorf("withheld = %s, want %s", totals.WithholdingPaid, want)
	}
	if want := dec("76"); !totals.CreditableTax.Equal(want) {
		t.Errorf("creditable = %s, want %s", totals.CreditableTax, want)
	}
}

func TestDividendCapAppliedOnYearlyTotals(t *testing.T) {
	conv := newTestConverter(map[string]string{
		"2023-03-01": "4.00",
		"2023-09-01": "4.00",
	})
	agg := NewDividendAggregator(conv, dec("0.19"))

	// First payment over-withheld, second under-withheld. Capping the yearly
	// totals credits more than capping each payment would.
	if err := agg.RecordDividend("US0378331005", "Apple Inc.", "US", day(2023, 3, 1), dec("100"), dec("30"), "USD"); err != nil {
		t.Fatalf("record 1: %v", err)
	}
	if err := agg.RecordDividend("US5949181045", "Microsoft Corp.", "US", day(2023, 9, 1), dec("100"), dec("5"), "USD"); err != nil {
		t.Fatalf("record 2: %v", err)
	}

	totals := agg.Totals()[YearCountry{Year: 2023, Country: "US"}]
	// Yearly: gross 800, withheld 140, cap 152, so the full 140 is creditable.
	if want := dec("140"); !totals.CreditableTax.Equal(want) {
		t.Errorf("creditable = %s, want %s", totals.CreditableTax, want)
	}
}

func TestDividendBucketsSplitByYearAndCountry(t *testing.T) {
	conv := newTestConverter(map[string]string{
		"2022-06-01": "4.50",
		"2023-06-01": "4.00",
	})
	agg := NewDividendAggregator(conv, dec("0.19"))

	if err := agg.RecordDividend("US0378331005", "Apple Inc.", "US", day(2022, 6, 1), dec("100"), decimal.Zero, "USD"); err != nil {
		t.Fatalf("record US 2022: %v", err)
	}
	if err := agg.RecordDividend("DE0007164600", "SAP SE", "DE", day(2023, 6, 1), dec("100"), decimal.Zero, "EUR"); err != nil {
		t.Fatalf("record DE 2023: %v", err)
	}

	totals := agg.Totals()
	if len(totals) != 2 {
		t.Fatalf("buckets = %d, want 2", len(totals))
	}
	if got := totals[YearCountry{Year: 2022, Country: "US"}].GrossDividends; !got.Equal(dec("450")) {
		t.Errorf("US 2022 gross = %s, want 450", got)
	}
	if got := totals[YearCountry{Year: 2023, Country: "DE"}].GrossDividends; !got.Equal(dec("400")) {
		t.Errorf("DE 2023 gross = %s, want 400", got)
	}
}

func TestStandaloneWithholdingRow(t *testing.T) {
	conv := newTestConverter(map[string]string{"2023-05-02": "4.00"})
	agg := NewDividendAggregator(conv, dec("0.19"))

	if err := agg.RecordDividend("US0378331005", "Apple Inc.", "US", day(2023, 5, 2), dec("100"), decimal.Zero, "USD"); err != nil {
		t.Fatalf("record dividend: %v", err)
	}
	if err := agg.RecordWithholding("US", day(2023, 5, 2), dec("15"), "USD"); err != nil {
		t.Fatalf("record withholding: %v", err)
	}

	totals := agg.Totals()[YearCountry{Year: 2023, Country: "US"}]
	if want := dec("60"); !totals.WithholdingPaid.Equal(want) {
		t.Errorf("withheld = %s, want %s", totals.WithholdingPaid, want)
	}
	if want := dec("60"); !totals.CreditableTax.Equal(want) {
		t.Errorf("creditable = %s, want %s", totals.CreditableTax, want)
	}
}
