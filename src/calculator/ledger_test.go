package calculator

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/pitfolio/backend/src/fx"
	"github.com/username/pitfolio/backend/src/logger"
)

func init() {
	logger.InitLogger("error")
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// fixedRates serves one rate per date regardless of currency.
func fixedRates(rates map[string]string) fx.RateSource {
	return fx.RateSourceFunc(func(currency string, date time.Time) (decimal.Decimal, error) {
		if r, ok := rates[date.Format("2006-01-02")]; ok {
			return dec(r), nil
		}
		return decimal.Decimal{}, fx.ErrRateNotFound
	})
}

func newTestConverter(rates map[string]string) *fx.Converter {
	return fx.NewConverter(fixedRates(rates), "PLN", 0)
}

func TestDisposeFIFOAcrossLots(t *testing.T) {
	conv := newTestConverter(map[string]string{
		"2023-01-10": "4.00",
		"2023-02-10": "4.10",
		"2023-03-10": "4.05",
	})
	l := NewLotLedger("US0378331005", conv)

	if err := l.Acquire(dec("10"), dec("10"), "USD", day(2023, 1, 10), decimal.Zero, decimal.Zero); err != nil {
		t.Fatalf("acquire 1: %v", err)
	}
	if err := l.Acquire(dec("5"), dec("12"), "USD", day(2023, 2, 10), decimal.Zero, decimal.Zero); err != nil {
		t.Fatalf("acquire 2: %v", err)
	}

	gain, err := l.Dispose(dec("12"), dec("15"), "USD", day(2023, 3, 10), decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("dispose: %v", err)
	}

	// 10*10*4.00 from the first lot plus 2*12*4.10 from the second.
	if want := dec("498.4"); !gain.Cost.Equal(want) {
		t.Errorf("cost = %s, want %s", gain.Cost, want)
	}
	if want := dec("729.0"); !gain.Proceeds.Equal(want) {
		t.Errorf("proceeds = %s, want %s", gain.Proceeds, want)
	}
	if want := dec("230.6"); !gain.Gain.Equal(want) {
		t.Errorf("gain = %s, want %s", gain.Gain, want)
	}

	// 3 units of the second lot remain at unit cost 12*4.10.
	lots := l.OpenLots()
	if len(lots) != 1 {
		t.Fatalf("open lots = %d, want 1", len(lots))
	}
	if want := dec("3"); !lots[0].Quantity.Equal(want) {
		t.Errorf("remaining quantity = %s, want %s", lots[0].Quantity, want)
	}
	if want := dec("49.2"); !lots[0].UnitCost.Equal(want) {
		t.Errorf("remaining unit cost = %s, want %s", lots[0].UnitCost, want)
	}
}

func TestDisposeInsufficientLots(t *testing.T) {
	conv := newTestConverter(map[string]string{
		"2023-01-10": "4.00",
		"2023-03-10": "4.05",
	})
	l := NewLotLedger("US0378331005", conv)

	if err := l.Acquire(dec("15"), dec("10"), "USD", day(2023, 1, 10), decimal.Zero, decimal.Zero); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	_, err := l.Dispose(dec("20"), dec("15"), "USD", day(2023, 3, 10), decimal.Zero, decimal.Zero)
	var insufficient *InsufficientLotsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want InsufficientLotsError", err)
	}
	if !insufficient.Requested.Equal(dec("20")) {
		t.Errorf("requested = %s, want 20", insufficient.Requested)
	}
	if !insufficient.Available.Equal(dec("15")) {
		t.Errorf("available = %s, want 15", insufficient.Available)
	}

	// The failed sell must not have consumed anything.
	if held := l.Held(); !held.Equal(dec("15")) {
		t.Errorf("held after failed dispose = %s, want 15", held)
	}
}

func TestAcquireFoldsFeeIntoUnitCost(t *testing.T) {
	conv := newTestConverter(map[string]string{"2023-01-10": "4.00"})
	l := NewLotLedger("US0378331005", conv)

	if err := l.Acquire(dec("10"), dec("10"), "USD", day(2023, 1, 10), dec("2.5"), decimal.Zero); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	lots := l.OpenLots()
	// (10*10 + 2.5) * 4.00 / 10 per unit.
	if want := dec("41"); !lots[0].UnitCost.Equal(want) {
		t.Errorf("unit cost = %s, want %s", lots[0].UnitCost, want)
	}
}

func TestDisposeSubtractsFeeFromProceeds(t *testing.T) {
	conv := newTestConverter(map[string]string{
		"2023-01-10": "4.00",
		"2023-03-10": "4.00",
	})
	l := NewLotLedger("US0378331005", conv)

	if err := l.Acquire(dec("10"), dec("10"), "USD", day(2023, 1, 10), decimal.Zero, decimal.Zero); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	gain, err := l.Dispose(dec("10"), dec("12"), "USD", day(2023, 3, 10), dec("1.5"), decimal.Zero)
	if err != nil {
		t.Fatalf("dispose: %v", err)
	}
	// 10*12*4.00 minus the 1.5 USD fee converted at the same rate.
	if want := dec("474"); !gain.Proceeds.Equal(want) {
		t.Errorf("proceeds = %s, want %s", gain.Proceeds, want)
	}
}

func TestAcquireRejectsNonPositiveQuantity(t *testing.T) {
	conv := newTestConverter(map[string]string{"2023-01-10": "4.00"})
	l := NewLotLedger("US0378331005", conv)

	for _, q := range []string{"0", "-3"} {
		err := l.Acquire(dec(q), dec("10"), "USD", day(2023, 1, 10), decimal.Zero, decimal.Zero)
		var invalid *InvalidQuantityError
		if !errors.As(err, &invalid) {
			t.Fatalf("Acquire(%s) err = %v, want InvalidQuantityError", q, err)
		}
		if !invalid.Quantity.Equal(dec(q)) {
			t.Errorf("reported quantity = %s, want %s", invalid.Quantity, q)
		}
	}
	if held := l.Held(); !held.IsZero() {
		t.Errorf("held after rejected acquires = %s, want 0", held)
	}
}

func TestDisposeRejectsNonPositiveQuantity(t *testing.T) {
	conv := newTestConverter(map[string]string{"2023-01-10": "4.00"})
	l := NewLotLedger("US0378331005", conv)

	if err := l.Acquire(dec("5"), dec("10"), "USD", day(2023, 1, 10), decimal.Zero, decimal.Zero); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	_, err := l.Dispose(dec("0"), dec("12"), "USD", day(2023, 1, 10), decimal.Zero, decimal.Zero)
	var invalid *InvalidQuantityError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want InvalidQuantityError", err)
	}
	if held := l.Held(); !held.Equal(dec("5")) {
		t.Errorf("held after rejected dispose = %s, want 5", held)
	}
}

func TestLocalFeeBypassesConversion(t *testing.T) {
	conv := newTestConverter(map[string]string{
		"2023-01-10": "4.00",
		"2023-03-10": "4.00",
	})
	l := NewLotLedger("US0378331005", conv)

	// A 1.50 PLN account-currency fee on a 10 x 150 USD buy enters the cost
	// basis as-is: 10*150*4.00 + 1.50.
	if err := l.Acquire(dec("10"), dec("150"), "USD", day(2023, 1, 10), decimal.Zero, dec("1.50")); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	lots := l.OpenLots()
	if want := dec("600.15"); !lots[0].UnitCost.Equal(want) {
		t.Errorf("unit cost = %s, want %s", lots[0].UnitCost, want)
	}

	gain, err := l.Dispose(dec("10"), dec("160"), "USD", day(2023, 3, 10), decimal.Zero, dec("1.50"))
	if err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if want := dec("6398.5"); !gain.Proceeds.Equal(want) {
		t.Errorf("proceeds = %s, want %s", gain.Proceeds, want)
	}
	if want := dec("6001.5"); !gain.Cost.Equal(want) {
		t.Errorf("cost = %s, want %s", gain.Cost, want)
	}
}

func TestQuantityConservation(t *testing.T) {
	conv := newTestConverter(map[string]string{
		"2023-01-10": "4.00",
		"2023-02-10": "4.10",
		"2023-03-10": "4.05",
		"2023-04-10": "4.20",
	})
	l := NewLotLedger("US0378331005", conv)

	acquired := decimal.Zero
	for _, q := range []string{"10", "5", "7"} {
		if err := l.Acquire(dec(q), dec("10"), "USD", day(2023, 1, 10), decimal.Zero, decimal.Zero); err != nil {
			t.Fatalf("acquire: %v", err)
		}
		acquired = acquired.Add(dec(q))
	}

	disposed := decimal.Zero
	for _, q := range []string{"4", "9"} {
		if _, err := l.Dispose(dec(q), dec("11"), "USD", day(2023, 3, 10), decimal.Zero, decimal.Zero); err != nil {
			t.Fatalf("dispose: %v", err)
		}
		disposed = disposed.Add(dec(q))
	}

	if held := l.Held(); !held.Equal(acquired.Sub(disposed)) {
		t.Errorf("held = %s, want %s", held, acquired.Sub(disposed))
	}
}
