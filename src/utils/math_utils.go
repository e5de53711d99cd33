package utils

import "github.com/shopspring/decimal"

// RoundMoney rounds a monetary amount to grosz precision (2 decimal places).
func RoundMoney(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// WholeZloty rounds an amount to full złoty, the rounding the PIT forms
// require for tax bases and tax due (art. 63 § 1 Ordynacja podatkowa:
// half a złoty rounds up).
func WholeZloty(v decimal.Decimal) decimal.Decimal {
	return v.Round(0)
}
