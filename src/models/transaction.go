package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the discriminator of the canonical transaction union.
type TransactionType string

const (
	TypeBuy            TransactionType = "BUY"
	TypeSell           TransactionType = "SELL"
	TypeDividend       TransactionType = "DIVIDEND"
	TypeWithholdingTax TransactionType = "WITHHOLDING_TAX"
)

// CanonicalTransaction is the unified, normalized representation of a broker
// event. Each parser is responsible for populating as many of these fields as
// possible directly from the source file, including the classification.
//
// For BUY/SELL rows Quantity and Price are set and Amount is Quantity*Price.
// For DIVIDEND rows Amount is the gross dividend; WithholdingTax carries the
// tax withheld at source when the broker reports both on one row. A separate
// WITHHOLDING_TAX row carries only Amount.
//
// Fees split by denomination: Fee is in the trade currency and gets converted
// alongside the trade, LocalFee is already in PLN and bypasses conversion.
// Trading 212 reports currency conversion fees in the account currency, so a
// PLN fee on a USD trade must not be multiplied by the USD rate.
type CanonicalTransaction struct {
	Source         string          `json:"source"`
	TradeDate      time.Time       `json:"trade_date"`
	Ticker         string          `json:"ticker"`
	ISIN           string          `json:"isin"`
	ProductName    string          `json:"product_name"`
	Type           TransactionType `json:"transaction_type"`
	Quantity       decimal.Decimal `json:"quantity"`
	Price          decimal.Decimal `json:"price"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Fee            decimal.Decimal `json:"fee"`       // denominated in Currency
	LocalFee       decimal.Decimal `json:"local_fee"` // denominated in PLN, never converted
	WithholdingTax decimal.Decimal `json:"withholding_tax"`
	RawText        string          `json:"raw_text"`
	HashID         string          `json:"hash_id"`
}

// IsTrade reports whether the transaction moves securities (BUY or SELL).
func (t *CanonicalTransaction) IsTrade() bool {
	return t.Type == TypeBuy || t.Type == TypeSell
}

// Year returns the calendar year of the trade date.
func (t *CanonicalTransaction) Year() int {
	return t.TradeDate.Year()
}
