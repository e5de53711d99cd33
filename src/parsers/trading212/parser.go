package trading212

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/pitfolio/backend/src/logger"
	"github.com/username/pitfolio/backend/src/models"
)

// Trading212 exports carry a varying column set depending on account
// activity, so rows are addressed by header name instead of position.
type Trading212Parser struct{}

func NewParser() *Trading212Parser {
	return &Trading212Parser{}
}

// Timestamps appear in a couple of shapes across export versions.
var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	time.RFC3339,
	"2006-01-02",
}

func parseTime(raw string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp: %q", raw)
}

type row struct {
	header map[string]int
	fields []string
}

func (r row) get(column string) string {
	idx, ok := r.header[column]
	if !ok || idx >= len(r.fields) {
		return ""
	}
	return strings.TrimSpace(r.fields[idx])
}

func (r row) decimal(column string) (decimal.Decimal, error) {
	raw := r.get(column)
	if raw == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(raw)
}

func (p *Trading212Parser) Parse(file io.Reader) ([]models.CanonicalTransaction, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headerFields, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	header := make(map[string]int, len(headerFields))
	for i, name := range headerFields {
		header[strings.TrimSpace(name)] = i
	}
	if _, ok := header["Action"]; !ok {
		return nil, fmt.Errorf("not a Trading212 export: missing Action column")
	}

	var canonicalTxs []models.CanonicalTransaction
	line := 1
	for {
		fields, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record at line %d: %w", line+1, err)
		}
		line++

		tx, ok, err := p.convertRow(row{header: header, fields: fields})
		if err != nil {
			logger.L.Warn("skipping unparseable row", "line", line, "error", err)
			continue
		}
		if ok {
			canonicalTxs = append(canonicalTxs, tx)
		}
	}
	return canonicalTxs, nil
}

func (p *Trading212Parser) convertRow(r row) (models.CanonicalTransaction, bool, error) {
	action := r.get("Action")
	if action == "" {
		return models.CanonicalTransaction{}, false, nil
	}

	var txType models.TransactionType
	switch {
	case action == "Market buy" || action == "Limit buy":
		txType = models.TypeBuy
	case action == "Market sell" || action == "Limit sell":
		txType = models.TypeSell
	case strings.Contains(action, "Dividend"):
		txType = models.TypeDividend
	default:
		// Deposits, interest, currency conversions and the like carry no
		// tax-relevant position data.
		return models.CanonicalTransaction{}, false, nil
	}

	date, err := parseTime(r.get("Time"))
	if err != nil {
		return models.CanonicalTransaction{}, false, err
	}

	quantity, err := r.decimal("No. of shares")
	if err != nil {
		return models.CanonicalTransaction{}, false, fmt.Errorf("invalid share count: %w", err)
	}
	price, err := r.decimal("Price / share")
	if err != nil {
		return models.CanonicalTransaction{}, false, fmt.Errorf("invalid price: %w", err)
	}
	currency := r.get("Currency (Price / share)")
	if currency == "" {
		currency = "PLN"
	}
	if txType != models.TypeDividend && !quantity.IsPositive() {
		return models.CanonicalTransaction{}, false, fmt.Errorf("non-positive share count %q for %s", r.get("No. of shares"), action)
	}

	// Trading 212 reports each fee with its own currency column. Conversion
	// fees come in the account currency (PLN) and must not be converted at
	// the trade currency's rate.
	fee := decimal.Zero
	localFee := decimal.Zero
	for _, column := range []string{"Currency conversion fee", "French transaction tax"} {
		amount, err := r.decimal(column)
		if err != nil {
			return models.CanonicalTransaction{}, false, fmt.Errorf("invalid %s: %w", strings.ToLower(column), err)
		}
		if amount.IsZero() {
			continue
		}
		switch feeCurrency := r.get("Currency (" + column + ")"); feeCurrency {
		case "", "PLN":
			localFee = localFee.Add(amount)
		case currency:
			fee = fee.Add(amount)
		default:
			return models.CanonicalTransaction{}, false, fmt.Errorf("%s in %s does not match trade currency %s", strings.ToLower(column), feeCurrency, currency)
		}
	}

	withheld, err := r.decimal("Withholding tax")
	if err != nil {
		return models.CanonicalTransaction{}, false, fmt.Errorf("invalid withholding tax: %w", err)
	}

	rawText := strings.Join(r.fields, ",")
	tx := models.CanonicalTransaction{
		Source:         "trading212",
		TradeDate:      date,
		Ticker:         r.get("Ticker"),
		ISIN:           r.get("ISIN"),
		ProductName:    r.get("Name"),
		Type:           txType,
		Quantity:       quantity,
		Price:          price,
		Amount:         quantity.Mul(price),
		Fee:            fee,
		LocalFee:       localFee,
		WithholdingTax: withheld,
		Currency:       currency,
		RawText:        rawText,
		HashID:         hashRow(rawText),
	}
	return tx, true, nil
}

func hashRow(rawText string) string {
	sum := sha256.Sum256([]byte(rawText))
	return hex.EncodeToString(sum[:])
}
