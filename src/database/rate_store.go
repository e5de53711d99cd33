package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/pitfolio/backend/src/utils"
)

// RateStore persists fetched exchange rates so that restarts and repeated
// calculations do not hit the NBP API again for the same (currency, date).
type RateStore struct {
	db *sql.DB
}

func NewRateStore(db *sql.DB) *RateStore {
	return &RateStore{db: db}
}

func (s *RateStore) GetRate(currency string, date time.Time) (decimal.Decimal, bool, error) {
	var mid string
	err := s.db.QueryRow(
		`SELECT mid FROM exchange_rates WHERE currency = ? AND rate_date = ?`,
		currency, utils.FormatDate(date),
	).Scan(&mid)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Decimal{}, false, nil
	}
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("querying exchange rate: %w", err)
	}
	d, err := decimal.NewFromString(mid)
	if err != nil {
		return decimal.Decimal{}, false, fmt.Errorf("parsing stored rate %q: %w", mid, err)
	}
	return d, true, nil
}

func (s *RateStore) SaveRate(currency string, date time.Time, rate decimal.Decimal) error {
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO exchange_rates (currency, rate_date, mid) VALUES (?, ?, ?)`,
		currency, utils.FormatDate(date), rate.String(),
	)
	if err != nil {
		return fmt.Errorf("saving exchange rate: %w", err)
	}
	return nil
}
