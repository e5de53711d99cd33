package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/username/pitfolio/backend/src/models"
	"github.com/username/pitfolio/backend/src/utils"
)

// TransactionStore persists canonical transactions. The hash_id UNIQUE
// constraint makes uploads idempotent: re-importing the same broker export
// inserts nothing new.
type TransactionStore struct {
	db *sql.DB
}

func NewTransactionStore(db *sql.DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// InsertTransactions stores the batch inside one SQL transaction and returns
// how many rows were actually new. Duplicates are skipped silently.
func (s *TransactionStore) InsertTransactions(txs []models.CanonicalTransaction) (int, error) {
	dbTx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.Prepare(`
		INSERT OR IGNORE INTO processed_transactions
			(hash_id, source, trade_date, ticker, isin, product_name, transaction_type,
			 quantity, price, amount, fee, local_fee, withholding_tax, currency, raw_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, tx := range txs {
		res, err := stmt.Exec(
			tx.HashID,
			tx.Source,
			utils.FormatDate(tx.TradeDate),
			tx.Ticker,
			tx.ISIN,
			tx.ProductName,
			string(tx.Type),
			tx.Quantity.String(),
			tx.Price.String(),
			tx.Amount.String(),
			tx.Fee.String(),
			tx.LocalFee.String(),
			tx.WithholdingTax.String(),
			tx.Currency,
			tx.RawText,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting transaction %s: %w", tx.HashID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("reading rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := dbTx.Commit(); err != nil {
		return 0, fmt.Errorf("committing transactions: %w", err)
	}
	return inserted, nil
}

// ListTransactions returns every stored transaction ordered by trade date,
// then insertion order, which is the replay order the calculation expects.
func (s *TransactionStore) ListTransactions() ([]models.CanonicalTransaction, error) {
	rows, err := s.db.Query(`
		SELECT hash_id, source, trade_date, ticker, isin, product_name, transaction_type,
		       quantity, price, amount, fee, local_fee, withholding_tax, currency, raw_text
		FROM processed_transactions
		ORDER BY trade_date ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying transactions: %w", err)
	}
	defer rows.Close()

	var out []models.CanonicalTransaction
	for rows.Next() {
		var (
			tx       models.CanonicalTransaction
			date     string
			txType   string
			quantity string
			price    string
			amount   string
			fee      string
			localFee string
			withheld string
		)
		if err := rows.Scan(&tx.HashID, &tx.Source, &date, &tx.Ticker, &tx.ISIN,
			&tx.ProductName, &txType, &quantity, &price, &amount, &fee, &localFee,
			&withheld, &tx.Currency, &tx.RawText); err != nil {
			return nil, fmt.Errorf("scanning transaction row: %w", err)
		}
		tx.TradeDate, err = time.Parse(utils.DefaultDateFormat, date)
		if err != nil {
			return nil, fmt.Errorf("parsing trade date %q: %w", date, err)
		}
		tx.Type = models.TransactionType(txType)
		for _, field := range []struct {
			raw string
			dst *decimal.Decimal
		}{
			{quantity, &tx.Quantity},
			{price, &tx.Price},
			{amount, &tx.Amount},
			{fee, &tx.Fee},
			{localFee, &tx.LocalFee},
			{withheld, &tx.WithholdingTax},
		} {
			d, err := decimal.NewFromString(field.raw)
			if err != nil {
				return nil, fmt.Errorf("parsing decimal %q: %w", field.raw, err)
			}
			*field.dst = d
		}
		out = append(out, tx)
	}
	return out, rows.Err()
}

// CountTransactions returns the number of stored rows.
func (s *TransactionStore) CountTransactions() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM processed_transactions`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting transactions: %w", err)
	}
	return n, nil
}

// DeleteAllTransactions wipes the store. Used by the delete-all endpoint.
func (s *TransactionStore) DeleteAllTransactions() error {
	if _, err := s.db.Exec(`DELETE FROM processed_transactions`); err != nil {
		return fmt.Errorf("deleting transactions: %w", err)
	}
	return nil
}
