package services

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/username/pitfolio/backend/src/database"
	"github.com/username/pitfolio/backend/src/fx"
	"github.com/username/pitfolio/backend/src/logger"
)

func init() {
	logger.InitLogger("error")
}

func newTestService(t *testing.T) CalculationService {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("opening in-memory db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	migrations, err := filepath.Glob(filepath.Join("..", "..", "db", "migrations", "*.up.sql"))
	if err != nil || len(migrations) == 0 {
		t.Fatalf("locating migrations: %v (found %d)", err, len(migrations))
	}
	for _, path := range migrations {
		ddl, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("reading migration %s: %v", path, err)
		}
		if _, err := db.Exec(string(ddl)); err != nil {
			t.Fatalf("applying migration %s: %v", path, err)
		}
	}

	flatRate := fx.RateSourceFunc(func(string, time.Time) (decimal.Decimal, error) {
		return decimal.RequireFromString("4.00"), nil
	})
	return NewCalculationService(
		database.NewTransactionStore(db),
		flatRate,
		"PLN",
		10,
		decimal.RequireFromString("0.19"),
		cache.New(DefaultCacheExpiration, CacheCleanupInterval),
	)
}

const sampleExport = `Action,Time,ISIN,Ticker,Name,No. of shares,Price / share,Currency (Price / share),Withholding tax,Currency (Withholding tax)
Market buy,2023-01-10 14:30:02,US0378331005,AAPL,Apple Inc.,10,10,USD,,
Market sell,2023-03-10 09:12:44,US0378331005,AAPL,Apple Inc.,10,15,USD,,
Dividend (Dividend),2023-05-02 00:00:00,US0378331005,AAPL,Apple Inc.,100,1,USD,15,USD
`

func TestProcessUploadAndReport(t *testing.T) {
	svc := newTestService(t)

	result, err := svc.ProcessUpload(strings.NewReader(sampleExport), "trading212")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.ParsedCount != 3 || result.InsertedCount != 3 {
		t.Errorf("parsed/inserted = %d/%d, want 3/3", result.ParsedCount, result.InsertedCount)
	}
	if result.RunID == "" {
		t.Error("run id must be set")
	}
	if len(result.Years) != 1 || result.Years[0] != 2023 {
		t.Errorf("years = %v, want [2023]", result.Years)
	}

	report, err := svc.GetTaxReport(2023)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	// Sell 10*15*4 = 600 against cost 10*10*4 = 400.
	if want := decimal.NewFromInt(600); !report.Forms.PIT38.TotalIncome.Equal(want) {
		t.Errorf("income = %s, want %s", report.Forms.PIT38.TotalIncome, want)
	}
	if want := decimal.NewFromInt(400); !report.Forms.PIT38.TotalCost.Equal(want) {
		t.Errorf("cost = %s, want %s", report.Forms.PIT38.TotalCost, want)
	}
	if report.Forms.PIT38.TaxBase != 200 || report.Forms.PIT38.TaxDue != 38 {
		t.Errorf("tax base/due = %d/%d, want 200/38", report.Forms.PIT38.TaxBase, report.Forms.PIT38.TaxDue)
	}
	if len(report.RealizedGains) != 1 {
		t.Errorf("realized gains = %d, want 1", len(report.RealizedGains))
	}
	if len(report.Dividends) != 1 {
		t.Errorf("dividend records = %d, want 1", len(report.Dividends))
	}
}

func TestProcessUploadDeduplicatesAcrossUploads(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.ProcessUpload(strings.NewReader(sampleExport), "trading212"); err != nil {
		t.Fatalf("first upload: %v", err)
	}
	result, err := svc.ProcessUpload(strings.NewReader(sampleExport), "trading212")
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if result.InsertedCount != 0 || result.DuplicateCount != 3 {
		t.Errorf("inserted/duplicates = %d/%d, want 0/3", result.InsertedCount, result.DuplicateCount)
	}
}

func TestGetTaxReportWithoutData(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.GetTaxReport(2023); !errors.Is(err, ErrNoTransactions) {
		t.Errorf("err = %v, want ErrNoTransactions", err)
	}
}

func TestProcessUploadUnknownSource(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.ProcessUpload(strings.NewReader(sampleExport), "degiro"); !errors.Is(err, ErrParsingFailed) {
		t.Errorf("err = %v, want ErrParsingFailed", err)
	}
}

func TestDeleteAllData(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.ProcessUpload(strings.NewReader(sampleExport), "trading212"); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := svc.DeleteAllData(); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetYears(); !errors.Is(err, ErrNoTransactions) {
		t.Errorf("err after delete = %v, want ErrNoTransactions", err)
	}
}
