package services

import (
	"errors"
	"io"

	"github.com/username/pitfolio/backend/src/calculator"
	"github.com/username/pitfolio/backend/src/exporters"
)

var (
	ErrParsingFailed     = errors.New("parsing failed")
	ErrCalculationFailed = errors.New("calculation failed")
	ErrNoTransactions    = errors.New("no transactions stored")
)

// UploadResult summarises one broker-export import.
type UploadResult struct {
	RunID          string `json:"run_id"`
	ParsedCount    int    `json:"parsed_count"`
	InsertedCount  int    `json:"inserted_count"`
	DuplicateCount int    `json:"duplicate_count"`
	Years          []int  `json:"years"`
}

// TaxReport is the full per-year output: the form figures plus the detail
// rows they were computed from.
type TaxReport struct {
	Year          int                         `json:"year"`
	Forms         exporters.TaxForms          `json:"forms"`
	RealizedGains []calculator.RealizedGain   `json:"realized_gains"`
	Dividends     []calculator.DividendRecord `json:"dividends"`
}

// CalculationService is the core application surface: imports broker exports
// and derives tax reports from everything stored so far.
type CalculationService interface {
	ProcessUpload(fileReader io.Reader, source string) (*UploadResult, error)
	GetYears() ([]int, error)
	GetTaxReport(year int) (*TaxReport, error)
	WriteTaxReportXLSX(year int, w io.Writer) error
	GetHoldings() (map[string][]calculator.Lot, error)
	DeleteAllData() error
}
