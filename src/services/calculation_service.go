package services

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/username/pitfolio/backend/src/calculator"
	"github.com/username/pitfolio/backend/src/database"
	"github.com/username/pitfolio/backend/src/exporters"
	"github.com/username/pitfolio/backend/src/fx"
	"github.com/username/pitfolio/backend/src/logger"
	"github.com/username/pitfolio/backend/src/parsers"
)

const (
	ckFullRun = "res_full_run"

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// fullRun is everything one complete replay of the stored stream produces.
// It is cached until the next upload or delete changes the stream.
type fullRun struct {
	set       *calculator.TaxRecordSet
	dividends []calculator.DividendRecord
	holdings  map[string][]calculator.Lot
}

type calculationServiceImpl struct {
	txStore       *database.TransactionStore
	rateSource    fx.RateSource
	localCurrency string
	lookbackDays  int
	statutoryRate decimal.Decimal
	reportCache   *cache.Cache
}

func NewCalculationService(
	txStore *database.TransactionStore,
	rateSource fx.RateSource,
	localCurrency string,
	lookbackDays int,
	statutoryRate decimal.Decimal,
	reportCache *cache.Cache,
) CalculationService {
	return &calculationServiceImpl{
		txStore:       txStore,
		rateSource:    rateSource,
		localCurrency: localCurrency,
		lookbackDays:  lookbackDays,
		statutoryRate: statutoryRate,
		reportCache:   reportCache,
	}
}

func (s *calculationServiceImpl) ProcessUpload(fileReader io.Reader, source string) (*UploadResult, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger.L.Info("ProcessUpload START", "runID", runID, "source", source)

	parser, err := parsers.GetParser(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	canonicalTxs, err := parser.Parse(fileReader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}

	inserted, err := s.txStore.InsertTransactions(canonicalTxs)
	if err != nil {
		return nil, fmt.Errorf("storing transactions: %w", err)
	}

	// The stored stream changed, so every derived result is stale.
	s.reportCache.Delete(ckFullRun)

	run, err := s.run()
	if err != nil {
		return nil, err
	}

	logger.L.Info("ProcessUpload DONE",
		"runID", runID,
		"parsed", len(canonicalTxs),
		"inserted", inserted,
		"duration", time.Since(startTime).String(),
	)
	return &UploadResult{
		RunID:          runID,
		ParsedCount:    len(canonicalTxs),
		InsertedCount:  inserted,
		DuplicateCount: len(canonicalTxs) - inserted,
		Years:          run.set.Years(),
	}, nil
}

// run replays the full stored stream through a fresh orchestrator. The
// single-use orchestrator and the per-run rate memoization both live inside
// this call; only the finished result is cached.
func (s *calculationServiceImpl) run() (*fullRun, error) {
	if cached, found := s.reportCache.Get(ckFullRun); found {
		return cached.(*fullRun), nil
	}

	txs, err := s.txStore.ListTransactions()
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	if len(txs) == 0 {
		return nil, ErrNoTransactions
	}

	converter := fx.NewConverter(s.rateSource, s.localCurrency, s.lookbackDays)
	orchestrator := calculator.NewOrchestrator(converter, s.statutoryRate)
	if err := orchestrator.Replay(txs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalculationFailed, err)
	}
	set, err := orchestrator.Finalize()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCalculationFailed, err)
	}

	run := &fullRun{
		set:       set,
		dividends: orchestrator.DividendRecords(),
		holdings:  orchestrator.Holdings(),
	}
	s.reportCache.Set(ckFullRun, run, DefaultCacheExpiration)
	return run, nil
}

func (s *calculationServiceImpl) GetYears() ([]int, error) {
	run, err := s.run()
	if err != nil {
		return nil, err
	}
	return run.set.Years(), nil
}

func (s *calculationServiceImpl) GetTaxReport(year int) (*TaxReport, error) {
	run, err := s.run()
	if err != nil {
		return nil, err
	}

	var dividends []calculator.DividendRecord
	for _, d := range run.dividends {
		if d.Date.Year() == year {
			dividends = append(dividends, d)
		}
	}

	return &TaxReport{
		Year:          year,
		Forms:         exporters.BuildTaxForms(run.set, year, s.statutoryRate),
		RealizedGains: run.set.RealizedGains(year),
		Dividends:     dividends,
	}, nil
}

func (s *calculationServiceImpl) WriteTaxReportXLSX(year int, w io.Writer) error {
	run, err := s.run()
	if err != nil {
		return err
	}
	forms := exporters.BuildTaxForms(run.set, year, s.statutoryRate)
	return exporters.WriteXLSX(forms, w)
}

func (s *calculationServiceImpl) GetHoldings() (map[string][]calculator.Lot, error) {
	run, err := s.run()
	if err != nil {
		return nil, err
	}
	return run.holdings, nil
}

func (s *calculationServiceImpl) DeleteAllData() error {
	if err := s.txStore.DeleteAllTransactions(); err != nil {
		return err
	}
	s.reportCache.Delete(ckFullRun)
	logger.L.Info("All stored transactions deleted")
	return nil
}
