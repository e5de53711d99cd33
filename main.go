package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/pitfolio/backend/src/config"
	"github.com/username/pitfolio/backend/src/database"
	"github.com/username/pitfolio/backend/src/fx"
	"github.com/username/pitfolio/backend/src/handlers"
	"github.com/username/pitfolio/backend/src/logger"
	"github.com/username/pitfolio/backend/src/services"
)

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag, Content-Disposition")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("Pitfolio backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath, config.Cfg.MigrationsPath)

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	txStore := database.NewTransactionStore(database.DB)
	rateStore := database.NewRateStore(database.DB)
	nbpClient := fx.NewNBPClient(config.Cfg.NBPBaseURL, config.Cfg.NBPTimeout, rateStore)

	calcService := services.NewCalculationService(
		txStore,
		nbpClient,
		config.Cfg.LocalCurrency,
		config.Cfg.RateLookbackDays,
		config.Cfg.StatutoryTaxRate,
		reportCache,
	)

	uploadHandler := handlers.NewUploadHandler(calcService)
	reportHandler := handlers.NewReportHandler(calcService)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "Pitfolio Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/upload", uploadHandler.HandleUpload)
		r.Delete("/transactions/all", uploadHandler.HandleDeleteAll)

		r.Get("/report/years", reportHandler.HandleGetYears)
		r.Get("/report/{year}", reportHandler.HandleGetTaxReport)
		r.Get("/report/{year}/xlsx", reportHandler.HandleDownloadTaxReportXLSX)
		r.Get("/report/{year}/gains", reportHandler.HandleGetRealizedGains)
		r.Get("/report/{year}/dividends", reportHandler.HandleGetDividendSummary)
		r.Get("/holdings", reportHandler.HandleGetHoldings)
	})

	server := &http.Server{
		Addr:         ":" + config.Cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logger.L.Info("Server listening", "port", config.Cfg.Port)
	if err := server.ListenAndServe(); err != nil {
		logger.L.Error("Server failed", "error", err)
	}
}
