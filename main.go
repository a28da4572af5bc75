package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/patrickmn/go-cache"
	"github.com/username/optionvisor/backend/src/broker"
	"github.com/username/optionvisor/backend/src/config"
	"github.com/username/optionvisor/backend/src/database"
	"github.com/username/optionvisor/backend/src/handlers"
	"github.com/username/optionvisor/backend/src/logger"
	"github.com/username/optionvisor/backend/src/processors"
	"github.com/username/optionvisor/backend/src/security"
	"github.com/username/optionvisor/backend/src/services"
	"golang.org/x/time/rate"
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
		if origin == config.Cfg.FrontendBaseURL {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
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

	logger.L.Info("OptionVisor backend server starting...")

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	reportCache := cache.New(services.DefaultCacheExpiration, services.CacheCleanupInterval)

	authService := security.NewAuthService(config.Cfg.JWTSecret, config.Cfg.AccessTokenExpiry)

	brokerClient := broker.NewClient(config.Cfg.BrokerTokenPath, config.Cfg.BrokerHTTPTimeout)
	accountsClient := broker.NewAccountsClient(brokerClient, config.Cfg.BrokerBaseURL, config.Cfg.BrokerAccountIndex)
	marketDataClient := broker.NewMarketDataClient(brokerClient, config.Cfg.MarketDataBaseURL)

	classifier := processors.NewTradeClassifier(config.Cfg.ExpirationKeyword, config.Cfg.AssignmentKeyword)
	transactionService := services.NewTransactionService(
		accountsClient,
		processors.NewLegNormalizer(),
		processors.NewLotCombiner(),
		classifier,
		processors.NewOptionMatcher(classifier),
		services.ReconciliationPolicy{
			CommissionPerShare:  config.Cfg.CommissionPerShare,
			WindowLookbackDays:  config.Cfg.WindowLookbackDays,
			WindowLookaheadDays: config.Cfg.WindowLookaheadDays,
			RealizedFilterMode:  config.Cfg.RealizedFilterMode,
		},
		reportCache,
	)

	chainService := services.NewOptionChainService(marketDataClient)

	authHandler := handlers.NewAuthHandler(authService)
	txHandler := handlers.NewTransactionHandler(transactionService)
	marketHandler := handlers.NewMarketHandler(marketDataClient, chainService)
	reconciliationHandler := handlers.NewReconciliationHandler()

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(enableCORS)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "OptionVisor Backend is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(handlers.AuthMiddleware(authService))

			r.Get("/transactions/options", txHandler.HandleGetOptionTransactions)
			r.Get("/transactions/history", txHandler.HandleGetTransactionHistory)
			r.Get("/quotes/{symbol}", marketHandler.HandleGetQuote)
			r.Get("/options/{symbol}/highest-return-put", marketHandler.HandleGetHighestReturnPut)
			r.Get("/reconciliations", reconciliationHandler.HandleListRuns)
			r.Get("/reconciliations/{runID}", reconciliationHandler.HandleGetRun)
		})
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
