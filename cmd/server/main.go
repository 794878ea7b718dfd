package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/tradeledger/internal/config"
	"github.com/aristath/tradeledger/internal/database"
	"github.com/aristath/tradeledger/internal/events"
	"github.com/aristath/tradeledger/internal/modules/cashbook"
	"github.com/aristath/tradeledger/internal/modules/margin"
	"github.com/aristath/tradeledger/internal/modules/portfolio"
	"github.com/aristath/tradeledger/internal/modules/securities"
	"github.com/aristath/tradeledger/internal/modules/trades"
	"github.com/aristath/tradeledger/internal/scheduler"
	"github.com/aristath/tradeledger/internal/server"
	"github.com/aristath/tradeledger/internal/services"
	"github.com/aristath/tradeledger/pkg/logger"
)

func main() {
	// Initialize logger
	log := logger.New(logger.Config{
		Level:  "info",
		Pretty: true,
	})

	log.Info().Msg("Starting trade ledger")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	// Initialize ledger database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	eventManager := events.NewManager(log)

	// Portfolio accounting state
	book, err := cashbook.NewCashBook(cfg.AccountCurrency)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create cash book")
	}
	universe := securities.NewSecurityManager()

	marginCall := margin.NewMarginCallModel(nil, cfg.FillWaitTimeout, log)
	manager := portfolio.NewManager(book, universe, marginCall, eventManager, log)

	marginModel, err := newMarginModel(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to configure margin model")
	}
	manager.SetDefaultMarginModel(marginModel)

	builder, err := newTradeBuilder(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create trade builder")
	}

	// the in-process router executes margin-call liquidations against the
	// books directly
	marginCall.SetSubmitter(services.NewExecutionService(manager, builder, log))

	tradeRepo := trades.NewTradeRepository(db.Conn(), log)
	builder.OnTradeClosed(func(trade trades.Trade) {
		if err := tradeRepo.Insert(trade); err != nil {
			log.Error().Err(err).Str("symbol", trade.Symbol.Value).Msg("Failed to journal trade")
		}
		eventManager.Emit(events.TradeClosed, "trades", map[string]interface{}{
			"symbol":      trade.Symbol.Value,
			"profit_loss": trade.ProfitLoss,
		})
	})

	// Initialize scheduler
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	sweep := scheduler.NewSettlementSweepJob(book, manager.Unsettled, eventManager, log)
	if err := sched.AddJob(cfg.SettlementSweepSchedule, sweep); err != nil {
		log.Fatal().Err(err).Msg("Failed to register settlement sweep")
	}

	// Initialize HTTP server
	srv := server.New(server.Config{
		Port:             cfg.Port,
		Log:              log,
		PortfolioHandler: portfolio.NewHandler(manager, log),
		TradesHandler:    trades.NewHandler(builder, tradeRepo, log),
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

func newTradeBuilder(cfg *config.Config, log zerolog.Logger) (*trades.Builder, error) {
	grouping, err := trades.ParseGroupingMethod(cfg.GroupingMethod)
	if err != nil {
		return nil, err
	}
	matching, err := trades.ParseMatchingOrder(cfg.MatchingOrder)
	if err != nil {
		return nil, err
	}

	return trades.NewBuilder(trades.Config{
		Grouping:         grouping,
		Matching:         matching,
		LiveMode:         cfg.LiveMode,
		MaxTradeCount:    cfg.MaxTradeCount,
		MaxTradeAge:      cfg.MaxTradeAge,
		FeeCacheCapacity: cfg.FeeCacheCapacity,
	}, log), nil
}

// newMarginModel builds the security margin model from configuration,
// preferring a single leverage value when one is set.
func newMarginModel(cfg *config.Config) (*margin.SecurityMarginModel, error) {
	var (
		model *margin.SecurityMarginModel
		err   error
	)
	if cfg.Leverage > 0 {
		model, err = margin.NewSecurityMarginModelFromLeverage(cfg.Leverage)
	} else {
		model, err = margin.NewSecurityMarginModel(cfg.InitialMarginFraction, cfg.MaintenanceMarginFraction)
	}
	if err != nil {
		return nil, err
	}
	model.MarginCallBuffer = cfg.MarginCallBuffer
	return model, nil
}
