package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aquadrop/refill-orders/internal/config"
	"github.com/aquadrop/refill-orders/internal/httpx"
	kafkax "github.com/aquadrop/refill-orders/internal/kafka"
	"github.com/aquadrop/refill-orders/internal/logger"
	"github.com/aquadrop/refill-orders/internal/orders"
	"github.com/aquadrop/refill-orders/internal/postgres"
	"github.com/aquadrop/refill-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatal("db schema", zap.Error(err))
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	pAccepted := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderAccepted, 1024)
	pAccepted.Start(ctx)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024)
	pStatus.Start(ctx)
	pStock := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockAdjusted, 1024)
	pStock.Start(ctx)

	// Engine & handler
	repo := &orders.Repo{DB: db, CutoffHour: cfg.CutoffHour, Loc: cfg.Location()}
	router := httpx.NewRouter(log)
	oh := &httpx.OrdersHandler{
		Service:     repo,
		Redis:       rdb,
		Name:        cfg.ServiceName,
		PubAccepted: pAccepted,
		PubStatus:   pStatus,
		PubStock:    pStock,
	}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	pAccepted.Close()
	pStatus.Close()
	pStock.Close()
	cancel()
	pAccepted.WaitClosed()
	pStatus.WaitClosed()
	pStock.WaitClosed()
}
