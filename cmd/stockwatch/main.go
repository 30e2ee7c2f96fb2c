package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/aquadrop/refill-orders/internal/config"
	kafkax "github.com/aquadrop/refill-orders/internal/kafka"
	"github.com/aquadrop/refill-orders/internal/logger"
	"github.com/aquadrop/refill-orders/internal/orders"
	"github.com/aquadrop/refill-orders/internal/redisx"
	"github.com/aquadrop/refill-orders/internal/stockwatch"
)

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func mustAtoi(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

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

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &stockwatch.Service{
		Redis:     rdb,
		Log:       log,
		Threshold: cfg.LowStockThreshold,
		Name:      cfg.ServiceName + "-stockwatch",
	}

	group := getenv("STOCKWATCH_GROUP", "stockwatch-svc")
	workers := mustAtoi(os.Getenv("STOCKWATCH_WORKERS"), 4)
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicStockAdjusted, workers, log)

	go func() {
		log.Info("stockwatch consumer started",
			zap.String("group", group),
			zap.String("topic", orders.TopicStockAdjusted),
		)
		if err := cons.Start(ctx, svc.HandleStockAdjusted); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info("shutting down consumer...")
	cancel()
}
