package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	mw "github.com/openshelf/library-api/internal/api/middlewares"
	"github.com/openshelf/library-api/internal/api/router"
	"github.com/openshelf/library-api/internal/audit"
	"github.com/openshelf/library-api/internal/maintenance"
	"github.com/openshelf/library-api/internal/repository/sqlconnect"
	s3store "github.com/openshelf/library-api/internal/storage/s3"
	"github.com/openshelf/library-api/internal/validate"
)

func main() {
	_ = godotenv.Load(".env")

	if err := validate.Env(); err != nil {
		log.Fatalf("config: %v", err)
	}
	for _, warn := range validate.HardeningWarnings(os.Getenv("APP_ENV")) {
		log.Printf("[WARN] %s", warn)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	db, err := sqlconnect.ConnectDB()
	if err != nil {
		log.Fatalf("Postgres connection failed: %v", err)
	}
	defer db.Close()
	fmt.Println("Connected to Postgres")

	rdb := newRedisClient()
	if err := validate.PingRedis(rdb, 5*time.Second); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	fmt.Println("Connected to Redis")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Profile photo storage is optional; the photo endpoints 503 without it.
	var s3c *s3store.S3Client
	if os.Getenv("AWS_BUCKET") != "" {
		s3c, err = s3store.NewClient(ctx)
		if err != nil {
			log.Fatalf("S3 client init failed: %v", err)
		}
	}

	// Async audit writer and nightly audit pruning.
	audit.Start(db, 4096, 2)
	defer audit.Shutdown()
	maintenance.StartAuditRetention(ctx, db, 90, "03:00", "UTC")

	tb := mw.NewRedisTokenBucket(rdb, 5, 20, mw.PerIPKey("tb"))
	sw := mw.NewRedisSlidingWindow(rdb, 3000, 60*time.Minute, mw.PerIPKey("sw"))

	handler := mw.Chain(
		router.Router(db, rdb, s3c),
		mw.Recovery,
		mw.RequestID,
		mw.Cors,
		mw.ResponseTimeMiddleware,
		mw.HPP(mw.DefaultHPPOptions()),
		tb.Middleware,
		sw.Middleware,
		mw.BodySizeLimit,
		mw.Compression,
		mw.SecurityHeaders,
	)

	server := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutCtx); err != nil {
			log.Printf("graceful shutdown: %v", err)
		}
	}()

	fmt.Println("Server is running on port:", port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalln("Error starting server:", err)
	}
}

// newRedisClient supports a single REDIS_URL (rediss:// for managed Redis)
// or split REDIS_ADDR/REDIS_USER/REDIS_PASSWORD fields.
func newRedisClient() *redis.Client {
	if url := os.Getenv("REDIS_URL"); url != "" {
		opt, err := redis.ParseURL(url)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		if opt.TLSConfig == nil && os.Getenv("REDIS_TLS") == "1" {
			opt.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		opt.DialTimeout = 5 * time.Second
		opt.ReadTimeout = 1 * time.Second
		opt.WriteTimeout = 1 * time.Second
		return redis.NewClient(opt)
	}

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		log.Fatal("missing Redis config: set REDIS_URL or REDIS_ADDR")
	}
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     os.Getenv("REDIS_USER"),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           0,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  500 * time.Millisecond,
		WriteTimeout: 500 * time.Millisecond,
	})
}
