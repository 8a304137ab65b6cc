package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"thisisme.app/internal/auth"
	"thisisme.app/internal/consent"
	"thisisme.app/internal/httpapi"
	"thisisme.app/internal/obs"
)

var version = "0.3.0"

func main() {
	_ = godotenv.Load()

	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("THISISME_COMMIT"))

	secret := os.Getenv("THISISME_AUTH_SECRET")
	if secret == "" {
		log.Fatal("THISISME_AUTH_SECRET is required")
	}
	codec, err := auth.NewTokenCodec([]byte(secret))
	if err != nil {
		log.Fatalf("token codec: %v", err)
	}

	// Postgres is optional; without a DSN everything runs on memory stores.
	var db *sql.DB
	if dsn := os.Getenv("THISISME_PG_DSN"); dsn != "" {
		db, err = sql.Open("pgx", dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	var users auth.UserStore
	var consentStore consent.Store
	if db != nil {
		users = auth.NewPGUserStore(db)
		consentStore = consent.NewPGStore(db)
	} else {
		users = auth.NewMemoryUserStore()
		consentStore = consent.NewMemoryStore()
	}

	// Refresh revocation: redis when configured, else postgres, else memory.
	var registry auth.RefreshRegistry
	var rdb *redis.Client
	switch {
	case os.Getenv("THISISME_REDIS_URL") != "":
		opts, err := redis.ParseURL(os.Getenv("THISISME_REDIS_URL"))
		if err != nil {
			log.Fatalf("parse redis url: %v", err)
		}
		rdb = redis.NewClient(opts)
		registry = auth.NewRedisRegistry(rdb)
	case db != nil:
		registry = auth.NewPGRefreshRegistry(db)
	default:
		registry = auth.NewMemoryRegistry()
	}

	consentSvc := consent.NewService(consentStore)
	authSvc := auth.NewService(users, registry, codec,
		auth.WithConsentRecorder(consentSvc))

	api := httpapi.New(authSvc, consentSvc, httpapi.ReadyProbe{DB: db}, version)

	srv := &http.Server{
		Addr:              ":8080",
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting thisisme-api %s on %s", version, srv.Addr)
	obs.SetReady(true)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")
	obs.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Println("Stopped")
}
