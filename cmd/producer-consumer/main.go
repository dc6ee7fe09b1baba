package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"bounded-buffer/coordination/slots"
	"bounded-buffer/coordination/slots/application"
	"bounded-buffer/coordination/slots/domain"
	"bounded-buffer/coordination/slots/infra"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := readConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	var statsStore domain.StatsStore
	if cfg.statsEnabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.statsRedisAddr,
			Password: cfg.statsRedisPassword,
			DB:       cfg.statsRedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			log.Fatalf("redis stats ping error: %v", err)
		}

		statsStore = infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(cfg.statsPrefix),
			infra.WithStatsTTL(cfg.statsTTL),
			infra.WithStatsBucket(cfg.statsBucket),
			infra.WithStatsTrackWorkers(cfg.statsTrackWorkers),
		)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	registry := infra.NewRegistry()
	registry.StartJanitor(ctx)

	// o handler de status só conhece o coordenador depois do Create
	var current atomic.Pointer[application.Coordinator]
	if cfg.statusAddr != "" {
		srv := &http.Server{
			Addr: cfg.statusAddr,
			Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				slots.StatusHandler(current.Load()).ServeHTTP(w, r)
			}),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       90 * time.Second,
		}

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		go func() {
			log.Printf("status listening on %s", cfg.statusAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("status server error: %v", err)
			}
		}()
	}

	var logger *log.Logger
	if cfg.trace {
		logger = log.New(os.Stdout, "", 0)
	}

	log.Printf("slots: name=%q capacity=%d producers=%d consumers=%d iterations=%d", cfg.name, cfg.capacity, cfg.producers, cfg.consumers, cfg.iterations)
	log.Printf("pacing: pace=%s acquireTimeout=%s", cfg.pace, cfg.acquireTimeout)
	log.Printf("slots-stats: enabled=%v redisAddr=%q bucket=%q ttl=%s trackWorkers=%v", cfg.statsEnabled, cfg.statsRedisAddr, cfg.statsBucket, cfg.statsTTL, cfg.statsTrackWorkers)

	rep, err := slots.Run(ctx, registry, slots.Plan{
		Name:           cfg.name,
		Capacity:       cfg.capacity,
		Producers:      cfg.producers,
		Consumers:      cfg.consumers,
		Iterations:     cfg.iterations,
		Pace:           cfg.pace,
		AcquireTimeout: cfg.acquireTimeout,
		Stats:          statsStore,
		Logger:         logger,
		OnReady:        func(c *application.Coordinator) { current.Store(c) },
	})
	log.Printf("done: produced=%d consumed=%d empty=%d filled=%d", rep.Produced, rep.Consumed, rep.Empty, rep.Filled)
	if err != nil {
		log.Fatalf("run error: %v", err)
	}
}

type config struct {
	name           string
	capacity       int
	producers      int
	consumers      int
	iterations     int
	pace           time.Duration
	acquireTimeout time.Duration
	trace          bool
	statusAddr     string

	statsEnabled       bool
	statsRedisAddr     string
	statsRedisPassword string
	statsRedisDB       int
	statsPrefix        string
	statsTTL           time.Duration
	statsBucket        string
	statsTrackWorkers  bool
}

func readConfig() (config, error) {
	cfg := config{}
	cfg.name = getenvDefault("SLOTS_NAME", slots.DefaultName)
	cfg.capacity = getenvIntDefault("SLOTS_CAPACITY", slots.DefaultCapacity)
	cfg.producers = getenvIntDefault("SLOTS_PRODUCERS", 1)
	cfg.consumers = getenvIntDefault("SLOTS_CONSUMERS", 1)
	cfg.iterations = getenvIntDefault("SLOTS_ITERATIONS", slots.DefaultIterations)
	// o programa original dormia 1µs entre iterações
	cfg.pace = getenvDurationDefault("SLOTS_PACE", time.Microsecond)
	cfg.acquireTimeout = getenvDurationDefault("SLOTS_ACQUIRE_TIMEOUT", 0)
	cfg.trace = getenvBoolDefault("SLOTS_TRACE", true)
	cfg.statusAddr = os.Getenv("STATUS_ADDR")

	cfg.statsEnabled = getenvBoolDefault("SLOTS_STATS_ENABLED", false)
	cfg.statsRedisAddr = getenvDefault("SLOTS_STATS_REDIS_ADDR", "")
	cfg.statsRedisPassword = os.Getenv("SLOTS_STATS_REDIS_PASSWORD")
	cfg.statsRedisDB = getenvIntDefault("SLOTS_STATS_REDIS_DB", 0)
	cfg.statsPrefix = getenvDefault("SLOTS_STATS_PREFIX", "slots:stats")
	cfg.statsTTL = getenvDurationDefault("SLOTS_STATS_TTL", 24*time.Hour)
	cfg.statsBucket = getenvDefault("SLOTS_STATS_BUCKET", "minute")
	cfg.statsTrackWorkers = getenvBoolDefault("SLOTS_STATS_TRACK_WORKERS", false)

	if cfg.statsEnabled && strings.TrimSpace(cfg.statsRedisAddr) == "" {
		return config{}, errors.New("SLOTS_STATS_REDIS_ADDR is required when SLOTS_STATS_ENABLED=true")
	}
	if cfg.capacity <= 0 {
		return config{}, errors.New("SLOTS_CAPACITY must be > 0")
	}
	if cfg.iterations < 0 {
		return config{}, errors.New("SLOTS_ITERATIONS must be >= 0")
	}
	if cfg.producers < 0 || cfg.consumers < 0 {
		return config{}, errors.New("SLOTS_PRODUCERS and SLOTS_CONSUMERS must be >= 0")
	}

	plan := slots.Plan{Capacity: cfg.capacity, Producers: cfg.producers, Consumers: cfg.consumers, Iterations: cfg.iterations}
	if err := plan.Validate(); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvIntDefault(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvBoolDefault(k string, def bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvDurationDefault(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
