// Package main runs the holder-sentinel service: holder classification,
// sell monitoring sessions, and alert dispatch behind a small HTTP API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"holder-sentinel/internal/activity"
	"holder-sentinel/internal/alert"
	"holder-sentinel/internal/classifier"
	"holder-sentinel/internal/config"
	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/ledger"
	"holder-sentinel/internal/logging"
	"holder-sentinel/internal/monitor"
	"holder-sentinel/internal/observability"
	"holder-sentinel/internal/storage"
	chstore "holder-sentinel/internal/storage/clickhouse"
	"holder-sentinel/internal/storage/memory"
	"holder-sentinel/internal/storage/migrations"
	pgstore "holder-sentinel/internal/storage/postgres"
)

func main() {
	// .env is optional; system env wins over file entries.
	_ = godotenv.Load()

	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := buildServer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build server")
	}
	defer cleanup()

	if err := srv.run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("server error")
	}
	logger.Info().Msg("shutdown complete")
}

// stores groups the storage backends the server wires together.
type stores struct {
	alerts          storage.AlertStore
	classifications storage.ClassificationStore
	observations    storage.BalanceObservationStore
}

// server holds the wired components and the HTTP surface.
type server struct {
	cfg      *config.Config
	network  domain.Network
	logger   zerolog.Logger
	service  *classifier.Service
	manager  *monitor.Manager
	stores   stores
	hub      *alert.WSHub
	feed     *ledger.WalletFeed // nil without a ws endpoint
	upgrader websocket.Upgrader

	// watched maps wallet address -> session key for routing ws feed
	// notifications back to the owning session.
	mu      sync.Mutex
	watched map[string]watchKey

	startedAt time.Time
}

type watchKey struct {
	token   string
	network domain.Network
}

func buildServer(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*server, func(), error) {
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	gateway := ledger.NewHTTPClient(cfg.Gateway.RPCURL,
		ledger.WithTimeout(cfg.Gateway.Timeout),
		ledger.WithMaxRetries(cfg.Gateway.MaxRetries),
		ledger.WithRetryDelay(cfg.Gateway.RetryDelay),
	)

	st, storeCleanup, err := buildStores(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanups = append(cleanups, storeCleanup)

	var cache classifier.ResultCache
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cleanups = append(cleanups, func() { client.Close() })
		cache = classifier.NewRedisCache(client)
	}

	classifierCfg := classifier.DefaultConfig()
	classifierCfg.TopN = cfg.Classifier.TopN
	classifierCfg.BatchSize = cfg.Classifier.BatchSize
	classifierCfg.BatchPause = cfg.Classifier.BatchPause
	classifierCfg.HistoryLimit = cfg.Classifier.HistoryLimit

	summarizer := activity.NewSummarizer(gateway, logger)
	service := classifier.NewService(classifier.ServiceOptions{
		Classifier:  classifier.New(classifierCfg, summarizer, logger),
		Gateway:     gateway,
		Store:       st.classifications,
		Cache:       cache,
		CacheTTL:    cfg.Classifier.CacheTTL,
		HolderLimit: cfg.Classifier.HolderLimit,
		Logger:      logger,
	})

	hub := alert.NewWSHub(logger)
	cleanups = append(cleanups, hub.Close)

	channels := []alert.Channel{
		alert.NewStoreChannel(st.alerts),
		hub,
	}
	if cfg.Telegram.Enabled {
		channels = append(channels, alert.NewTelegramChannel(cfg.Telegram.BotToken, cfg.Telegram.ChatID))
	}
	if cfg.Kafka.Enabled {
		kafkaChannel, err := alert.NewKafkaChannel(alert.KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			RequiredAcks: cfg.Kafka.RequiredAcks,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("kafka channel: %w", err)
		}
		cleanups = append(cleanups, func() { kafkaChannel.Close() })
		channels = append(channels, kafkaChannel)
	}

	dispatcher := alert.NewDispatcher(channels, 10*time.Second, logger)
	dispatcher.Subscribe(func(a *domain.SellAlert) {
		logger.Info().
			Str("alert_id", a.AlertID).
			Str("wallet", a.WalletAddress).
			Str("token", a.TokenAddress).
			Float64("amount_sold", a.AmountSold).
			Msg("alert dispatched")
	})

	manager := monitor.NewManager(monitor.Options{
		Gateway:      gateway,
		Dispatcher:   dispatcher,
		Observations: st.observations,
		Venues:       monitor.NewVenueRegistry(cfg.Venues),
		Detector: monitor.DetectorConfig{
			MinDecreasePct:   cfg.Monitor.MinDecreasePct,
			TransferLookback: cfg.Monitor.TransferLookback,
			WorkerLimit:      cfg.Monitor.WorkerLimit,
			CheckTimeout:     cfg.Monitor.CheckTimeout,
		},
		TickInterval: cfg.Monitor.TickInterval,
		Logger:       logger,
	})
	cleanups = append(cleanups, manager.StopAll)

	srv := &server{
		cfg:     cfg,
		network: domain.Network(cfg.Network),
		logger:  logger.With().Str("component", "server").Logger(),
		service: service,
		manager: manager,
		stores:  st,
		hub:     hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		watched:   make(map[string]watchKey),
		startedAt: time.Now(),
	}

	if cfg.Gateway.WSURL != "" {
		feed, err := ledger.NewWalletFeed(ctx, cfg.Gateway.WSURL, nil)
		if err != nil {
			// The feed only accelerates re-checks; polling covers
			// everything without it.
			logger.Warn().Err(err).Msg("wallet feed unavailable, relying on polling alone")
		} else {
			srv.feed = feed
			cleanups = append(cleanups, func() { feed.Close() })
			go srv.routeNotifications(feed)
		}
	}

	return srv, cleanup, nil
}

// buildStores selects the storage backends. The memory backend keeps
// everything in process; the postgres backend puts alerts and runs in
// PostgreSQL and, when a DSN is configured, observations in ClickHouse.
func buildStores(ctx context.Context, cfg *config.Config) (stores, func(), error) {
	if cfg.Storage.Backend == "memory" {
		return stores{
			alerts:          memory.NewAlertStore(),
			classifications: memory.NewClassificationStore(),
			observations:    memory.NewBalanceObservationStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
	if err != nil {
		return stores{}, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return stores{}, nil, fmt.Errorf("postgres migrations: %w", err)
	}

	st := stores{
		alerts:          pgstore.NewAlertStore(pool),
		classifications: pgstore.NewClassificationStore(pool),
		observations:    memory.NewBalanceObservationStore(),
	}
	cleanup := func() { pool.Close() }

	if cfg.Storage.ClickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		if err != nil {
			pool.Close()
			return stores{}, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		st.observations = chstore.NewBalanceObservationStore(conn)
		cleanup = func() {
			conn.Close()
			pool.Close()
		}
	}

	return st, cleanup, nil
}

// run serves HTTP until the context is cancelled, then shuts down
// gracefully.
func (s *server) run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/classify", s.handleClassify)
	mux.HandleFunc("/monitor/start", s.handleMonitorStart)
	mux.HandleFunc("/monitor/stop", s.handleMonitorStop)
	mux.HandleFunc("/alerts", s.handleAlerts)
	mux.HandleFunc("/ws", s.handleWS)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// routeNotifications forwards wallet feed pushes to the owning session.
func (s *server) routeNotifications(feed *ledger.WalletFeed) {
	for n := range feed.Notifications() {
		s.mu.Lock()
		key, ok := s.watched[n.WalletAddress]
		s.mu.Unlock()
		if ok {
			s.manager.Notify(key.token, key.network, n.WalletAddress)
		}
	}
}

func (s *server) resolveTokenAndNetwork(r *http.Request) (string, domain.Network, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		return "", "", fmt.Errorf("token query parameter is required")
	}
	if err := ledger.ValidateAddress(token); err != nil {
		return "", "", fmt.Errorf("invalid token address: %w", err)
	}

	network := s.network
	if v := r.URL.Query().Get("network"); v != "" {
		network = domain.Network(v)
		if !network.IsValid() {
			return "", "", fmt.Errorf("invalid network %q", v)
		}
	}
	return token, network, nil
}

func (s *server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token, network, err := s.resolveTokenAndNetwork(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	start := time.Now()
	result, err := s.service.ClassifyHolders(r.Context(), token, network)
	if err != nil {
		s.logger.Error().Err(err).Str("token", token).Msg("classification failed")
		http.Error(w, "classification failed", http.StatusBadGateway)
		return
	}
	observability.RecordClassificationRun(network.String(), time.Since(start).Seconds())
	observability.RecordWalletsClassified(domain.RoleTeam.String(), result.Counts.Team)
	observability.RecordWalletsClassified(domain.RoleBundle.String(), result.Counts.Bundle)
	observability.RecordWalletsClassified(domain.RoleMEV.String(), result.Counts.MEV)

	writeJSON(w, result)
}

func (s *server) handleMonitorStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token, network, err := s.resolveTokenAndNetwork(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.service.ClassifyHolders(r.Context(), token, network)
	if err != nil {
		s.logger.Error().Err(err).Str("token", token).Msg("classification failed")
		http.Error(w, "classification failed", http.StatusBadGateway)
		return
	}

	wallets := make([]domain.ClassifiedWallet, 0,
		len(result.TeamWallets)+len(result.BundleWallets)+len(result.MEVWallets))
	wallets = append(wallets, result.TeamWallets...)
	wallets = append(wallets, result.BundleWallets...)
	wallets = append(wallets, result.MEVWallets...)

	if len(wallets) == 0 {
		http.Error(w, "no classified wallets to monitor", http.StatusUnprocessableEntity)
		return
	}

	s.manager.StartMonitoring(wallets, token, network)
	s.watchWallets(wallets, token, network)

	writeJSON(w, map[string]interface{}{
		"token":   token,
		"network": network,
		"wallets": len(wallets),
	})
}

func (s *server) handleMonitorStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token, network, err := s.resolveTokenAndNetwork(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.manager.Stop(token, network)
	s.unwatchToken(token, network)
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	token, network, err := s.resolveTokenAndNetwork(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	alerts, err := s.stores.alerts.GetByToken(r.Context(), token, network)
	if err != nil {
		s.logger.Error().Err(err).Str("token", token).Msg("alert lookup failed")
		http.Error(w, "alert lookup failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, alerts)
}

func (s *server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]interface{}{
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
		"network":        s.network,
		"sessions":       s.manager.Status(),
		"ws_clients":     s.hub.ClientCount(),
	})
}

func (s *server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	s.hub.Add(conn)
}

// watchWallets maps the session's wallets to its key and resubscribes the
// feed to the full watched set.
func (s *server) watchWallets(wallets []domain.ClassifiedWallet, token string, network domain.Network) {
	s.mu.Lock()
	key := watchKey{token: token, network: network}
	for addr, k := range s.watched {
		if k == key {
			delete(s.watched, addr)
		}
	}
	for _, wallet := range wallets {
		s.watched[wallet.Address] = key
	}
	all := make([]string, 0, len(s.watched))
	for addr := range s.watched {
		all = append(all, addr)
	}
	s.mu.Unlock()

	if s.feed != nil {
		if err := s.feed.Subscribe(all); err != nil {
			s.logger.Warn().Err(err).Msg("feed resubscription failed")
		}
	}
}

func (s *server) unwatchToken(token string, network domain.Network) {
	s.mu.Lock()
	key := watchKey{token: token, network: network}
	for addr, k := range s.watched {
		if k == key {
			delete(s.watched, addr)
		}
	}
	all := make([]string, 0, len(s.watched))
	for addr := range s.watched {
		all = append(all, addr)
	}
	s.mu.Unlock()

	if s.feed != nil {
		if err := s.feed.Subscribe(all); err != nil {
			s.logger.Warn().Err(err).Msg("feed resubscription failed")
		}
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "encoding failed", http.StatusInternalServerError)
	}
}
