// Package monitor runs polling sessions over classified wallets and turns
// verified balance decreases into sell alerts.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/ledger"
	"holder-sentinel/internal/observability"
	"holder-sentinel/internal/storage"
)

// Dispatcher receives every verified sell alert. Fire and forget from the
// detection pipeline's point of view.
type Dispatcher interface {
	Dispatch(alert *domain.SellAlert)
}

// Options contains configuration for creating a Manager.
type Options struct {
	Gateway      ledger.Gateway
	Dispatcher   Dispatcher
	Observations storage.BalanceObservationStore // nil disables persistence
	Venues       *VenueRegistry                  // nil uses the default registry
	Detector     DetectorConfig
	TickInterval time.Duration // default 30s
	Logger       zerolog.Logger
}

// SessionHandle identifies one started session. Stale handles, superseded by
// a later StartMonitoring for the same key, stop nothing.
type SessionHandle struct {
	TokenAddress string
	Network      domain.Network
	sess         *session
}

// SessionStatus describes one active session for status reporting.
type SessionStatus struct {
	TokenAddress string         `json:"token_address"`
	Network      domain.Network `json:"network"`
	Wallets      int            `json:"wallets"`
	StartedAt    int64          `json:"started_at"`
}

// Manager owns every monitoring session, keyed by (token, network). At most
// one session runs per key; starting a second one supersedes the first.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*session

	detector     *Detector
	dispatcher   Dispatcher
	observations storage.BalanceObservationStore
	interval     time.Duration
	logger       zerolog.Logger
}

// NewManager creates a new session manager.
func NewManager(opts Options) *Manager {
	interval := opts.TickInterval
	if interval <= 0 {
		interval = DefaultDetectorConfig().TickInterval
	}
	detectorConfig := opts.Detector
	if detectorConfig.TickInterval <= 0 {
		detectorConfig.TickInterval = interval
	}
	return &Manager{
		sessions:     make(map[string]*session),
		detector:     NewDetector(detectorConfig, opts.Gateway, opts.Venues, opts.Logger),
		dispatcher:   opts.Dispatcher,
		observations: opts.Observations,
		interval:     interval,
		logger:       opts.Logger.With().Str("component", "monitor").Logger(),
	}
}

func sessionKey(tokenAddress string, network domain.Network) string {
	return tokenAddress + "|" + network.String()
}

// StartMonitoring begins a polling session over the given wallets. An
// existing session for the same (token, network) key is stopped first; the
// two never run concurrently.
func (m *Manager) StartMonitoring(wallets []domain.ClassifiedWallet, tokenAddress string, network domain.Network) *SessionHandle {
	key := sessionKey(tokenAddress, network)

	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[key]; ok {
		m.logger.Info().
			Str("token", tokenAddress).
			Str("network", network.String()).
			Msg("superseding existing session")
		stopSession(existing)
	}

	sess := newSession(tokenAddress, network, wallets, m.detector, m.dispatcher, m.observations, m.interval, m.logger)
	ctx, cancel := context.WithCancel(context.Background())
	sess.cancel = cancel
	m.sessions[key] = sess
	observability.SetActiveSessions(len(m.sessions))

	go sess.run(ctx)

	return &SessionHandle{TokenAddress: tokenAddress, Network: network, sess: sess}
}

// StopMonitoring stops the session the handle refers to. A nil or stale
// handle is a no-op.
func (m *Manager) StopMonitoring(h *SessionHandle) {
	if h == nil {
		return
	}
	key := sessionKey(h.TokenAddress, h.Network)

	m.mu.Lock()
	defer m.mu.Unlock()

	if current, ok := m.sessions[key]; ok && current == h.sess {
		stopSession(current)
		delete(m.sessions, key)
		observability.SetActiveSessions(len(m.sessions))
	}
}

// Stop stops the session for a key. Stopping an idle key is a no-op, not an
// error.
func (m *Manager) Stop(tokenAddress string, network domain.Network) {
	key := sessionKey(tokenAddress, network)

	m.mu.Lock()
	defer m.mu.Unlock()

	if sess, ok := m.sessions[key]; ok {
		stopSession(sess)
		delete(m.sessions, key)
		observability.SetActiveSessions(len(m.sessions))
	}
}

// StopAll stops every active session. Used on shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, sess := range m.sessions {
		stopSession(sess)
		delete(m.sessions, key)
	}
	observability.SetActiveSessions(0)
}

// Notify queues a wallet for an early re-check in its session, if one is
// active. Best effort.
func (m *Manager) Notify(tokenAddress string, network domain.Network, wallet string) {
	key := sessionKey(tokenAddress, network)

	m.mu.Lock()
	sess, ok := m.sessions[key]
	m.mu.Unlock()

	if ok {
		sess.notify(wallet)
	}
}

// Status lists every active session.
func (m *Manager) Status() []SessionStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	statuses := make([]SessionStatus, 0, len(m.sessions))
	for _, sess := range m.sessions {
		statuses = append(statuses, SessionStatus{
			TokenAddress: sess.tokenAddress,
			Network:      sess.network,
			Wallets:      sess.walletCount,
			StartedAt:    sess.startedAt,
		})
	}
	return statuses
}

// stopSession cancels the loop and waits for it to drain, guaranteeing no
// tick applies after this returns.
func stopSession(s *session) {
	s.cancel()
	<-s.done
}
