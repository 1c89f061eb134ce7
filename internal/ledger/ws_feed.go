package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// FeedConfig configures the wallet feed behavior.
type FeedConfig struct {
	// ReconnectDelay is initial delay before reconnect attempt.
	ReconnectDelay time.Duration
	// MaxReconnectDelay is maximum delay between reconnect attempts.
	MaxReconnectDelay time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
}

// DefaultFeedConfig returns default feed configuration.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ReconnectDelay:    1 * time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

// WalletNotification signals that a subscribed wallet's token account
// changed. The monitor uses it to schedule an early re-check; the polling
// loop remains the source of truth, so a dropped notification is harmless.
type WalletNotification struct {
	WalletAddress string `json:"wallet"`
	Slot          int64  `json:"slot"`
}

// WalletFeed streams account-change notifications for a set of wallets over
// WebSocket, reconnecting with capped backoff and resubscribing after a
// reconnect.
type WalletFeed struct {
	endpoint string
	config   FeedConfig

	conn   *websocket.Conn
	connMu sync.Mutex
	closed atomic.Bool

	// wallets currently subscribed, for resubscription after reconnect
	wallets   []string
	walletsMu sync.Mutex

	out  chan WalletNotification
	done chan struct{}
	wg   sync.WaitGroup
}

// NewWalletFeed creates a feed, connects, and starts its read loop.
func NewWalletFeed(ctx context.Context, endpoint string, config *FeedConfig) (*WalletFeed, error) {
	cfg := DefaultFeedConfig()
	if config != nil {
		cfg = *config
	}

	f := &WalletFeed{
		endpoint: endpoint,
		config:   cfg,
		out:      make(chan WalletNotification, 1024),
		done:     make(chan struct{}),
	}

	if err := f.connect(ctx); err != nil {
		return nil, err
	}

	f.wg.Add(2)
	go f.readLoop()
	go f.pingLoop()

	return f, nil
}

// Notifications returns the channel of wallet change notifications.
func (f *WalletFeed) Notifications() <-chan WalletNotification {
	return f.out
}

// Subscribe replaces the watched wallet set.
func (f *WalletFeed) Subscribe(wallets []string) error {
	f.walletsMu.Lock()
	f.wallets = append([]string(nil), wallets...)
	f.walletsMu.Unlock()
	return f.sendSubscribe(wallets)
}

func (f *WalletFeed) sendSubscribe(wallets []string) error {
	if f.closed.Load() {
		return fmt.Errorf("feed closed")
	}

	req := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "walletSubscribe",
		"params":  []interface{}{wallets},
	}

	f.connMu.Lock()
	defer f.connMu.Unlock()
	if f.conn == nil {
		return fmt.Errorf("not connected")
	}
	f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
	if err := f.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("write subscribe: %w", err)
	}
	return nil
}

func (f *WalletFeed) connect(ctx context.Context) error {
	f.connMu.Lock()
	defer f.connMu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, f.endpoint, nil)
	if err != nil {
		return fmt.Errorf("websocket dial: %w", err)
	}
	f.conn = conn
	return nil
}

// feedMessage is the raw notification envelope.
type feedMessage struct {
	Method string `json:"method"`
	Params struct {
		Result WalletNotification `json:"result"`
	} `json:"params"`
}

func (f *WalletFeed) readLoop() {
	defer f.wg.Done()

	for {
		select {
		case <-f.done:
			return
		default:
		}

		f.connMu.Lock()
		conn := f.conn
		f.connMu.Unlock()
		if conn == nil {
			f.reconnect()
			continue
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if f.closed.Load() {
				return
			}
			f.reconnect()
			continue
		}

		var msg feedMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Method != "walletNotification" {
			continue
		}

		// Drop rather than block: polling catches anything missed.
		select {
		case f.out <- msg.Params.Result:
		default:
		}
	}
}

func (f *WalletFeed) reconnect() {
	delay := f.config.ReconnectDelay
	for {
		select {
		case <-f.done:
			return
		case <-time.After(delay):
		}

		if err := f.connect(context.Background()); err != nil {
			delay *= 2
			if delay > f.config.MaxReconnectDelay {
				delay = f.config.MaxReconnectDelay
			}
			continue
		}

		// Resubscribe with the last known wallet set
		f.walletsMu.Lock()
		wallets := append([]string(nil), f.wallets...)
		f.walletsMu.Unlock()
		if len(wallets) > 0 {
			if err := f.sendSubscribe(wallets); err != nil {
				continue
			}
		}
		return
	}
}

func (f *WalletFeed) pingLoop() {
	defer f.wg.Done()

	ticker := time.NewTicker(f.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-f.done:
			return
		case <-ticker.C:
			f.connMu.Lock()
			if f.conn != nil {
				f.conn.SetWriteDeadline(time.Now().Add(f.config.WriteTimeout))
				f.conn.WriteMessage(websocket.PingMessage, nil)
			}
			f.connMu.Unlock()
		}
	}
}

// Close closes the feed connection and stops background goroutines.
func (f *WalletFeed) Close() error {
	if f.closed.Swap(true) {
		return nil // Already closed
	}

	close(f.done)

	f.connMu.Lock()
	if f.conn != nil {
		f.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		f.conn.Close()
	}
	f.connMu.Unlock()

	f.wg.Wait()
	close(f.out)
	return nil
}
