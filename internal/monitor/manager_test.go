package monitor

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/ledger/stub"
)

func newTestManager(gw *stub.Gateway, dispatcher Dispatcher) *Manager {
	return NewManager(Options{
		Gateway:      gw,
		Dispatcher:   dispatcher,
		TickInterval: 10 * time.Millisecond,
		Logger:       zerolog.Nop(),
	})
}

func sessionDone(s *session) bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

func TestStartMonitoring_SupersedesExistingSession(t *testing.T) {
	m := newTestManager(stub.NewGateway(), &recordingDispatcher{})
	defer m.StopAll()

	first := m.StartMonitoring(teamWallets("W1"), testToken, testNet)
	second := m.StartMonitoring(teamWallets("W2"), testToken, testNet)

	if !sessionDone(first.sess) {
		t.Error("Superseding start must stop the prior session before returning")
	}
	if sessionDone(second.sess) {
		t.Error("The superseding session must be running")
	}

	statuses := m.Status()
	if len(statuses) != 1 {
		t.Fatalf("Active sessions = %d, want 1", len(statuses))
	}
	if statuses[0].Wallets != 1 {
		t.Errorf("Tracked wallets = %d, want 1", statuses[0].Wallets)
	}
}

func TestStopMonitoring_StaleHandleIsNoOp(t *testing.T) {
	m := newTestManager(stub.NewGateway(), &recordingDispatcher{})
	defer m.StopAll()

	first := m.StartMonitoring(teamWallets("W1"), testToken, testNet)
	second := m.StartMonitoring(teamWallets("W2"), testToken, testNet)

	m.StopMonitoring(first) // already superseded

	if sessionDone(second.sess) {
		t.Error("A stale handle must not stop the current session")
	}
	if len(m.Status()) != 1 {
		t.Errorf("Active sessions = %d, want 1", len(m.Status()))
	}

	m.StopMonitoring(second)
	if !sessionDone(second.sess) {
		t.Error("Expected the current session stopped via its handle")
	}
	if len(m.Status()) != 0 {
		t.Errorf("Active sessions = %d, want 0", len(m.Status()))
	}
}

func TestStop_IdleKeyIsNoOp(t *testing.T) {
	m := newTestManager(stub.NewGateway(), &recordingDispatcher{})

	// Nothing started; must not panic or block.
	m.Stop(testToken, testNet)
	m.StopMonitoring(nil)

	if len(m.Status()) != 0 {
		t.Errorf("Active sessions = %d, want 0", len(m.Status()))
	}
}

func TestStop_IsIdempotent(t *testing.T) {
	m := newTestManager(stub.NewGateway(), &recordingDispatcher{})

	m.StartMonitoring(teamWallets("W1"), testToken, testNet)
	m.Stop(testToken, testNet)
	m.Stop(testToken, testNet)

	if len(m.Status()) != 0 {
		t.Errorf("Active sessions = %d, want 0", len(m.Status()))
	}
}

func TestSessionsAreIndependentPerKey(t *testing.T) {
	m := newTestManager(stub.NewGateway(), &recordingDispatcher{})
	defer m.StopAll()

	m.StartMonitoring(teamWallets("W1"), "TokenA", testNet)
	m.StartMonitoring(teamWallets("W2"), "TokenB", testNet)
	m.StartMonitoring(teamWallets("W3"), "TokenA", domain.NetworkDevnet)

	if len(m.Status()) != 3 {
		t.Fatalf("Active sessions = %d, want 3", len(m.Status()))
	}

	m.Stop("TokenA", testNet)
	if len(m.Status()) != 2 {
		t.Errorf("Active sessions = %d, want 2 after stopping one key", len(m.Status()))
	}
}

func TestMonitoring_EndToEndSellDetection(t *testing.T) {
	gw := stub.NewGateway()
	gw.SetBalance(testWallet, 1000)
	dispatcher := &recordingDispatcher{}

	m := newTestManager(gw, dispatcher)
	defer m.StopAll()

	m.StartMonitoring(teamWallets(testWallet), testToken, testNet)

	// Let the first tick seed the baseline.
	time.Sleep(30 * time.Millisecond)

	gw.SetBalance(testWallet, 900)
	gw.SetTransfers(testWallet, []domain.Transfer{
		recentSellTransfer(testWallet, "SomeDex", 100),
	})

	deadline := time.Now().Add(2 * time.Second)
	for dispatcher.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if dispatcher.count() == 0 {
		t.Fatal("Expected a sell alert from the polling loop")
	}
	a := dispatcher.alerts[0]
	if a.AmountSold != 100 {
		t.Errorf("AmountSold = %f, want 100", a.AmountSold)
	}
	if a.WalletAddress != testWallet {
		t.Errorf("WalletAddress = %q", a.WalletAddress)
	}
}

func TestNotify_TriggersEarlyRecheck(t *testing.T) {
	gw := stub.NewGateway()
	gw.SetBalance(testWallet, 1000)

	m := NewManager(Options{
		Gateway:      gw,
		Dispatcher:   &recordingDispatcher{},
		TickInterval: time.Hour, // ticks never fire during the test
		Logger:       zerolog.Nop(),
	})
	defer m.StopAll()

	m.StartMonitoring(teamWallets(testWallet), testToken, testNet)
	m.Notify(testToken, testNet, testWallet)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if gw.BalanceCallCount(testWallet) > 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("Expected the notification to trigger a balance check before the first tick")
}
