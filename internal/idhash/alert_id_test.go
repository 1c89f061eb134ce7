package idhash

import (
	"testing"

	"holder-sentinel/internal/domain"
)

func TestComputeAlertID(t *testing.T) {
	tests := []struct {
		name           string
		wallet         string
		token          string
		network        domain.Network
		txSignature    string
		timestampMs    int64
		tickIntervalMs int64
		wantLen        int // hash length should be 64
	}{
		{
			name:           "with transaction signature",
			wallet:         "WalletAddr123",
			token:          "TokenMint456",
			network:        domain.NetworkMainnet,
			txSignature:    "TxSig789",
			timestampMs:    1704067200000,
			tickIntervalMs: 30000,
			wantLen:        64,
		},
		{
			name:           "without transaction signature",
			wallet:         "WalletAddr123",
			token:          "TokenMint456",
			network:        domain.NetworkMainnet,
			txSignature:    "",
			timestampMs:    1704067200000,
			tickIntervalMs: 30000,
			wantLen:        64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeAlertID(tt.wallet, tt.token, tt.network, tt.txSignature, tt.timestampMs, tt.tickIntervalMs)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeAlertID() length = %d, want %d", len(got), tt.wantLen)
			}

			got2 := ComputeAlertID(tt.wallet, tt.token, tt.network, tt.txSignature, tt.timestampMs, tt.tickIntervalMs)
			if got != got2 {
				t.Errorf("ComputeAlertID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeAlertID_SignatureDominates(t *testing.T) {
	// Same signature, different timestamps: the re-detection must collapse
	// to the same key.
	a := ComputeAlertID("W", "T", domain.NetworkMainnet, "Sig", 1000, 30000)
	b := ComputeAlertID("W", "T", domain.NetworkMainnet, "Sig", 999000, 30000)
	if a != b {
		t.Error("Same signature should produce same alert_id regardless of timestamp")
	}

	// Different signatures must not collide.
	c := ComputeAlertID("W", "T", domain.NetworkMainnet, "OtherSig", 1000, 30000)
	if a == c {
		t.Error("Different signatures should produce different alert_ids")
	}
}

func TestComputeAlertID_TickBucketFallback(t *testing.T) {
	// No signature: timestamps within the same tick bucket share a key.
	a := ComputeAlertID("W", "T", domain.NetworkMainnet, "", 60000, 30000)
	b := ComputeAlertID("W", "T", domain.NetworkMainnet, "", 89999, 30000)
	if a != b {
		t.Error("Timestamps in the same tick bucket should share an alert_id")
	}

	// Next bucket is a different key.
	c := ComputeAlertID("W", "T", domain.NetworkMainnet, "", 90000, 30000)
	if a == c {
		t.Error("Different tick buckets should produce different alert_ids")
	}

	// Different wallets never collide.
	d := ComputeAlertID("W2", "T", domain.NetworkMainnet, "", 60000, 30000)
	if a == d {
		t.Error("Different wallets should produce different alert_ids")
	}

	// Different networks never collide.
	e := ComputeAlertID("W", "T", domain.NetworkDevnet, "", 60000, 30000)
	if a == e {
		t.Error("Different networks should produce different alert_ids")
	}
}
