package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"holder-sentinel/internal/domain"
)

// ComputeAlertID computes a deterministic alert_id using SHA256.
// When the sell transaction resolved, the key is the transaction signature
// alone, so re-detections of the same transaction collapse to one row.
// Without a signature the key falls back to the wallet, token, network and
// the tick bucket the alert fired in.
// Returns hex-encoded hash (64 characters).
func ComputeAlertID(
	wallet string,
	token string,
	network domain.Network,
	txSignature string,
	timestampMs int64,
	tickIntervalMs int64,
) string {
	var data string
	if txSignature != "" {
		data = fmt.Sprintf("tx|%s", txSignature)
	} else {
		bucket := int64(0)
		if tickIntervalMs > 0 {
			bucket = timestampMs / tickIntervalMs
		}
		data = fmt.Sprintf("wt|%s|%s|%s|%d", wallet, token, string(network), bucket)
	}

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
