// Package activity aggregates a wallet's transfer history into the
// bought/sold totals and risk score the classifier consumes.
package activity

import (
	"context"

	"github.com/rs/zerolog"

	"holder-sentinel/internal/domain"
	"holder-sentinel/internal/ledger"
)

// Risk score contributions. The score is monotonic in sell pressure:
// a higher sell/buy ratio tier and a higher sell-count tier can only
// raise it.
const (
	ratioHighScore = 40 // sell/buy ratio > 0.8
	ratioMidScore  = 25 // ratio in (0.5, 0.8]
	ratioLowScore  = 10 // ratio in (0.3, 0.5]

	sellCountHighScore = 30 // more than 10 sells
	sellCountMidScore  = 15 // more than 5 sells
)

// Summarizer computes ActivitySummary values from ledger transfer history.
type Summarizer struct {
	gateway ledger.Gateway
	logger  zerolog.Logger
}

// NewSummarizer creates a new Summarizer.
func NewSummarizer(gateway ledger.Gateway, logger zerolog.Logger) *Summarizer {
	return &Summarizer{
		gateway: gateway,
		logger:  logger.With().Str("component", "activity").Logger(),
	}
}

// Summarize fetches up to historyLimit transfers for the wallet and
// aggregates them. A transfer with a missing or zero amount is skipped, not
// an error. When the history fetch fails, a zero-valued summary is returned
// so callers can still classify with degraded data.
func (s *Summarizer) Summarize(ctx context.Context, walletAddress, tokenAddress string, network domain.Network, historyLimit int) domain.ActivitySummary {
	summary := domain.ActivitySummary{Address: walletAddress}

	transfers, err := s.gateway.GetTransferHistory(ctx, walletAddress, tokenAddress, network, historyLimit)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("wallet", walletAddress).
			Str("token", tokenAddress).
			Msg("transfer history fetch failed, using zero-valued summary")
		return summary
	}

	for _, tr := range transfers {
		if tr.Amount <= 0 {
			// Missing or unparsable amount upstream, skip the row
			continue
		}
		switch walletAddress {
		case tr.To:
			summary.TotalBought += tr.Amount
		case tr.From:
			summary.TotalSold += tr.Amount
			summary.SellTxCount++
		}
	}

	summary.RiskScore = riskScore(summary)
	return summary
}

// riskScore derives the 0..100 score from the aggregated totals.
func riskScore(s domain.ActivitySummary) float64 {
	var score float64

	ratio := s.SellBuyRatio()
	switch {
	case ratio > 0.8:
		score += ratioHighScore
	case ratio > 0.5:
		score += ratioMidScore
	case ratio > 0.3:
		score += ratioLowScore
	}

	switch {
	case s.SellTxCount > 10:
		score += sellCountHighScore
	case s.SellTxCount > 5:
		score += sellCountMidScore
	}

	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score
}
