// Package alert delivers sell alerts to notification channels and
// subscribers with per-channel failure isolation.
package alert

import (
	"context"

	"holder-sentinel/internal/domain"
)

// Channel is one alert delivery target. Send failures are isolated by the
// dispatcher; implementations only report them.
type Channel interface {
	Name() string
	Send(ctx context.Context, a *domain.SellAlert) error
}
