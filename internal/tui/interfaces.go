package tui

import (
	"context"

	"argus/internal/domain"
	"argus/internal/service"
)

// ScreenQuerier runs moving-average screens for the dashboard.
type ScreenQuerier interface {
	Run(ctx context.Context, req domain.ScreenerRequest) (*domain.ScreenerResponse, error)
}

// SignalQuerier provides stored signal data to the TUI.
type SignalQuerier interface {
	ListSignals(ctx context.Context, filter domain.SignalFilter) ([]domain.Signal, error)
}

// AdvisorQuerier provides LLM advisor access to the TUI.
type AdvisorQuerier interface {
	Ask(ctx context.Context, chatID int64, message string) (string, error)
}

// PerformanceQuerier provides signal outcome accuracy to the TUI.
type PerformanceQuerier interface {
	Performance(ctx context.Context, days, recentLimit int) (*service.PerformanceReport, error)
}

// ModelStatsQuerier reports direction-model hit rate. Nil when the ML
// cycle is disabled.
type ModelStatsQuerier interface {
	DirectionHitRate(ctx context.Context, days int) (correct, total int, err error)
}

// SSHChatIDOffset is the base offset for generating synthetic chat IDs
// for SSH users. The final chat ID is SSHChatIDOffset - user.ID.
// This avoids collisions with Telegram chat IDs.
const SSHChatIDOffset int64 = -1_000_000

// Services bundles all service dependencies injected into the TUI.
type Services struct {
	Screener    ScreenQuerier
	Signals     SignalQuerier
	Advisor     AdvisorQuerier
	Performance PerformanceQuerier
	Models      ModelStatsQuerier
	UserID      int64
	Username    string
}

// ChatID returns the synthetic chat ID for this SSH session.
func (s Services) ChatID() int64 {
	return SSHChatIDOffset - s.UserID
}
