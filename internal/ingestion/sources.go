// Package ingestion turns new-token notifications into monitored assets.
package ingestion

import (
	"context"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
	"github.com/Jovzzqez008/sol-bot/internal/monitor"
	"github.com/Jovzzqez008/sol-bot/internal/safety"
)

// EventSource delivers new-token notifications. The channel is closed
// when the source stops.
type EventSource interface {
	Events() <-chan domain.NewTokenEvent
}

// TaskStarter hands a registered record to its monitoring task.
type TaskStarter interface {
	Start(rec *domain.AssetRecord) error
}

// SafetyChecker inspects a mint before it is monitored.
type SafetyChecker interface {
	Check(ctx context.Context, mint string) safety.Report
}

// Compile-time interface checks
var (
	_ TaskStarter   = (*monitor.Scheduler)(nil)
	_ SafetyChecker = (*safety.Checker)(nil)
)
