package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("RECONCILE_INTERVAL", "")
	t.Setenv("SETTLEMENT_GUARD_ENABLED", "")
	t.Setenv("SETTLEMENT_QUEUE", "")

	cfg := Load()

	// The sweep heals lost publishes, so it runs unless explicitly disabled.
	if cfg.Worker.ReconcileInterval != time.Minute {
		t.Errorf("expected default reconcile interval 1m, got %s", cfg.Worker.ReconcileInterval)
	}
	if cfg.Worker.GuardEnabled {
		t.Error("expected guard disabled by default")
	}
	if cfg.RabbitMQ.SettlementQueue != "corridas_queue" {
		t.Errorf("expected default queue corridas_queue, got %s", cfg.RabbitMQ.SettlementQueue)
	}
}

func TestLoad_ReconcileSweepCanBeDisabled(t *testing.T) {
	t.Setenv("RECONCILE_INTERVAL", "0s")

	cfg := Load()

	if cfg.Worker.ReconcileInterval != 0 {
		t.Errorf("expected sweep disabled, got %s", cfg.Worker.ReconcileInterval)
	}
}
