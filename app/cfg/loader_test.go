package cfg

import (
	"testing"
	"time"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("Expected a non-empty version")
	}
}

func TestSetAndGet(t *testing.T) {
	original := globalCfg
	defer func() { globalCfg = original }()

	Set(&Cfg{Port: "9090", WorkerCount: 5, Debug: true})

	cfg := Get()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.WorkerCount != 5 {
		t.Errorf("WorkerCount = %d", cfg.WorkerCount)
	}
	if !cfg.Debug {
		t.Error("Debug = false")
	}
}

func TestGetPanicsWhenUnloaded(t *testing.T) {
	original := globalCfg
	globalCfg = nil
	defer func() {
		globalCfg = original
		if r := recover(); r == nil {
			t.Error("Expected Get to panic before Load")
		}
	}()

	Get()
}

func TestApplyTimezone(t *testing.T) {
	original := time.Local
	defer func() { time.Local = original }()

	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("Expected UTC accepted: %v", err)
	}
	if time.Local.String() != "UTC" {
		t.Errorf("time.Local = %v", time.Local)
	}

	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("Expected an error for an unknown timezone")
	}
}
