package config

import (
	"testing"
	"time"
)

func TestDefault_Valid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}

func TestValidate_NegativeReallocThreshold(t *testing.T) {
	cfg := Default()
	cfg.Engine.ReallocThreshold = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative realloc_threshold")
	}
}

func TestValidate_InvalidDerateFactor(t *testing.T) {
	cfg := Default()
	cfg.Kubernetes.CapacityDerateFactor = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero derate factor")
	}

	cfg.Kubernetes.CapacityDerateFactor = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for derate factor above 1")
	}
}

func TestValidate_EmptySimulationName(t *testing.T) {
	cfg := Default()
	cfg.Simulation.Name = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty simulation name")
	}
}

func TestValidate_AWSEnabledRequiresRegion(t *testing.T) {
	cfg := Default()
	cfg.AWS.Enabled = true
	cfg.AWS.Region = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when aws.enabled is true with no region")
	}
}

func TestRunIdentity(t *testing.T) {
	cfg := Default()
	cfg.Simulation.Name = "my-run"
	at := time.Unix(1700000000, 0)
	if got, want := cfg.RunIdentity(at), "my-run-1700000000"; got != want {
		t.Errorf("RunIdentity() = %q, want %q", got, want)
	}
}
