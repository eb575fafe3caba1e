package rconfig

import (
	"math"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default() should validate, got %v", err)
	}
}

func TestResolvedMaxRadiusZeroIsInfinite(t *testing.T) {
	c := CellConfig{MaxRadius: 0}
	if got := c.ResolvedMaxRadius(); !math.IsInf(got, 1) {
		t.Errorf("ResolvedMaxRadius() = %v, expected +Inf", got)
	}
}

func TestValidateRejectsNegativeTau(t *testing.T) {
	cfg := Default()
	cfg.Distance.Tau = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative tau")
	}
}

func TestValidateRejectsDiscardWeightlessWithMultiWeight(t *testing.T) {
	cfg := Default()
	cfg.Store.DiscardWeightless = true
	cfg.Store.MultiWeightEnabled = true
	if err := cfg.Validate(); err == nil {
		t.Error("expected error combining discard_weightless with multi_weight_enabled")
	}
}

func TestLoadFromEnvOverridesDefault(t *testing.T) {
	t.Setenv("CRES_TAU", "2.5")
	t.Setenv("CRES_PARTITION_DEPTH", "3")

	cfg := LoadFromEnv()
	if cfg.Distance.Tau != 2.5 {
		t.Errorf("Tau = %v, expected 2.5", cfg.Distance.Tau)
	}
	if cfg.Partition.Depth != 3 {
		t.Errorf("Depth = %v, expected 3", cfg.Partition.Depth)
	}
}
