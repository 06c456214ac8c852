package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want 8080", cfg.ServerPort)
	}
	if cfg.Thresholds.VIPRecentOrders != 4 {
		t.Errorf("VIPRecentOrders = %d, want 4", cfg.Thresholds.VIPRecentOrders)
	}
	if cfg.Thresholds.VIPTotalSpend != 10000 {
		t.Errorf("VIPTotalSpend = %v, want 10000", cfg.Thresholds.VIPTotalSpend)
	}
	if cfg.Thresholds.B2BMinSimilarity != 0.7 {
		t.Errorf("B2BMinSimilarity = %v, want 0.7", cfg.Thresholds.B2BMinSimilarity)
	}
	if cfg.ResegmentCron != "" {
		t.Errorf("ResegmentCron = %q, want disabled by default", cfg.ResegmentCron)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("VIP_RECENT_ORDERS", "6")
	t.Setenv("B2B_MIN_SIMILARITY", "0.85")
	t.Setenv("MIDDLEMAN_AVG_ORDER_VALUE", "not-a-number")

	cfg := Load()

	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want 9090", cfg.ServerPort)
	}
	if cfg.Thresholds.VIPRecentOrders != 6 {
		t.Errorf("VIPRecentOrders = %d, want 6", cfg.Thresholds.VIPRecentOrders)
	}
	if cfg.Thresholds.B2BMinSimilarity != 0.85 {
		t.Errorf("B2BMinSimilarity = %v, want 0.85", cfg.Thresholds.B2BMinSimilarity)
	}
	// Unparseable values fall back to the default.
	if cfg.Thresholds.MiddlemanAvgOrderValue != 2000 {
		t.Errorf("MiddlemanAvgOrderValue = %v, want default 2000", cfg.Thresholds.MiddlemanAvgOrderValue)
	}
}
