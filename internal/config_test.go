package internal

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if got := cfg.App.HTTP.Address(); got != ":8080" {
		t.Errorf("address = %q, want :8080", got)
	}
}

func TestJournalConfig_TTLAccessors(t *testing.T) {
	cfg := JournalConfig{
		Dir:                  "./journal",
		MetaTTLActiveSeconds: 300,
		MetaTTLIdleSeconds:   30,
		ContentTTLSeconds:    900,
	}
	if got := cfg.MetaTTLActive(); got != 5*time.Minute {
		t.Errorf("active TTL = %v, want 5m", got)
	}
	if got := cfg.MetaTTLIdle(); got != 30*time.Second {
		t.Errorf("idle TTL = %v, want 30s", got)
	}
	if got := cfg.ContentTTL(); got != 15*time.Minute {
		t.Errorf("content TTL = %v, want 15m", got)
	}
}

func TestJournalConfig_DirRequired(t *testing.T) {
	cfg := JournalConfig{}
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty dir should fail validation")
	}
}

func TestJournalConfig_SoftAboveHard(t *testing.T) {
	cfg := JournalConfig{Dir: "./journal", HardLimitBytes: 100, SoftLimitBytes: 200}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("soft limit above hard limit should fail")
	}
	if !strings.Contains(err.Error(), "exceeds hard_limit_bytes") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestJournalConfig_Limits(t *testing.T) {
	cfg := JournalConfig{Dir: "./journal", HardLimitBytes: 1000, SoftLimitBytes: 800}
	l := cfg.Limits()
	if l.Hard != 1000 || l.Soft != 800 {
		t.Errorf("limits = %+v", l)
	}
}

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_JournalValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Journal.Dir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch journal error")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}
