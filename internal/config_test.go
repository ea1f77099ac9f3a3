package internal

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/labelvault/pkg/config"
)

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
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfig_Valid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestWalletConfig_DataDirRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Wallet.DataDir = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty data dir should fail validation")
	}
}

func TestWatchConfig_DebounceBounds(t *testing.T) {
	for _, d := range []time.Duration{-time.Second, 2 * time.Minute} {
		cfg := WatchConfig{Enabled: true, Debounce: d}
		if err := cfg.Validate(); err == nil {
			t.Errorf("debounce %v should fail validation", d)
		}
	}
	cfg := WatchConfig{Enabled: true}
	if err := cfg.Validate(); err != nil {
		t.Errorf("zero debounce should pass: %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv("LABELVAULT_TEST_TOKEN", "s3cret")
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
app:
  log_level: debug
  http:
    port: 9000
wallet:
  data_dir: ${LABELVAULT_TEST_DIR:-/var/lib/wallet}
  auto_save: false
sqlite:
  path: /tmp/labels.db
auth:
  mode: token
  token: ${LABELVAULT_TEST_TOKEN}
watch:
  enabled: false
  debounce: 1s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(path, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.LogLevel != slog.LevelDebug || cfg.App.HTTP.Port != 9000 {
		t.Errorf("app = %+v", cfg.App)
	}
	if cfg.Wallet.DataDir != "/var/lib/wallet" || cfg.Wallet.AutoSave {
		t.Errorf("wallet = %+v", cfg.Wallet)
	}
	if cfg.Auth.Token != "s3cret" || !cfg.Auth.AuthEnabled() {
		t.Errorf("auth = %+v", cfg.Auth)
	}
	if cfg.Watch.Enabled || cfg.Watch.Debounce != time.Second {
		t.Errorf("watch = %+v", cfg.Watch)
	}
}

func TestConfig_IndexPath(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Wallet.DataDir = "/srv/wallet"
	if got, want := cfg.IndexPath(), filepath.Join("/srv/wallet", IndexFileName); got != want {
		t.Errorf("IndexPath = %q, want %q", got, want)
	}
	cfg.SQLite.Path = "/tmp/custom.db"
	if got := cfg.IndexPath(); got != "/tmp/custom.db" {
		t.Errorf("IndexPath = %q, want explicit path", got)
	}
}

func TestConfig_ValidateNamesSection(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.App.HTTP.Port = 0
	err := cfg.Validate()
	if err == nil || !strings.HasPrefix(err.Error(), "app: ") {
		t.Fatalf("err = %v, want app section error", err)
	}
}
