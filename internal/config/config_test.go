package config

import (
	"testing"
	"time"
)

// setRequiredEnv はテストに必要な最小限の必須環境変数を設定する。
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant-test")
}

// 必須環境変数がすべて設定されている場合にLoadが成功することを検証
func TestLoad_Success(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.AnthropicAPIKey != "sk-ant-test" {
		t.Errorf("AnthropicAPIKey = %q, want %q", cfg.AnthropicAPIKey, "sk-ant-test")
	}
}

// ANTHROPIC_API_KEYが未設定の場合にエラーになることを検証
func TestLoad_MissingAPIKey_ReturnsError(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
}

// USE_POSTGRES=trueでDATABASE_URLが未設定の場合にエラーになることを検証
// インメモリへの暗黙フォールバックは行わない
func TestLoad_PostgresSelectedWithoutURL_ReturnsError(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("USE_POSTGRES", "true")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	if err == nil {
		t.Fatal("Load() error = nil, want error")
	}
}

// USE_POSTGRES=falseの場合はDATABASE_URLなしで起動できることを検証
func TestLoad_MemoryBackend_DatabaseURLOptional(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("USE_POSTGRES", "false")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if cfg.UsePostgres {
		t.Error("UsePostgres = true, want false")
	}
}

// オプション環境変数が未設定の場合にデフォルト値が適用されることを検証
func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.AnthropicModel != "claude-3-5-sonnet-20241022" {
		t.Errorf("AnthropicModel = %q, want %q", cfg.AnthropicModel, "claude-3-5-sonnet-20241022")
	}
	if cfg.AnthropicMaxTokens != 4000 {
		t.Errorf("AnthropicMaxTokens = %d, want %d", cfg.AnthropicMaxTokens, 4000)
	}
	if cfg.RateLimitGeneral != 120 {
		t.Errorf("RateLimitGeneral = %d, want %d", cfg.RateLimitGeneral, 120)
	}
	if cfg.RateLimitChat != 10 {
		t.Errorf("RateLimitChat = %d, want %d", cfg.RateLimitChat, 10)
	}
	if cfg.DeployCheckTimeout != 10*time.Second {
		t.Errorf("DeployCheckTimeout = %v, want %v", cfg.DeployCheckTimeout, 10*time.Second)
	}
	if cfg.ServerPort != "8080" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "8080")
	}
	if cfg.CORSAllowedOrigin != "http://localhost:3000" {
		t.Errorf("CORSAllowedOrigin = %q, want %q", cfg.CORSAllowedOrigin, "http://localhost:3000")
	}
}

// 環境変数でデフォルト値を上書きできることを検証
func TestLoad_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ANTHROPIC_MODEL", "claude-3-opus-20240229")
	t.Setenv("ANTHROPIC_MAX_TOKENS", "2048")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DEPLOY_CHECK_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.AnthropicModel != "claude-3-opus-20240229" {
		t.Errorf("AnthropicModel = %q, want %q", cfg.AnthropicModel, "claude-3-opus-20240229")
	}
	if cfg.AnthropicMaxTokens != 2048 {
		t.Errorf("AnthropicMaxTokens = %d, want %d", cfg.AnthropicMaxTokens, 2048)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q, want %q", cfg.ServerPort, "9090")
	}
	if cfg.DeployCheckTimeout != 3*time.Second {
		t.Errorf("DeployCheckTimeout = %v, want %v", cfg.DeployCheckTimeout, 3*time.Second)
	}
}

// 不正な数値・真偽値はデフォルト値にフォールバックすることを検証
func TestLoad_InvalidValues_FallBackToDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("ANTHROPIC_MAX_TOKENS", "not-a-number")
	t.Setenv("USE_POSTGRES", "maybe")
	t.Setenv("DEPLOY_CHECK_TIMEOUT", "soon")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}

	if cfg.AnthropicMaxTokens != 4000 {
		t.Errorf("AnthropicMaxTokens = %d, want %d", cfg.AnthropicMaxTokens, 4000)
	}
	if cfg.UsePostgres {
		t.Error("UsePostgres = true, want false")
	}
	if cfg.DeployCheckTimeout != 10*time.Second {
		t.Errorf("DeployCheckTimeout = %v, want %v", cfg.DeployCheckTimeout, 10*time.Second)
	}
}
