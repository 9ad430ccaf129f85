package security

import (
	"testing"
	"time"
)

// 安全なURLが検証を通過することを検証
func TestValidateURL_AllowsPublicURLs(t *testing.T) {
	guard := NewURLGuard()

	urls := []string{
		"https://demo.netlify.app",
		"https://example.com/path?query=1",
		"http://example.com",
		"https://8.8.8.8/status",
	}
	for _, u := range urls {
		if err := guard.ValidateURL(u); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", u, err)
		}
	}
}

// 危険なURLが拒否されることを検証
func TestValidateURL_BlocksDangerousURLs(t *testing.T) {
	guard := NewURLGuard()

	tests := []struct {
		name string
		url  string
	}{
		{"空URL", ""},
		{"ftpスキーム", "ftp://example.com/file"},
		{"fileスキーム", "file:///etc/passwd"},
		{"javascriptスキーム", "javascript:alert(1)"},
		{"ホストなし", "https://"},
		{"localhost", "http://localhost:8080"},
		{"localhost大文字", "http://LOCALHOST/admin"},
		{"ループバックIP", "http://127.0.0.1/"},
		{"プライベートIP 10系", "http://10.0.0.5/"},
		{"プライベートIP 172系", "http://172.16.0.1/"},
		{"プライベートIP 192系", "http://192.168.1.1/"},
		{"メタデータIP", "http://169.254.169.254/latest/meta-data/"},
		{"カレントネットワーク", "http://0.0.0.0/"},
		{"IPv6ループバック", "http://[::1]/"},
		{"IPv6リンクローカル", "http://[fe80::1]/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := guard.ValidateURL(tt.url); err == nil {
				t.Errorf("ValidateURL(%q) = nil, want error", tt.url)
			}
		})
	}
}

// NewSafeClientがタイムアウト付きクライアントを返すことを検証
func TestNewSafeClient_ReturnsClient(t *testing.T) {
	guard := NewURLGuard()

	client := guard.NewSafeClient(10 * time.Second)
	if client == nil {
		t.Fatal("NewSafeClient() = nil, want non-nil client")
	}
}

// urlGuardはURLGuardServiceインターフェースを満たすことを検証
func TestURLGuard_ImplementsInterface(t *testing.T) {
	var _ URLGuardService = (*urlGuard)(nil)
}
