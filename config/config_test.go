package config

import (
	"slices"
	"testing"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STRIPE_SECRET_KEY", "sk_test_1")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_1")
}

func TestLoadProxySettings(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		trusted     string
		wantErr     bool
		wantTrusted []string
	}{
		{name: "direct"},
		{
			name:        "behind proxy",
			header:      "X-Forwarded-For",
			trusted:     " 10.0.0.0/8, ,127.0.0.1",
			wantTrusted: []string{"10.0.0.0/8", "127.0.0.1"},
		},
		{name: "header without trusted proxies", header: "X-Forwarded-For", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			t.Setenv("PROXY_HEADER", tt.header)
			t.Setenv("TRUSTED_PROXIES", tt.trusted)

			s, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if s.ProxyHeader != tt.header || !slices.Equal(s.TrustedProxies, tt.wantTrusted) {
				t.Errorf("proxy = %q %v, want %q %v", s.ProxyHeader, s.TrustedProxies, tt.header, tt.wantTrusted)
			}
		})
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("STRIPE_SECRET_KEY", "")
	t.Setenv("STRIPE_WEBHOOK_SECRET", "whsec_1")
	if _, err := Load(); err == nil {
		t.Fatal("expected missing settings error")
	}
}
