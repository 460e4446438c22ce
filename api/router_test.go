package api

import (
	"testing"

	"github.com/livepoll/livepoll/internal/handler"
	"github.com/livepoll/livepoll/internal/platform/config"
)

func TestNewEngine_TrustedProxies(t *testing.T) {
	h := handler.New(nil, nil, nil, nil, handler.Options{})

	tests := []struct {
		name    string
		proxies []string
		wantErr bool
	}{
		{"none", nil, false},
		{"cidr", []string{"10.0.0.0/8", "127.0.0.1"}, false},
		{"garbage", []string{"not-an-address"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEngine(h, config.ServerConfig{BasePath: "/api", TrustedProxies: tt.proxies})
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}
