package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func ok(context.Context) error   { return nil }
func fail(context.Context) error { return errors.New("down") }

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		deps   Deps
		status string
	}{
		{"all ok", Deps{StoreCheck: ok, CacheCheck: ok}, "ready"},
		{"cache down degrades", Deps{StoreCheck: ok, CacheCheck: fail}, "degraded"},
		{"store down", Deps{StoreCheck: fail, CacheCheck: ok}, "unavailable"},
		{"no store", Deps{}, "unavailable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewService(tt.deps).Check(context.Background())
			require.Equal(t, tt.status, resp.Status)
			require.Contains(t, resp.Components, "store")
		})
	}
}

func TestCheck_Providers(t *testing.T) {
	resp := NewService(Deps{StoreCheck: ok, Providers: map[string]bool{"gemini": true, "veriff": false}}).Check(context.Background())
	require.Equal(t, "ready", resp.Status)
	require.Equal(t, "ok", resp.Components["gemini"].Status)
	require.Equal(t, "disabled", resp.Components["veriff"].Status)
}
