package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-matchengine/internal/config"
	"github.com/riskibarqy/fantasy-matchengine/internal/platform/logging"
)

func TestNew_MemoryBackend(t *testing.T) {
	cfg := config.Config{
		AppEnv:             config.EnvDev,
		ServiceName:        "fantasy-matchengine",
		HTTPAddr:           ":0",
		CORSAllowedOrigins: []string{"*"},
		SimTickInterval:    time.Hour,
	}

	a, err := New(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Shutdown(ctx))
}

func TestNew_RequiresAddr(t *testing.T) {
	_, err := New(context.Background(), config.Config{}, logging.NewNop())
	if err == nil {
		t.Fatalf("expected error for empty addr")
	}
}
