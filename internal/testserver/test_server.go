// Package testserver spins up a fully wired HTTP API over an in-memory
// database for tests.
package testserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prepdeck/prepdeck/internal/domain/analytics"
	"github.com/prepdeck/prepdeck/internal/domain/pin"
	"github.com/prepdeck/prepdeck/internal/domain/plan"
	"github.com/prepdeck/prepdeck/internal/domain/thread"
	"github.com/prepdeck/prepdeck/internal/extract"
	"github.com/prepdeck/prepdeck/internal/llm"
	"github.com/prepdeck/prepdeck/internal/sqlite"
	"github.com/prepdeck/prepdeck/internal/transport"
	"github.com/stretchr/testify/require"
)

type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	Auth   *transport.Auth
	Token  string
	UserID string

	Threads   *thread.Service
	Plans     *plan.Service
	Analytics *analytics.Service
	Pins      *pin.Service
}

// ScriptedProvider returns canned completions in order, repeating the last
// one once the script runs out.
type ScriptedProvider struct {
	Responses []string
	calls     int
}

func (p *ScriptedProvider) Name() string { return "scripted" }

func (p *ScriptedProvider) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if len(p.Responses) == 0 {
		return nil, errors.New("scripted provider: no responses")
	}
	i := p.calls
	p.calls++
	if i >= len(p.Responses) {
		i = len(p.Responses) - 1
	}
	return &llm.CompletionResponse{Content: p.Responses[i]}, nil
}

// FailingProvider always errors, which drives the extraction adapter onto
// its deterministic fallbacks.
type FailingProvider struct{}

func (FailingProvider) Name() string { return "failing" }

func (FailingProvider) Complete(_ context.Context, _ llm.CompletionRequest) (*llm.CompletionResponse, error) {
	return nil, errors.New("provider unavailable")
}

// New creates a test server for the given user. A nil provider defaults to
// FailingProvider so all model output comes from the adapter's fallbacks.
func New(t *testing.T, userID string, provider llm.Provider) *TestServer {
	t.Helper()

	if provider == nil {
		provider = FailingProvider{}
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	logger := slog.New(slog.DiscardHandler)

	threadRepo := sqlite.NewThreadRepository(db)
	messageRepo := sqlite.NewMessageRepository(db)
	planRepo := sqlite.NewPlanRepository(db)
	pinRepo := sqlite.NewPinRepository(db)

	extractor := extract.New(provider, logger)

	threadSvc := thread.NewService(threadRepo, messageRepo, extractor, logger)
	planSvc := plan.NewService(planRepo, threadRepo, messageRepo, logger)
	analyticsSvc := analytics.NewService(threadRepo, logger)
	pinSvc := pin.NewService(pinRepo, threadRepo, logger)

	auth := transport.NewAuth("test-secret", 0)
	handler := transport.NewHandler(threadSvc, planSvc, analyticsSvc, pinSvc, logger)
	server := httptest.NewServer(transport.NewRouter(handler, auth, nil, nil))

	token, err := auth.GenerateToken(userID)
	require.NoError(t, err)

	ts := &TestServer{
		Server:    server,
		DB:        db,
		Auth:      auth,
		Token:     token,
		UserID:    userID,
		Threads:   threadSvc,
		Plans:     planSvc,
		Analytics: analyticsSvc,
		Pins:      pinSvc,
	}

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}
