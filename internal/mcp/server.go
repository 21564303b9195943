package mcp

import (
	"context"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prepdeck/prepdeck/internal/domain/analytics"
	"github.com/prepdeck/prepdeck/internal/domain/plan"
	"github.com/prepdeck/prepdeck/internal/domain/thread"
)

const serverInstructions = `This server runs mock interview assessments.
Start an assessment with start_assessment, answer each question with
submit_answer, then review the scored transcript with get_history. Once all
questions are answered the assessment completes automatically and produces
an improvement plan; fetch it with get_plan and track study progress with
mark_step_complete.`

// ThreadService defines assessment operations needed by MCP.
type ThreadService interface {
	Start(ctx context.Context, ownerID string, req thread.StartRequest) (*thread.StartResult, error)
	SubmitAnswer(ctx context.Context, ownerID, threadID string, itemIndex int, answer string) (*thread.SubmitResult, error)
	GetStatus(ctx context.Context, ownerID, threadID string) (*thread.Status, error)
	GetHistory(ctx context.Context, ownerID, threadID string) ([]thread.Message, error)
	ListByOwner(ctx context.Context, ownerID string) ([]thread.Summary, error)
	Delete(ctx context.Context, ownerID, threadID string) error
}

// PlanService defines plan operations needed by MCP.
type PlanService interface {
	GetForThread(ctx context.Context, ownerID, threadID string) (*plan.Plan, error)
	MarkStepComplete(ctx context.Context, ownerID, planID, phaseID, stepID string) (*plan.Plan, error)
}

// AnalyticsService defines analytics operations needed by MCP.
type AnalyticsService interface {
	Summarize(ctx context.Context, ownerID string) (*analytics.Summary, error)
}

// PinService defines pin operations needed by MCP.
type PinService interface {
	Pin(ctx context.Context, ownerID, threadID string) error
	Unpin(ctx context.Context, ownerID, threadID string) error
	ListPinned(ctx context.Context, ownerID string) ([]thread.Summary, error)
}

// Services contains all domain services needed by MCP.
type Services struct {
	Threads   ThreadService
	Plans     PlanService
	Analytics AnalyticsService
	Pins      PinService
}

// Config contains server configuration.
type Config struct {
	Services      Services
	Validator     TokenValidator
	AuthEnabled   bool
	TransportMode string // "stdio" or "http"
	Logger        *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "prepdeck",
		Version: "0.1.0",
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	// Stdio mode is local-only, so auth is always off there.
	if cfg.TransportMode == "stdio" || !cfg.AuthEnabled {
		server.AddReceivingMiddleware(noAuthMiddleware("default"))
	} else {
		server.AddReceivingMiddleware(authMiddleware(cfg.Validator))
	}

	registerTools(server, cfg.Services)

	return server
}
