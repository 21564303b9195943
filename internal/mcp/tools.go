package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prepdeck/prepdeck/internal/domain/analytics"
	"github.com/prepdeck/prepdeck/internal/domain/plan"
	"github.com/prepdeck/prepdeck/internal/domain/thread"
)

type startAssessmentInput struct {
	Role       string `json:"role" jsonschema:"the role the candidate is preparing for"`
	Company    string `json:"company,omitempty" jsonschema:"target company (optional)"`
	Background string `json:"background,omitempty" jsonschema:"plain-text candidate background, e.g. resume text (optional)"`
	ItemCount  int    `json:"item_count,omitempty" jsonschema:"number of questions to generate (default 3)"`
}

type threadIDInput struct {
	ThreadID string `json:"thread_id" jsonschema:"assessment thread ID"`
}

type submitAnswerInput struct {
	ThreadID  string `json:"thread_id" jsonschema:"assessment thread ID"`
	ItemIndex int    `json:"item_index" jsonschema:"1-based index of the question being answered"`
	Answer    string `json:"answer" jsonschema:"the candidate's answer text"`
}

type markStepInput struct {
	PlanID  string `json:"plan_id" jsonschema:"improvement plan ID"`
	PhaseID string `json:"phase_id" jsonschema:"ID of the phase containing the step"`
	StepID  string `json:"step_id" jsonschema:"ID of the step to mark completed"`
}

type emptyInput struct{}

type statusOutput struct {
	Status string `json:"status"`
}

type historyOutput struct {
	Messages []thread.Message `json:"messages"`
}

type listOutput struct {
	Assessments []thread.Summary `json:"assessments"`
}

// registerTools registers all assessment tools on the server.
func registerTools(server *sdkmcp.Server, svc Services) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "start_assessment",
		Description: "Start a new mock interview assessment and get its questions",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in startAssessmentInput) (*sdkmcp.CallToolResult, *thread.StartResult, error) {
		result, err := svc.Threads.Start(ctx, getOwnerID(ctx), thread.StartRequest{
			Context: thread.Context{
				Role:       in.Role,
				Company:    in.Company,
				Background: in.Background,
			},
			ItemCount: in.ItemCount,
		})
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "submit_answer",
		Description: "Submit an answer to one assessment question and get its score and feedback",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in submitAnswerInput) (*sdkmcp.CallToolResult, *thread.SubmitResult, error) {
		result, err := svc.Threads.SubmitAnswer(ctx, getOwnerID(ctx), in.ThreadID, in.ItemIndex, in.Answer)
		if err != nil {
			return nil, nil, err
		}
		return nil, result, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_assessment",
		Description: "Get the current stage and progress of an assessment",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in threadIDInput) (*sdkmcp.CallToolResult, *thread.Status, error) {
		status, err := svc.Threads.GetStatus(ctx, getOwnerID(ctx), in.ThreadID)
		if err != nil {
			return nil, nil, err
		}
		return nil, status, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_history",
		Description: "Get the full ordered message transcript of an assessment",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in threadIDInput) (*sdkmcp.CallToolResult, *historyOutput, error) {
		history, err := svc.Threads.GetHistory(ctx, getOwnerID(ctx), in.ThreadID)
		if err != nil {
			return nil, nil, err
		}
		return nil, &historyOutput{Messages: history}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_assessments",
		Description: "List all of the user's assessments, newest first",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, *listOutput, error) {
		summaries, err := svc.Threads.ListByOwner(ctx, getOwnerID(ctx))
		if err != nil {
			return nil, nil, err
		}
		return nil, &listOutput{Assessments: summaries}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_assessment",
		Description: "Delete an assessment and its entire transcript",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in threadIDInput) (*sdkmcp.CallToolResult, *statusOutput, error) {
		if err := svc.Threads.Delete(ctx, getOwnerID(ctx), in.ThreadID); err != nil {
			return nil, nil, err
		}
		return nil, &statusOutput{Status: "deleted"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_plan",
		Description: "Get the improvement plan for a completed assessment, with step progress",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in threadIDInput) (*sdkmcp.CallToolResult, *plan.Plan, error) {
		p, err := svc.Plans.GetForThread(ctx, getOwnerID(ctx), in.ThreadID)
		if err != nil {
			return nil, nil, err
		}
		return nil, p, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "mark_step_complete",
		Description: "Mark one improvement plan step as completed and get updated progress",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in markStepInput) (*sdkmcp.CallToolResult, *plan.Plan, error) {
		p, err := svc.Plans.MarkStepComplete(ctx, getOwnerID(ctx), in.PlanID, in.PhaseID, in.StepID)
		if err != nil {
			return nil, nil, err
		}
		return nil, p, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_analytics",
		Description: "Get aggregate statistics across all of the user's assessments",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, *analytics.Summary, error) {
		summary, err := svc.Analytics.Summarize(ctx, getOwnerID(ctx))
		if err != nil {
			return nil, nil, err
		}
		return nil, summary, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "pin_assessment",
		Description: "Pin a completed assessment to keep it prominent in listings",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in threadIDInput) (*sdkmcp.CallToolResult, *statusOutput, error) {
		if err := svc.Pins.Pin(ctx, getOwnerID(ctx), in.ThreadID); err != nil {
			return nil, nil, err
		}
		return nil, &statusOutput{Status: "pinned"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "unpin_assessment",
		Description: "Remove a pin from an assessment",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in threadIDInput) (*sdkmcp.CallToolResult, *statusOutput, error) {
		if err := svc.Pins.Unpin(ctx, getOwnerID(ctx), in.ThreadID); err != nil {
			return nil, nil, err
		}
		return nil, &statusOutput{Status: "unpinned"}, nil
	})

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_pinned",
		Description: "List the user's pinned assessments",
	}, func(ctx context.Context, req *sdkmcp.CallToolRequest, in emptyInput) (*sdkmcp.CallToolResult, *listOutput, error) {
		summaries, err := svc.Pins.ListPinned(ctx, getOwnerID(ctx))
		if err != nil {
			return nil, nil, err
		}
		return nil, &listOutput{Assessments: summaries}, nil
	})
}
