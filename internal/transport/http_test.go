package transport_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/prepdeck/prepdeck/internal/domain/plan"
	"github.com/prepdeck/prepdeck/internal/domain/thread"
	"github.com/prepdeck/prepdeck/internal/testserver"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, ts *testserver.TestServer, method, path string, body, out any) int {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+ts.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestAPI_Health(t *testing.T) {
	ts := testserver.New(t, "user1", nil)

	resp, err := http.Get(ts.Server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_RequiresAuth(t *testing.T) {
	ts := testserver.New(t, "user1", nil)

	resp, err := http.Get(ts.Server.URL + "/api/assessments")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_FullAssessmentFlow(t *testing.T) {
	ts := testserver.New(t, "user1", nil)

	var started thread.StartResult
	status := doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{
		"role":       "Backend Engineer",
		"company":    "Acme",
		"item_count": 2,
	}, &started)
	require.Equal(t, http.StatusCreated, status)
	require.Len(t, started.Questions, 2)
	require.Equal(t, thread.StageAwaitingAnswers, started.Thread.Stage)

	threadID := started.Thread.ID

	var first thread.SubmitResult
	status = doJSON(t, ts, http.MethodPost, "/api/assessments/"+threadID+"/answers", map[string]any{
		"item_index": 1,
		"answer":     "I would start with the requirements.",
	}, &first)
	require.Equal(t, http.StatusOK, status)
	require.False(t, first.Completed)
	require.NotEmpty(t, first.Feedback)

	var last thread.SubmitResult
	status = doJSON(t, ts, http.MethodPost, "/api/assessments/"+threadID+"/answers", map[string]any{
		"item_index": 2,
		"answer":     "Then I would sketch the data model.",
	}, &last)
	require.Equal(t, http.StatusOK, status)
	require.True(t, last.Completed)
	require.Equal(t, thread.StageCompleted, last.Stage)
	require.NotNil(t, last.Aggregate)
	require.Len(t, last.Aggregate.ItemScores, 2)

	var st thread.Status
	status = doJSON(t, ts, http.MethodGet, "/api/assessments/"+threadID, nil, &st)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, thread.StageCompleted, st.Stage)
	require.Equal(t, 2, st.Answered)

	var history []thread.Message
	status = doJSON(t, ts, http.MethodGet, "/api/assessments/"+threadID+"/history", nil, &history)
	require.Equal(t, http.StatusOK, status)
	// 2 questions, 2 answers, 2 feedback entries, 1 plan
	require.Len(t, history, 7)
	require.Equal(t, thread.KindPlan, history[len(history)-1].Kind)

	var agg thread.Aggregate
	status = doJSON(t, ts, http.MethodGet, "/api/assessments/"+threadID+"/aggregate", nil, &agg)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, agg.ItemScores, 2)
	require.Equal(t, last.Aggregate.TotalScore, agg.TotalScore)

	var p plan.Plan
	status = doJSON(t, ts, http.MethodGet, "/api/assessments/"+threadID+"/plan", nil, &p)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, threadID, p.ThreadID)
	require.NotEmpty(t, p.Phases)
	require.Zero(t, p.Progress)

	phaseID := p.Phases[0].PhaseID
	stepID := p.Phases[0].Steps[0].StepID
	var updated plan.Plan
	status = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/plans/%s/phases/%s/steps/%s/complete", p.ID, phaseID, stepID), nil, &updated)
	require.Equal(t, http.StatusOK, status)
	require.True(t, updated.Phases[0].Steps[0].Completed)
	require.Greater(t, updated.Progress, 0.0)

	// The step must be addressed through its own phase.
	status = doJSON(t, ts, http.MethodPost, fmt.Sprintf("/api/plans/%s/phases/%s/steps/%s/complete", p.ID, "nonexistent", stepID), nil, nil)
	require.Equal(t, http.StatusNotFound, status)

	status = doJSON(t, ts, http.MethodPost, "/api/assessments/"+threadID+"/pin", nil, nil)
	require.Equal(t, http.StatusNoContent, status)

	var pinned []thread.Summary
	status = doJSON(t, ts, http.MethodGet, "/api/pins", nil, &pinned)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, pinned, 1)
	require.Equal(t, threadID, pinned[0].ThreadID)

	status = doJSON(t, ts, http.MethodDelete, "/api/assessments/"+threadID+"/pin", nil, nil)
	require.Equal(t, http.StatusNoContent, status)
}

func TestAPI_ScriptedModelOutput(t *testing.T) {
	provider := &testserver.ScriptedProvider{Responses: []string{
		`{"questions": ["Describe a system you built."]}`,
		`{"score": 8, "feedback": "Clear and well structured."}`,
		`{"summary": "s", "phases": [{"phase_id": "foundation", "name": "Foundation", "steps": [{"step_id": "f-1", "title": "Review"}]}]}`,
	}}
	ts := testserver.New(t, "user1", provider)

	var started thread.StartResult
	status := doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{
		"role": "Backend Engineer", "item_count": 1,
	}, &started)
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, []string{"Describe a system you built."}, started.Questions)

	var result thread.SubmitResult
	status = doJSON(t, ts, http.MethodPost, "/api/assessments/"+started.Thread.ID+"/answers", map[string]any{
		"item_index": 1, "answer": "A job scheduler on Postgres.",
	}, &result)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, 8, result.Score)
	require.Equal(t, "Clear and well structured.", result.Feedback)
	require.True(t, result.Completed)
}

func TestAPI_SubmitAnswer_Conflicts(t *testing.T) {
	ts := testserver.New(t, "user1", nil)

	var started thread.StartResult
	doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{
		"role": "Backend Engineer", "item_count": 2,
	}, &started)
	threadID := started.Thread.ID

	answer := map[string]any{"item_index": 1, "answer": "an answer"}
	require.Equal(t, http.StatusOK, doJSON(t, ts, http.MethodPost, "/api/assessments/"+threadID+"/answers", answer, nil))

	// Same item again
	require.Equal(t, http.StatusConflict, doJSON(t, ts, http.MethodPost, "/api/assessments/"+threadID+"/answers", answer, nil))

	// Out of range
	require.Equal(t, http.StatusBadRequest, doJSON(t, ts, http.MethodPost, "/api/assessments/"+threadID+"/answers",
		map[string]any{"item_index": 5, "answer": "x"}, nil))

	// Empty answer
	require.Equal(t, http.StatusBadRequest, doJSON(t, ts, http.MethodPost, "/api/assessments/"+threadID+"/answers",
		map[string]any{"item_index": 2, "answer": "  "}, nil))
}

func TestAPI_SubmitAnswer_AfterCompletion(t *testing.T) {
	ts := testserver.New(t, "user1", nil)

	var started thread.StartResult
	doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{
		"role": "Backend Engineer", "item_count": 1,
	}, &started)
	threadID := started.Thread.ID

	require.Equal(t, http.StatusOK, doJSON(t, ts, http.MethodPost, "/api/assessments/"+threadID+"/answers",
		map[string]any{"item_index": 1, "answer": "done"}, nil))

	require.Equal(t, http.StatusConflict, doJSON(t, ts, http.MethodPost, "/api/assessments/"+threadID+"/answers",
		map[string]any{"item_index": 1, "answer": "again"}, nil))
}

func TestAPI_NotFoundAndForbidden(t *testing.T) {
	ts := testserver.New(t, "user1", nil)

	require.Equal(t, http.StatusNotFound, doJSON(t, ts, http.MethodGet, "/api/assessments/nope", nil, nil))
	require.Equal(t, http.StatusNotFound, doJSON(t, ts, http.MethodDelete, "/api/assessments/nope", nil, nil))

	var started thread.StartResult
	doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{
		"role": "Backend Engineer", "item_count": 1,
	}, &started)

	// Second token for a different user against user1's thread
	otherToken, err := ts.Auth.GenerateToken("intruder")
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodGet, ts.Server.URL+"/api/assessments/"+started.Thread.ID, nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAPI_PlanBeforeCompletion(t *testing.T) {
	ts := testserver.New(t, "user1", nil)

	var started thread.StartResult
	doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{
		"role": "Backend Engineer", "item_count": 2,
	}, &started)

	require.Equal(t, http.StatusConflict,
		doJSON(t, ts, http.MethodGet, "/api/assessments/"+started.Thread.ID+"/plan", nil, nil))
}

func TestAPI_PinBeforeCompletion(t *testing.T) {
	ts := testserver.New(t, "user1", nil)

	var started thread.StartResult
	doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{
		"role": "Backend Engineer", "item_count": 2,
	}, &started)

	require.Equal(t, http.StatusConflict,
		doJSON(t, ts, http.MethodPost, "/api/assessments/"+started.Thread.ID+"/pin", nil, nil))
}

func TestAPI_ListAndAnalytics(t *testing.T) {
	ts := testserver.New(t, "user1", nil)

	var list []thread.Summary
	require.Equal(t, http.StatusOK, doJSON(t, ts, http.MethodGet, "/api/assessments", nil, &list))
	require.Empty(t, list)

	var started thread.StartResult
	doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{
		"role": "Backend Engineer", "company": "Acme", "item_count": 1,
	}, &started)
	doJSON(t, ts, http.MethodPost, "/api/assessments/"+started.Thread.ID+"/answers",
		map[string]any{"item_index": 1, "answer": "an answer"}, nil)

	require.Equal(t, http.StatusOK, doJSON(t, ts, http.MethodGet, "/api/assessments", nil, &list))
	require.Len(t, list, 1)
	require.Equal(t, thread.StageCompleted, list[0].Stage)

	var summary struct {
		TotalThreads     int      `json:"total_threads"`
		CompletedThreads int      `json:"completed_threads"`
		Roles            []string `json:"roles"`
	}
	require.Equal(t, http.StatusOK, doJSON(t, ts, http.MethodGet, "/api/analytics", nil, &summary))
	require.Equal(t, 1, summary.TotalThreads)
	require.Equal(t, 1, summary.CompletedThreads)
	require.Equal(t, []string{"Backend Engineer"}, summary.Roles)
}

func TestAPI_StartValidation(t *testing.T) {
	ts := testserver.New(t, "user1", nil)

	require.Equal(t, http.StatusBadRequest,
		doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{"role": ""}, nil))
	require.Equal(t, http.StatusBadRequest,
		doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{"role": "Engineer", "item_count": 99}, nil))
}

func TestAPI_Delete(t *testing.T) {
	ts := testserver.New(t, "user1", nil)

	var started thread.StartResult
	doJSON(t, ts, http.MethodPost, "/api/assessments", map[string]any{
		"role": "Backend Engineer", "item_count": 1,
	}, &started)
	threadID := started.Thread.ID

	require.Equal(t, http.StatusNoContent, doJSON(t, ts, http.MethodDelete, "/api/assessments/"+threadID, nil, nil))
	require.Equal(t, http.StatusNotFound, doJSON(t, ts, http.MethodGet, "/api/assessments/"+threadID, nil, nil))
	require.Equal(t, http.StatusNotFound, doJSON(t, ts, http.MethodDelete, "/api/assessments/"+threadID, nil, nil))
}
