package extract

import (
	"fmt"
	"strings"

	"github.com/prepdeck/prepdeck/internal/domain/thread"
)

const systemPrompt = `You are an experienced interviewer and career coach.
You always respond with a single JSON object matching the requested schema,
with no surrounding prose and no markdown fences.`

// strictReminder is appended on the retry attempt after a validation failure.
const strictReminder = `Your previous response did not match the required schema.
Respond with ONLY the JSON object described above. Do not add any other text.`

func questionsPrompt(actx thread.Context, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d interview questions for a candidate applying for the role of %s", n, actx.Role)
	if actx.Company != "" {
		fmt.Fprintf(&b, " at %s", actx.Company)
	}
	b.WriteString(".\n")
	if actx.Background != "" {
		fmt.Fprintf(&b, "\nCandidate background:\n%s\n", clip(actx.Background, 4000))
	}
	fmt.Fprintf(&b, `
Mix behavioral and technical questions appropriate for the role.

Respond with a JSON object of this exact shape:
{"questions": ["question 1", "question 2", ...]}

The "questions" array must contain at least %d entries.`, n)
	return b.String()
}

func scorePrompt(actx thread.Context, question, answer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are evaluating an interview answer for the role of %s", actx.Role)
	if actx.Company != "" {
		fmt.Fprintf(&b, " at %s", actx.Company)
	}
	b.WriteString(".\n\n")
	fmt.Fprintf(&b, "Question:\n%s\n\nAnswer:\n%s\n", question, clip(answer, 8000))
	b.WriteString(`
Score the answer from 0 to 10 and give two or three sentences of concrete,
actionable feedback on its strengths and weaknesses.

Respond with a JSON object of this exact shape:
{"score": 7, "feedback": "..."}`)
	return b.String()
}

func planPrompt(actx thread.Context, history []thread.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "A candidate for the role of %s", actx.Role)
	if actx.Company != "" {
		fmt.Fprintf(&b, " at %s", actx.Company)
	}
	b.WriteString(" has completed a mock interview. Here is the transcript:\n\n")

	for _, msg := range history {
		switch msg.Kind {
		case thread.KindQuestion:
			fmt.Fprintf(&b, "Question %d: %s\n", deref(msg.ItemIndex), msg.Content)
		case thread.KindAnswer:
			fmt.Fprintf(&b, "Answer %d: %s\n", deref(msg.ItemIndex), clip(msg.Content, 2000))
		case thread.KindFeedback:
			score := 0
			if msg.Score != nil {
				score = *msg.Score
			}
			fmt.Fprintf(&b, "Feedback %d (score %d/10): %s\n\n", deref(msg.ItemIndex), score, msg.Content)
		}
	}

	b.WriteString(`
Based on the weaknesses shown above, produce a structured improvement plan
with three phases: foundation, intermediate and advanced. Each phase has
two to four steps; each step names concrete study or practice work, its
type, an hour estimate and optionally one or two learning resources.

Respond with a JSON object of this exact shape:
{
  "summary": "one paragraph overview of the plan",
  "phases": [
    {
      "phase_id": "foundation",
      "name": "Foundation",
      "focus": "...",
      "steps": [
        {
          "step_id": "foundation-step-1",
          "title": "...",
          "description": "...",
          "step_type": "study",
          "estimated_hours": 4,
          "resources": [
            {"title": "...", "provider": "...", "type": "course", "url": "...", "cost": "free"}
          ]
        }
      ]
    }
  ]
}`)
	return b.String()
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func deref(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
