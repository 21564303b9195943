package extract

import (
	"encoding/json"
	"fmt"

	"github.com/prepdeck/prepdeck/internal/domain/plan"
	"github.com/prepdeck/prepdeck/internal/domain/thread"
)

// Deterministic fallbacks used when the provider fails or keeps returning
// output that doesn't validate. They keep every session able to finish
// without a working model behind the adapter.

const fallbackScore = 5

const fallbackFeedback = "Your answer could not be evaluated in detail. " +
	"Consider structuring it with a concrete situation, the actions you took " +
	"and the measurable outcome, and tie it back to the role requirements."

var fallbackQuestionTemplates = []string{
	"Tell me about yourself and why you are interested in the %s role.",
	"Describe a challenging problem you faced in a previous %s project and how you solved it.",
	"What do you consider the most important skills for a %s, and how have you demonstrated them?",
	"Tell me about a time you disagreed with a teammate. How did you resolve it?",
	"Where do you see your %s career in the next few years, and what are you doing to get there?",
	"Describe a situation where you had to learn something new quickly for your work as a %s.",
	"What recent development in your field excites you most, and why?",
	"Tell me about a failure in your work as a %s and what you learned from it.",
	"How do you prioritize when everything seems urgent?",
	"What questions do you have about the team or the role of %s?",
}

func fallbackQuestions(actx thread.Context, n int) []string {
	questions := make([]string, 0, n)
	for i := 0; i < n; i++ {
		tmpl := fallbackQuestionTemplates[i%len(fallbackQuestionTemplates)]
		questions = append(questions, sprintfRole(tmpl, actx.Role))
	}
	return questions
}

func sprintfRole(tmpl, role string) string {
	if role == "" {
		role = "candidate"
	}
	if countVerbs(tmpl) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, role)
}

func countVerbs(tmpl string) int {
	n := 0
	for i := 0; i+1 < len(tmpl); i++ {
		if tmpl[i] == '%' && tmpl[i+1] == 's' {
			n++
		}
	}
	return n
}

func fallbackPlan(actx thread.Context) plan.Outline {
	role := actx.Role
	if role == "" {
		role = "your target role"
	}
	return plan.Outline{
		Summary: fmt.Sprintf("A three-phase preparation plan for %s: rebuild fundamentals, practice realistic scenarios, then polish advanced skills and interview delivery.", role),
		Phases: []plan.PhaseOutline{
			{
				PhaseID: "foundation",
				Name:    "Foundation",
				Focus:   "Core knowledge and answer structure",
				Steps: []plan.StepOutline{
					{
						StepID:         "foundation-step-1",
						Title:          fmt.Sprintf("Review the core concepts expected of a %s", role),
						StepType:       "study",
						EstimatedHours: 6,
					},
					{
						StepID:         "foundation-step-2",
						Title:          "Practice the STAR structure on five past experiences",
						StepType:       "practice",
						EstimatedHours: 3,
					},
				},
			},
			{
				PhaseID: "intermediate",
				Name:    "Intermediate",
				Focus:   "Applied practice under realistic conditions",
				Steps: []plan.StepOutline{
					{
						StepID:         "intermediate-step-1",
						Title:          "Complete two timed mock interviews and review the recordings",
						StepType:       "practice",
						EstimatedHours: 4,
					},
					{
						StepID:         "intermediate-step-2",
						Title:          fmt.Sprintf("Build or extend a small project demonstrating %s skills", role),
						StepType:       "project",
						EstimatedHours: 10,
					},
				},
			},
			{
				PhaseID: "advanced",
				Name:    "Advanced",
				Focus:   "Depth, edge cases and delivery",
				Steps: []plan.StepOutline{
					{
						StepID:         "advanced-step-1",
						Title:          "Study advanced topics that came up weakest in your answers",
						StepType:       "study",
						EstimatedHours: 8,
					},
					{
						StepID:         "advanced-step-2",
						Title:          "Prepare concise stories for your three strongest accomplishments",
						StepType:       "practice",
						EstimatedHours: 2,
					},
				},
			},
		},
	}
}

func fallbackPlanJSON(actx thread.Context) string {
	data, err := json.Marshal(fallbackPlan(actx))
	if err != nil {
		// The outline is a static literal; marshaling cannot fail.
		return `{"phases":[]}`
	}
	return string(data)
}
