package hints

import (
	"fmt"
	"strings"

	"github.com/hintwise/hintwise/internal/domain"
)

const (
	// solutionSnippetLimit caps prior-solution code included in prompts
	solutionSnippetLimit = 300
	// problemSummaryLimit caps similar-problem descriptions in prompts
	problemSummaryLimit = 200
	// errorPatternLimit caps error-pattern bullets in prompts
	errorPatternLimit = 8
)

// Prompter builds the prompts for each pipeline stage
type Prompter struct{}

// NewPrompter creates a new prompter
func NewPrompter() *Prompter {
	return &Prompter{}
}

// GenerationInput carries everything the hint-generation prompt needs
type GenerationInput struct {
	ProblemDescription string
	UserCode           string
	AttemptsCount      int
	FailedAttempts     int
	ElapsedSeconds     int
	PreviousHints      []string
	Level              domain.HintLevel
	Type               domain.HintType
	Context            *domain.SimilarityContext
}

// EvaluationInput carries everything the hint-evaluation prompt needs
type EvaluationInput struct {
	ProblemDescription string
	UserCode           string
	AttemptsCount      int
	FailedAttempts     int
	Level              domain.HintLevel
	ElapsedSeconds     int
	PreviousHints      []string
	HintContent        string
}

// TriggerInput carries everything the auto-trigger prompt needs
type TriggerInput struct {
	ProblemDescription string
	UserCode           string
	AttemptsCount      int
	FailedAttempts     int
	CurrentLevel       domain.HintLevel
	ElapsedSeconds     int
	LastAttemptStatus  string
	LastAttemptError   string
}

// AttemptEvaluation builds the prompt for evaluating a submitted attempt
func (p *Prompter) AttemptEvaluation(problemDescription, userCode string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Problem Description: %s\n\n", problemDescription))
	sb.WriteString("User's Code:\n")
	sb.WriteString(userCode)
	sb.WriteString("\n\n")
	sb.WriteString(`Analyze whether this code solves the problem correctly. Consider:
1. Logic correctness
2. Edge cases
3. Time and space complexity
4. Code quality

Respond in the following format:
success: [true/false]
reason: [brief explanation]
complexity: [time and space complexity]
edge_cases: [comma-separated list of edge cases handled or missed]
code_quality: [assessment of code quality]
suggestions: [comma-separated list of specific suggestions]
`)

	return sb.String()
}

// HintGeneration builds the prompt for generating a hint. When a
// similarity context is available, retrieved problems, solutions, and
// error patterns are included to personalize the hint.
func (p *Prompter) HintGeneration(in GenerationInput) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Problem Description: %s\n\n", in.ProblemDescription))
	sb.WriteString("User's Current Code:\n")
	sb.WriteString(in.UserCode)
	sb.WriteString("\n\n")

	p.writeProgress(&sb, in.AttemptsCount, in.FailedAttempts, in.Level, in.ElapsedSeconds)
	p.writePreviousHints(&sb, in.PreviousHints)

	if !in.Context.Empty() {
		p.writeSimilarityContext(&sb, in.Context)
	}

	sb.WriteString(fmt.Sprintf("Hint Level: %d\n", in.Level))
	sb.WriteString(fmt.Sprintf("Hint Type: %s\n\n", in.Type))

	sb.WriteString(fmt.Sprintf(`Generate a hint that:
1. Is non-revealing (does not give away the solution)
2. Is appropriate for hint level %d and type %s
3. Builds upon previous hints and the user's progress
4. Guides the user to think about the problem
5. Is specific to their current code and approach

The hint should be more conceptual for early levels and more specific
for higher levels.

Provide only the hint content, no additional formatting.
`, in.Level, in.Type))

	return sb.String()
}

// HintEvaluation builds the prompt for scoring a generated hint
func (p *Prompter) HintEvaluation(in EvaluationInput) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Problem Description: %s\n\n", in.ProblemDescription))
	sb.WriteString("User's Code:\n")
	sb.WriteString(in.UserCode)
	sb.WriteString("\n\n")

	p.writeProgress(&sb, in.AttemptsCount, in.FailedAttempts, in.Level, in.ElapsedSeconds)
	p.writePreviousHints(&sb, in.PreviousHints)

	sb.WriteString("Hint to Evaluate:\n")
	sb.WriteString(in.HintContent)
	sb.WriteString("\n\n")

	sb.WriteString(`Evaluate this hint and provide scores in the following format:

safety_score: [score between 0 and 1]
helpfulness_score: [score between 0 and 1]
quality_score: [score between 0 and 1]
progress_alignment_score: [score between 0 and 1]
pedagogical_value_score: [score between 0 and 1]

For each score, 0 means completely ineffective and 1 means perfect
effectiveness. Respond with only the five score lines.
`)

	return sb.String()
}

// AutoTrigger builds the prompt for deciding whether to offer an
// unsolicited hint
func (p *Prompter) AutoTrigger(in TriggerInput) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Problem Description: %s\n\n", in.ProblemDescription))
	sb.WriteString("User's Current Code:\n")
	sb.WriteString(in.UserCode)
	sb.WriteString("\n\n")

	p.writeProgress(&sb, in.AttemptsCount, in.FailedAttempts, in.CurrentLevel, in.ElapsedSeconds)

	if in.LastAttemptStatus != "" {
		sb.WriteString("Last Attempt:\n")
		sb.WriteString(fmt.Sprintf("- Status: %s\n", in.LastAttemptStatus))
		if in.LastAttemptError != "" {
			sb.WriteString(fmt.Sprintf("- Error Message: %s\n", in.LastAttemptError))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`Analyze whether the user needs an unsolicited hint based on:
1. Time since last activity
2. Number of failed attempts
3. Error patterns in the code

Respond in the following format:
decision: [yes/no]
reason: [reason for the decision]
hint_type: [conceptual/approach/implementation/debug]
hint_level: [1-5]
`)

	return sb.String()
}

func (p *Prompter) writeProgress(sb *strings.Builder, attempts, failed int, level domain.HintLevel, elapsedSeconds int) {
	sb.WriteString("User Progress:\n")
	sb.WriteString(fmt.Sprintf("- Total Attempts: %d\n", attempts))
	sb.WriteString(fmt.Sprintf("- Failed Attempts: %d\n", failed))
	sb.WriteString(fmt.Sprintf("- Current Hint Level: %d\n", level))
	sb.WriteString(fmt.Sprintf("- Time Since Last Attempt: %d seconds\n\n", elapsedSeconds))
}

func (p *Prompter) writePreviousHints(sb *strings.Builder, hints []string) {
	sb.WriteString("Previous Hints Given:\n")
	if len(hints) == 0 {
		sb.WriteString("None\n\n")
		return
	}
	for i, hint := range hints {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, hint))
	}
	sb.WriteString("\n")
}

func (p *Prompter) writeSimilarityContext(sb *strings.Builder, ctx *domain.SimilarityContext) {
	sb.WriteString("Similar Problems from User's History:\n")
	if len(ctx.SimilarProblems) == 0 {
		sb.WriteString("No similar problems found in user's history.\n")
	}
	for i, sp := range ctx.SimilarProblems {
		sb.WriteString(fmt.Sprintf("%d. %s (%s): %s\n",
			i+1, sp.Problem.Title, sp.Problem.Difficulty,
			truncate(sp.Problem.Description, problemSummaryLimit)))
	}
	sb.WriteString("\n")

	sb.WriteString("User's Previous Solutions:\n")
	if len(ctx.PriorSolutions) == 0 {
		sb.WriteString("No previous solutions found for similar problems.\n")
	}
	for _, sp := range ctx.SimilarProblems {
		code, ok := ctx.PriorSolutions[sp.Problem.Title]
		if !ok {
			continue
		}
		sb.WriteString(fmt.Sprintf("Problem: %s\nSolution: %s\n\n",
			sp.Problem.Title, truncate(code, solutionSnippetLimit)))
	}
	sb.WriteString("\n")

	sb.WriteString("Common Error Patterns:\n")
	if len(ctx.ErrorPatterns) == 0 {
		sb.WriteString("No common error patterns identified.\n")
	}
	patterns := ctx.ErrorPatterns
	if len(patterns) > errorPatternLimit {
		patterns = patterns[:errorPatternLimit]
	}
	for _, pattern := range patterns {
		sb.WriteString(fmt.Sprintf("- %s\n", pattern))
	}
	sb.WriteString("\n")
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
