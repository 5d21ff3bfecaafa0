package hints

import (
	"math"
	"strconv"
	"strings"

	"github.com/hintwise/hintwise/internal/domain"
)

// Parser extracts structured fields from free-form LLM responses. The
// responses are untrusted text: lines that do not match the expected
// key/value shape are skipped, and any field still missing after the
// scan is filled with a fixed default. No parse method ever fails.
type Parser struct{}

// NewParser creates a response parser
func NewParser() *Parser {
	return &Parser{}
}

// ParseAttemptEvaluation scans an attempt-evaluation response into a
// fully-populated evaluation. Unknown keys and malformed lines are
// ignored; list fields are comma-separated.
func (p *Parser) ParseAttemptEvaluation(text string) domain.AttemptEvaluation {
	eval := domain.AttemptEvaluation{
		EdgeCases:   []string{},
		Suggestions: []string{},
	}

	for _, line := range strings.Split(text, "\n") {
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}

		switch key {
		case "success":
			eval.Success = strings.EqualFold(value, "true")
		case "reason":
			eval.Reason = value
		case "complexity":
			eval.Complexity = value
		case "edge_cases":
			eval.EdgeCases = splitList(value)
		case "code_quality":
			eval.CodeQuality = value
		case "suggestions":
			eval.Suggestions = splitList(value)
		}
	}

	return eval
}

// ParseScoreBlock scans a response for numeric scores. A value that does
// not parse as a float, or falls outside [0,1], is dropped. Every
// required key missing after the scan is filled with 0.0 so callers
// always see a complete mapping.
func (p *Parser) ParseScoreBlock(text string, requiredKeys []string) map[string]float64 {
	scores := make(map[string]float64, len(requiredKeys))

	for _, line := range strings.Split(text, "\n") {
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}

		score, err := strconv.ParseFloat(value, 64)
		if err != nil {
			continue
		}
		if math.IsNaN(score) || score < 0 || score > 1 {
			continue
		}
		scores[key] = score
	}

	for _, key := range requiredKeys {
		if _, ok := scores[key]; !ok {
			scores[key] = 0.0
		}
	}

	return scores
}

// TriggerDecision is the parsed outcome of an auto-trigger check
type TriggerDecision struct {
	ShouldTrigger bool
	Reason        string
	Type          domain.HintType
	Level         domain.HintLevel
}

// ParseTriggerDecision scans an auto-trigger response. Missing or
// malformed fields fall back to: no trigger, conceptual, level 1.
func (p *Parser) ParseTriggerDecision(text string) TriggerDecision {
	decision := TriggerDecision{
		ShouldTrigger: false,
		Type:          domain.TypeConceptual,
		Level:         domain.MinHintLevel,
	}

	for _, line := range strings.Split(text, "\n") {
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}

		switch key {
		case "decision":
			decision.ShouldTrigger = strings.Contains(strings.ToLower(value), "yes")
		case "reason":
			decision.Reason = value
		case "hint_type":
			if t, ok := parseHintType(value); ok {
				decision.Type = t
			}
		case "hint_level":
			if n, err := strconv.Atoi(value); err == nil {
				decision.Level = domain.HintLevel(n).Clamp(domain.MaxHintLevel)
			}
		}
	}

	return decision
}

// splitKeyValue splits a line on its first colon, returning the
// lower-cased trimmed key and the trimmed value
func splitKeyValue(line string) (key, value string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", false
	}

	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}

	key = strings.ToLower(strings.TrimSpace(line[:idx]))
	value = strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

func splitList(value string) []string {
	items := []string{}
	for _, item := range strings.Split(value, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseHintType(value string) (domain.HintType, bool) {
	switch domain.HintType(strings.ToLower(value)) {
	case domain.TypeConceptual:
		return domain.TypeConceptual, true
	case domain.TypeApproach:
		return domain.TypeApproach, true
	case domain.TypeImplementation:
		return domain.TypeImplementation, true
	case domain.TypeDebug:
		return domain.TypeDebug, true
	default:
		return "", false
	}
}
