package domain

// ScoredProblem pairs a problem with its similarity score to a target
type ScoredProblem struct {
	Problem *Problem
	Score   float64
}

// SimilarityContext carries retrieval results used to enrich hint
// generation: problems from the learner's own history ranked by
// similarity, the learner's prior successful solutions for those
// problems, and recurring error patterns. Rebuilt per request.
type SimilarityContext struct {
	SimilarProblems []ScoredProblem
	PriorSolutions  map[string]string
	ErrorPatterns   []string
}

// Empty reports whether the context carries nothing usable
func (c *SimilarityContext) Empty() bool {
	return c == nil || (len(c.SimilarProblems) == 0 && len(c.PriorSolutions) == 0 && len(c.ErrorPatterns) == 0)
}
