package gateway

import "context"

// SummaryResult is the disambiguation outcome of a chapter-summary
// request. Found=false is a first-class branch, not an error: the model
// asks the user for more detail via ClarificationNeeded.
type SummaryResult struct {
	Found               bool   `json:"found"`
	Title               string `json:"title"`
	Summary             string `json:"summary"`
	ClarificationNeeded string `json:"clarificationNeeded"`
}

// Gateway is the AI backend surface the assistant service depends on.
// Every call is remote and fallible; callers own the failure UX.
type Gateway interface {
	// Analyze answers a free-form question grounded in the manuscript.
	Analyze(ctx context.Context, manuscript, question string) (string, error)

	// GenerateGenresAndTags produces candidate genres/tags. A malformed
	// model payload degrades to an empty slice, not an error, so the
	// picker flow stays alive.
	GenerateGenresAndTags(ctx context.Context, manuscript string) ([]string, error)

	// GenerateChapterSummary locates the described scene and summarizes
	// it, or reports what clarification it needs.
	GenerateChapterSummary(ctx context.Context, manuscript, description string) (*SummaryResult, error)

	// GenerateAnnotation writes a back-cover annotation. For refinement
	// passes the caller resends the prior annotation together with the
	// user's feedback; both are empty on the first call.
	GenerateAnnotation(ctx context.Context, manuscript, priorAnnotation, feedback string) (string, error)
}
