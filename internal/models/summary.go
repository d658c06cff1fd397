package models

// SummaryRequest is the payload sent to the genai service.
type SummaryRequest struct {
	SnippetContents []string `json:"snippetContents"`
}

// SummaryInsights is the insights block as returned by the genai service.
type SummaryInsights struct {
	Mood        string `json:"mood"`
	Suggestion  string `json:"suggestion"`
	Achievement string `json:"achievement"`
	Wellness    string `json:"wellness"`
}

// SummaryResult holds the genai service's summary output. A nil result
// means "no summary available" and must never fail the caller.
type SummaryResult struct {
	Summary  string           `json:"summary"`
	Analysis string           `json:"analysis"`
	Insights *SummaryInsights `json:"insights,omitempty"`
}
