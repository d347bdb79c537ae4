package domain

import "unicode/utf8"

// ApologyAnswer is the answer returned when a query fails.
const ApologyAnswer = "I encountered an error while processing your query."

// Excerpt limits for source content.
const (
	// ExcerptLimit is the number of characters kept from a source's content.
	ExcerptLimit = 200

	// ExcerptEllipsis marks a truncated excerpt.
	ExcerptEllipsis = "..."
)

// QueryStatus is the outcome of a query.
type QueryStatus string

// Query statuses.
const (
	QueryStatusSuccess QueryStatus = "success"
	QueryStatusError   QueryStatus = "error"
)

// QueryStage identifies where a query is in its lifecycle.
// Stages advance received → embedding → retrieving → generating →
// citing (or erroring) → responded.
type QueryStage string

// Query stages.
const (
	QueryStageReceived   QueryStage = "received"
	QueryStageEmbedding  QueryStage = "embedding"
	QueryStageRetrieving QueryStage = "retrieving"
	QueryStageGenerating QueryStage = "generating"
	QueryStageCiting     QueryStage = "citing"
	QueryStageErroring   QueryStage = "erroring"
	QueryStageResponded  QueryStage = "responded"
)

// Source is a cited excerpt returned with an answer.
type Source struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// QueryMetadata describes the generation that produced an answer.
// Both fields are empty when unknown.
type QueryMetadata struct {
	Model string `json:"model,omitempty"`
	RunID string `json:"run_id,omitempty"`
}

// QueryResult is returned for every question, successful or not.
type QueryResult struct {
	Status   QueryStatus   `json:"status"`
	Answer   string        `json:"answer"`
	Sources  []Source      `json:"sources"`
	Metadata QueryMetadata `json:"metadata"`

	// Error holds diagnostic detail when Status is QueryStatusError.
	Error string `json:"error,omitempty"`

	// FailedAt is the stage that failed, empty on success.
	FailedAt QueryStage `json:"-"`
}

// IsSuccess reports whether the query produced an answer.
func (r QueryResult) IsSuccess() bool {
	return r.Status == QueryStatusSuccess
}

// NewErrorResult builds the error-shaped result for a failure at stage.
func NewErrorResult(stage QueryStage, err error) QueryResult {
	detail := ""
	if err != nil {
		detail = err.Error()
	}
	return QueryResult{
		Status:   QueryStatusError,
		Answer:   ApologyAnswer,
		Sources:  []Source{},
		Error:    detail,
		FailedAt: stage,
	}
}

// Reference is one entry of a generation's structured reference trail:
// a document the model was given or retrieved while answering.
type Reference struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score,omitempty"`
}

// Source converts the reference into a cited source with an excerpt.
func (r Reference) Source() Source {
	return Source{
		Title:   r.Title,
		URL:     r.URL,
		Content: Excerpt(r.Content),
	}
}

// Excerpt truncates content to ExcerptLimit characters, appending
// ExcerptEllipsis when anything was cut.
func Excerpt(content string) string {
	if utf8.RuneCountInString(content) <= ExcerptLimit {
		return content
	}
	runes := []rune(content)
	return string(runes[:ExcerptLimit]) + ExcerptEllipsis
}
