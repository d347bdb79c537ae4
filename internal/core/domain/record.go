package domain

// DocTypeMarkdown is the doc_type recorded for every ingested section.
const DocTypeMarkdown = "markdown"

// RecordMetadata is the metadata stored alongside each record.
type RecordMetadata struct {
	// SourceURL is the normalised README URL the section was read from.
	SourceURL string `json:"source_url"`

	// Title is the section title.
	Title string `json:"title"`

	// DocType is always DocTypeMarkdown for ingested sections.
	DocType string `json:"doc_type"`
}

// DocumentRecord is the unit held by a vector store, one per section.
// Records are immutable once stored.
type DocumentRecord struct {
	// ID is assigned by the vector store at upsert time.
	ID string `json:"id"`

	// Vector is the embedding of Content.
	Vector []float32 `json:"-"`

	// Content is the section body.
	Content string `json:"content"`

	// Metadata describes where the content came from.
	Metadata RecordMetadata `json:"metadata"`
}

// NewDocumentRecord builds an unsaved record for a section of sourceURL.
func NewDocumentRecord(section Section, sourceURL string, vector []float32) DocumentRecord {
	return DocumentRecord{
		Vector:  vector,
		Content: section.Content,
		Metadata: RecordMetadata{
			SourceURL: sourceURL,
			Title:     section.Title,
			DocType:   DocTypeMarkdown,
		},
	}
}

// ScoredRecord is a search hit.
type ScoredRecord struct {
	ID       string         `json:"id"`
	Content  string         `json:"content"`
	Metadata RecordMetadata `json:"metadata"`

	// Score is the similarity to the query vector; higher is more relevant.
	Score float64 `json:"score"`
}

// Reference converts a hit into a generation reference.
func (r ScoredRecord) Reference() Reference {
	return Reference{
		Title:   r.Metadata.Title,
		URL:     r.Metadata.SourceURL,
		Content: r.Content,
		Score:   r.Score,
	}
}
