package domain

// IngestOptions controls how a repository is ingested.
type IngestOptions struct {
	// ReplaceExisting deletes records previously stored for the same
	// README before storing new ones. When false, re-ingestion appends
	// duplicate records.
	ReplaceExisting bool
}

// IngestReport summarises a successful ingestion.
type IngestReport struct {
	// SourceURL is the normalised README URL recorded in metadata.
	SourceURL string `json:"source_url"`

	// RawURL is the URL the markdown was fetched from.
	RawURL string `json:"raw_url"`

	// Sections is the number of sections found.
	Sections int `json:"sections"`

	// Stored is the number of records upserted.
	Stored int `json:"stored"`

	// Replaced is the number of earlier records deleted.
	Replaced int `json:"replaced"`
}

// IngestResult is the per-URL outcome of a batch ingestion.
type IngestResult struct {
	URL     string `json:"url"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}
