package domain

// Section is a contiguous span of a markdown document under one heading.
type Section struct {
	// Title is the heading text the section belongs to.
	Title string `json:"title"`

	// Content is the heading text followed by the section's paragraphs,
	// newline-joined.
	Content string `json:"content"`
}

// IsEmpty reports whether the section carries no content.
func (s Section) IsEmpty() bool {
	return s.Content == ""
}
