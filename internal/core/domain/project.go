package domain

// Project is a repository known to the assistant.
type Project struct {
	Name        string `json:"name"`
	ReadmeURL   string `json:"readmeUrl"`
	Description string `json:"description"`
}
