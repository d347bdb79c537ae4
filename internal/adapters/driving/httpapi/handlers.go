package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/core/ports/driving"
)

// Response messages.
const (
	msgWelcome       = "Welcome to Docs Agent API"
	msgRepoProcessed = "Repository processed successfully"
	msgRepoFailed    = "Failed to process repository"
	msgAPIKeyStored  = "API key stored successfully"
	statusHealthy    = "healthy"
	statusSuccess    = "success"
)

type rootController struct{}

func (c *rootController) routes() []route {
	return []route{
		{"GET /{$}", c.welcome},
		{"GET /health", c.health},
	}
}

func (c *rootController) welcome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": msgWelcome})
}

func (c *rootController) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": statusHealthy})
}

// repoRequest is one repository to ingest.
type repoRequest struct {
	RepoURL         string `json:"repo_url"`
	ReplaceExisting bool   `json:"replace_existing,omitempty"`
}

// processResponse reports one ingestion.
type processResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type documentsController struct {
	ingest driving.IngestService
}

func (c *documentsController) routes() []route {
	return []route{
		{"POST /api/documents/process-github", requireAPIKey(c.processGitHub)},
		{"POST /api/documents/process-multiple", requireAPIKey(c.processMultiple)},
	}
}

func (c *documentsController) processGitHub(w http.ResponseWriter, r *http.Request) {
	var req repoRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	opts := domain.IngestOptions{ReplaceExisting: req.ReplaceExisting}
	if _, err := c.ingest.Ingest(r.Context(), req.RepoURL, opts); err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError || status == http.StatusBadGateway {
			// Ingestion failures are reported as a bad request, as the web client expects.
			status = http.StatusBadRequest
		}
		writeError(w, status, msgRepoFailed+": "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, processResponse{Success: true, Message: msgRepoProcessed})
}

func (c *documentsController) processMultiple(w http.ResponseWriter, r *http.Request) {
	var reqs []repoRequest
	if err := decodeJSON(r, &reqs); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Requests may differ in replace_existing, so group them.
	out := make([]processResponse, len(reqs))
	for _, replace := range []bool{false, true} {
		var idx []int
		var urls []string
		for i, req := range reqs {
			if req.ReplaceExisting == replace {
				idx = append(idx, i)
				urls = append(urls, req.RepoURL)
			}
		}
		if len(urls) == 0 {
			continue
		}
		results := c.ingest.IngestBatch(r.Context(), urls, domain.IngestOptions{ReplaceExisting: replace})
		for j, res := range results {
			out[idx[j]] = processResponse{Success: res.Success, Message: res.Message}
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// queryRequest is a chat question.
type queryRequest struct {
	Query string `json:"query"`
}

// queryData is the answer payload of a chat reply.
type queryData struct {
	Answer   string               `json:"answer"`
	Sources  []domain.Source      `json:"sources"`
	Metadata domain.QueryMetadata `json:"metadata"`
	Error    string               `json:"error,omitempty"`
}

// queryResponse wraps every chat reply, successful or not.
type queryResponse struct {
	Status domain.QueryStatus `json:"status"`
	Data   queryData          `json:"data"`
}

type chatController struct {
	answer driving.AnswerService
}

func (c *chatController) routes() []route {
	return []route{
		{"POST /api/chat/query", requireAPIKey(c.query)},
	}
}

func (c *chatController) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// The answer pipeline is fail-soft, so every question gets a 200.
	result := c.answer.Answer(r.Context(), req.Query)
	writeJSON(w, http.StatusOK, queryResponse{
		Status: result.Status,
		Data: queryData{
			Answer:   result.Answer,
			Sources:  result.Sources,
			Metadata: result.Metadata,
			Error:    result.Error,
		},
	})
}

// projectRequest registers a project.
type projectRequest struct {
	Name        string `json:"name"`
	ReadmeURL   string `json:"readmeUrl"`
	Description string `json:"description"`
}

type projectsController struct {
	projects driving.ProjectService
}

func (c *projectsController) routes() []route {
	return []route{
		{"GET /api/projects", requireAPIKey(c.discover)},
		{"GET /api/v1/projects", requireAPIKey(c.list)},
		{"GET /api/v1/projects/", requireAPIKey(c.list)},
		{"POST /api/v1/projects", requireAPIKey(c.add)},
	}
}

func (c *projectsController) discover(w http.ResponseWriter, r *http.Request) {
	projects, err := c.projects.Discover(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nonNil(projects))
}

func (c *projectsController) list(w http.ResponseWriter, r *http.Request) {
	projects, err := c.projects.List(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, nonNil(projects))
}

func (c *projectsController) add(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	project, err := c.projects.Add(r.Context(), req.Name, req.ReadmeURL, req.Description)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func nonNil(projects []domain.Project) []domain.Project {
	if projects == nil {
		return []domain.Project{}
	}
	return projects
}

// apiKeyRequest stores a provider key.
type apiKeyRequest struct {
	APIKey string `json:"api_key"`
}

type settingsController struct {
	settings driving.SettingsService
}

func (c *settingsController) routes() []route {
	return []route{
		{"POST /api/settings/api-key", c.storeAPIKey},
	}
}

func (c *settingsController) storeAPIKey(w http.ResponseWriter, r *http.Request) {
	var req apiKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	key := strings.TrimSpace(req.APIKey)
	if err := domain.ValidateAPIKey(key); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := c.settings.SetAPIKey(key); err != nil {
		if errors.Is(err, domain.ErrAuthorization) {
			writeError(w, http.StatusUnauthorized, "API key rejected: "+err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Error storing API key: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": statusSuccess, "message": msgAPIKeyStored})
}
