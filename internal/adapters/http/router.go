package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"sapirag/internal/core/domain"
	"sapirag/internal/core/ports"
	"sapirag/internal/observability/metrics"
)

// Router exposes search, RAG and workspace management endpoints over a
// plain ServeMux, wrapped in the shared middleware chain.
type Router struct {
	search         ports.SearchService
	answerers      map[string]ports.AnswerService
	defaultBackend string
	ingestor       ports.PDFIngestor
	workspaces     ports.WorkspaceManager
	metrics        *metrics.HTTPServerMetrics
	service        string
	traffic        TrafficConfig
}

type TrafficConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
	QueueWait      time.Duration
}

func NewRouter(
	search ports.SearchService,
	answerers map[string]ports.AnswerService,
	defaultBackend string,
	ingestor ports.PDFIngestor,
	workspaces ports.WorkspaceManager,
	m *metrics.HTTPServerMetrics,
	service string,
	traffic TrafficConfig,
) *Router {
	return &Router{
		search:         search,
		answerers:      answerers,
		defaultBackend: defaultBackend,
		ingestor:       ingestor,
		workspaces:     workspaces,
		metrics:        m,
		service:        service,
		traffic:        traffic,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/search/keyword-search", rt.keywordSearch)
	mux.HandleFunc("/search/embedding-search", rt.embeddingSearch)
	mux.HandleFunc("/search/search-hybrid", rt.hybridSearch)
	mux.HandleFunc("/rag", rt.rag)
	mux.HandleFunc("/workspace/upload-pdf", rt.uploadPDF)
	mux.HandleFunc("/workspace/generate-embeddings", rt.generateEmbeddings)
	mux.HandleFunc("/workspace/buckets", rt.listBuckets)
	mux.HandleFunc("/workspace/create-bucket", rt.createBucket)
	mux.HandleFunc("/workspace/list-pdfs", rt.listPDFs)
	mux.HandleFunc("/workspace/delete-pdf", rt.deletePDF)
	mux.HandleFunc("/workspace/delete-workspace", rt.deleteWorkspace)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.traffic.MaxConcurrent, rt.traffic.QueueWait)
	handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type matchJSON struct {
	Header   string  `json:"header"`
	Body     string  `json:"body"`
	Filename string  `json:"filename,omitempty"`
	Rank     float64 `json:"rank"`
}

type searchResponse struct {
	Matches []matchJSON `json:"matches"`
}

func (rt *Router) keywordSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	query := r.URL.Query().Get("query")
	scope := domain.Scope{
		Workspace: r.URL.Query().Get("workspace"),
		Filename:  r.URL.Query().Get("filename"),
	}
	topK, _ := strconv.Atoi(r.URL.Query().Get("top_k"))

	rt.runSearch(w, r, domain.ModeKeyword, query, scope, topK)
}

type searchRequest struct {
	Query     string `json:"query"`
	Workspace string `json:"workspace"`
	Filename  string `json:"filename"`
	TopK      int    `json:"top_k"`
}

func (rt *Router) embeddingSearch(w http.ResponseWriter, r *http.Request) {
	rt.postSearch(w, r, domain.ModeEmbedding)
}

func (rt *Router) hybridSearch(w http.ResponseWriter, r *http.Request) {
	rt.postSearch(w, r, domain.ModeHybrid)
}

func (rt *Router) postSearch(w http.ResponseWriter, r *http.Request, mode domain.SearchMode) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	scope := domain.Scope{Workspace: req.Workspace, Filename: req.Filename}
	rt.runSearch(w, r, mode, req.Query, scope, req.TopK)
}

func (rt *Router) runSearch(w http.ResponseWriter, r *http.Request, mode domain.SearchMode, query string, scope domain.Scope, topK int) {
	if strings.TrimSpace(query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	results, err := rt.search.Search(r.Context(), mode, query, scope, topK)
	if err != nil {
		writeError(w, err)
		return
	}

	matches := make([]matchJSON, 0, len(results))
	for _, res := range results {
		matches = append(matches, matchJSON{
			Header:   res.Header,
			Body:     res.Body,
			Filename: res.Filename,
			Rank:     res.Score,
		})
	}
	if rt.metrics != nil {
		rt.metrics.RecordSearchRequest(rt.service, string(mode))
	}
	writeJSON(w, http.StatusOK, searchResponse{Matches: matches})
}

type ragRequest struct {
	Question       string  `json:"question"`
	Workspace      string  `json:"workspace"`
	Filename       string  `json:"filename"`
	Mode           string  `json:"mode"`
	TopK           int     `json:"top_k"`
	ScoreThreshold float64 `json:"score_threshold"`
	Backend        string  `json:"backend"`
}

func (rt *Router) rag(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req ragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	backend := strings.ToLower(strings.TrimSpace(req.Backend))
	if backend == "" {
		backend = rt.defaultBackend
	}
	answerer, ok := rt.answerers[backend]
	if !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown backend: " + backend})
		return
	}

	start := time.Now()
	answer, err := answerer.Answer(r.Context(), domain.AnswerRequest{
		Question:       req.Question,
		Scope:          domain.Scope{Workspace: req.Workspace, Filename: req.Filename},
		Mode:           req.Mode,
		TopK:           req.TopK,
		ScoreThreshold: req.ScoreThreshold,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRAGObservation(rt.service, strings.ToLower(req.Mode), len(answer.UsedChunks), time.Since(start))
	}
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) uploadPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	workspace := r.FormValue("workspace")
	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	if err := rt.ingestor.Upload(r.Context(), workspace, fileHeader.Filename, file, fileHeader.Size); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"workspace": workspace,
		"filename":  fileHeader.Filename,
	})
}

type fileRequest struct {
	Workspace string `json:"workspace"`
	Filename  string `json:"filename"`
}

func (rt *Router) generateEmbeddings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Workspace == "" || req.Filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workspace and filename are required"})
		return
	}

	if err := rt.ingestor.ScheduleIndexing(r.Context(), req.Workspace, req.Filename); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

func (rt *Router) listBuckets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	names, err := rt.workspaces.ListWorkspaces(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"buckets": names})
}

func (rt *Router) createBucket(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Workspace string `json:"workspace"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.Workspace == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workspace is required"})
		return
	}

	created, err := rt.workspaces.CreateWorkspace(r.Context(), req.Workspace)
	if err != nil {
		writeError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, map[string]any{"workspace": req.Workspace, "created": created})
}

func (rt *Router) listPDFs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	workspace := r.URL.Query().Get("workspace")
	if workspace == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workspace is required"})
		return
	}

	files, err := rt.workspaces.ListPDFs(r.Context(), workspace)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"files": files})
}

func (rt *Router) deletePDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	workspace := r.URL.Query().Get("workspace")
	filename := r.URL.Query().Get("filename")
	if workspace == "" || filename == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workspace and filename are required"})
		return
	}

	if err := rt.workspaces.DeletePDF(r.Context(), workspace, filename); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (rt *Router) deleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	workspace := r.URL.Query().Get("workspace")
	if workspace == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workspace is required"})
		return
	}

	if err := rt.workspaces.DeleteWorkspace(r.Context(), workspace); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
