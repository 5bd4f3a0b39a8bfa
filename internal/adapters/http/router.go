// Package httpadapter exposes the REST surface. Authentication lives in an
// outer layer; requests arrive with the caller identity in the X-User-Id
// header.
package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/veriskai/modelrisk/internal/config"
	"github.com/veriskai/modelrisk/internal/core/domain"
	"github.com/veriskai/modelrisk/internal/core/ports"
	"github.com/veriskai/modelrisk/internal/observability/metrics"
)

const userIDHeader = "X-User-Id"

type Router struct {
	cfg       config.Config
	documents ports.DocumentService
	answers   ports.AnswerService
	usage     ports.MetricsService
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	documents ports.DocumentService,
	answers ports.AnswerService,
	usage ports.MetricsService,
) *Router {
	return &Router{
		cfg:       cfg,
		documents: documents,
		answers:   answers,
		usage:     usage,
	}
}

// WithMetrics attaches the Prometheus registry; nil is allowed in tests.
func (rt *Router) WithMetrics(m *metrics.HTTPServerMetrics) *Router {
	rt.metrics = m
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.documentsCollection)
	mux.HandleFunc("/v1/documents/", rt.documentByID)
	mux.HandleFunc("/v1/questions", rt.questions)
	mux.HandleFunc("/v1/metrics", rt.usageMetrics)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.cfg.APIMaxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, 50*time.Millisecond)
	}
	if rt.cfg.APIRateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) documentsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.uploadDocument(w, r)
	case http.MethodGet:
		rt.listDocuments(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
	}
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("multipart field 'file' is required"))
		return
	}
	defer file.Close()

	mediaType := fileHeader.Header.Get("Content-Type")
	doc, err := rt.documents.Upload(r.Context(), ownerID, fileHeader.Filename, mediaType, fileHeader.Size, file)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordUpload("api", doc.MediaType, doc.SizeBytes)
	}
	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) listDocuments(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}

	docs, err := rt.documents.List(r.Context(), ownerID, queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if docs == nil {
		docs = []domain.Document{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (rt *Router) documentByID(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("document id is required"))
		return
	}

	switch {
	case action == "ingest" && r.Method == http.MethodPost:
		if err := rt.documents.Reingest(r.Context(), ownerID, id); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	case action == "" && r.Method == http.MethodGet:
		doc, err := rt.documents.Get(r.Context(), ownerID, id)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	case action == "" && r.Method == http.MethodDelete:
		if err := rt.documents.Delete(r.Context(), ownerID, id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
	}
}

func (rt *Router) questions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		rt.askQuestion(w, r)
	case http.MethodGet:
		rt.questionHistory(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
	}
}

func (rt *Router) askQuestion(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	start := time.Now()
	record, err := rt.answers.Answer(r.Context(), ownerID, req.Question)
	if err != nil {
		writeError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordAnswer("api", string(record.RiskCategory), record.RetrievedChunks, record.Confidence, time.Since(start))
	}
	writeJSON(w, http.StatusOK, record)
}

func (rt *Router) questionHistory(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}

	records, err := rt.answers.History(r.Context(), ownerID, queryLimit(r))
	if err != nil {
		writeError(w, err)
		return
	}
	if records == nil {
		records = []domain.QuestionRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"questions": records})
}

func (rt *Router) usageMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("scope") == "global" {
		ownerID = ""
	}

	usage, err := rt.usage.Compute(r.Context(), ownerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, usage)
}

func callerID(w http.ResponseWriter, r *http.Request) (string, bool) {
	ownerID := strings.TrimSpace(r.Header.Get(userIDHeader))
	if ownerID == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody("X-User-Id header is required"))
		return "", false
	}
	return ownerID, true
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 0
	}
	return limit
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), errorBody(err.Error()))
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
