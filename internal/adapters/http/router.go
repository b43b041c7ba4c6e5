package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/kirillkom/safety-qa/internal/core/domain"
	"github.com/kirillkom/safety-qa/internal/core/ports"
	"github.com/kirillkom/safety-qa/internal/observability/metrics"
)

type Router struct {
	service  string
	ingestor ports.DocumentIngestor
	asker    ports.QuestionAnswerer
	index    ports.IndexManager
	docs     ports.DocumentReader
	metrics  *metrics.HTTPServerMetrics
	logger   *slog.Logger
}

func NewRouter(
	service string,
	ingestor ports.DocumentIngestor,
	asker ports.QuestionAnswerer,
	index ports.IndexManager,
	docs ports.DocumentReader,
	httpMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		service:  service,
		ingestor: ingestor,
		asker:    asker,
		index:    index,
		docs:     docs,
		metrics:  httpMetrics,
		logger:   logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/index/rebuild", rt.rebuild)
	mux.HandleFunc("/v1/index/status", rt.indexStatus)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	return requestIDMiddleware(rt.accessLog(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	doc, err := rt.ingestor.Upload(
		r.Context(),
		r.FormValue("title"),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "document id is required")
		return
	}

	doc, err := rt.docs.GetByID(r.Context(), id)
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Query string `json:"q"`
		K     int    `json:"k"`
		Mode  string `json:"mode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	start := time.Now()
	answer, err := rt.asker.Ask(r.Context(), req.Query, req.K, domain.AnswerMode(req.Mode))
	if err != nil {
		rt.writeDomainError(w, r, err)
		return
	}
	if rt.metrics != nil {
		rt.metrics.RecordAsk(rt.service, string(answer.Mode), answer.Accepted, answer.Confidence, len(answer.Citations), time.Since(start))
	}

	writeJSON(w, http.StatusOK, answer)
}

// rebuild serves the whole build lifecycle on one path: POST runs a build to
// completion, GET reports in-flight progress, DELETE aborts.
func (rt *Router) rebuild(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		start := time.Now()
		report, err := rt.index.Rebuild(r.Context())
		if rt.metrics != nil {
			chunkCount := 0
			if report != nil {
				chunkCount = report.ChunksCreated
			}
			rt.metrics.RecordBuild(rt.service, time.Since(start), chunkCount, err)
		}
		if err != nil {
			rt.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, report)

	case http.MethodGet:
		progress, ok := rt.index.Progress()
		if !ok {
			writeError(w, http.StatusNotFound, "no build in progress")
			return
		}
		writeJSON(w, http.StatusOK, progress)

	case http.MethodDelete:
		if !rt.index.Abort() {
			writeError(w, http.StatusNotFound, "no build in progress")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "aborting"})

	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (rt *Router) indexStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, rt.index.Status())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps a domain error onto a status code. Server-side
// failures also get a request-scoped log line; client errors only show up in
// the access log.
func (rt *Router) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		rt.requestLogger(r).Error("request failed", "status", status, "error", err)
	}
	writeError(w, status, err.Error())
}
