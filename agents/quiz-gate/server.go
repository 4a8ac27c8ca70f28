package quizgate

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"edu-gate/internal/models"
	"edu-gate/shared/config"
	"edu-gate/shared/documents"
	"edu-gate/shared/monitoring"
	"edu-gate/shared/quiz"
	"edu-gate/shared/transcript"
)

type transcriptRequest struct {
	URL string `json:"url"`
}

type verifyRequest struct {
	Content string                `json:"content"`
	URL     string                `json:"url"`
	Source  *models.ContentSource `json:"source"`
}

type verifyResponse struct {
	Verification models.VerificationDecision `json:"verification"`
	Points       int                         `json:"points"`
}

type errorResponse struct {
	Detail    string `json:"detail"`
	RequestID string `json:"request_id,omitempty"`
}

// Server exposes the gate over HTTP.
type Server struct {
	gate    *Gate
	monitor *monitoring.Monitor
	cfg     config.ServerConfig
}

func NewServer(gate *Gate, cfg config.ServerConfig) *Server {
	return &Server{gate: gate, monitor: gate.monitor, cfg: cfg}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.cfg.AllowedOrigins))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz generator API"})
	})
	r.Get("/health", s.monitor.HealthHandler)
	r.Get("/status", s.monitor.StatusHandler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/transcript", s.handleTranscript)
		r.Post("/verify", s.handleVerify)
		r.Post("/generate-quiz", s.handleGenerateQuiz)
	})
	return r
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	var req transcriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeError(w, r, http.StatusBadRequest, "a JSON body with a url is required")
		return
	}
	result, err := s.gate.ResolveTranscript(r.Context(), strings.TrimSpace(req.URL))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, r, http.StatusBadRequest, "content is required")
		return
	}
	decision, award := s.gate.Verify(r.Context(), req.Content, req.URL, req.Source)
	writeJSON(w, http.StatusOK, verifyResponse{Verification: decision, Points: award})
}

func (s *Server) handleGenerateQuiz(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			writeError(w, r, http.StatusRequestEntityTooLarge, "uploaded file is too large")
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid form payload")
		return
	}

	var (
		result *Result
		err    error
	)
	file, header, ferr := r.FormFile("file")
	switch {
	case ferr == nil:
		defer file.Close()
		data, rerr := io.ReadAll(file)
		if rerr != nil {
			writeError(w, r, http.StatusBadRequest, "failed to read uploaded file")
			return
		}
		result, err = s.gate.ProcessFile(r.Context(), header.Filename, data)
	case strings.TrimSpace(r.FormValue("url")) != "":
		result, err = s.gate.ProcessURL(r.Context(), r.FormValue("url"))
	default:
		err = ErrNoInput
	}
	if err != nil {
		s.fail(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Rejected() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		logrus.WithFields(logrus.Fields{
			"request_id": requestIDFromContext(r.Context()),
			"path":       r.URL.Path,
		}).WithError(err).Error("Request failed")
	}
	writeError(w, r, status, err.Error())
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoInput),
		errors.Is(err, ErrContentTooShort),
		errors.Is(err, documents.ErrUnsupportedFileType),
		errors.Is(err, documents.ErrContentTooShort),
		errors.Is(err, documents.ErrEmptyDocument),
		errors.Is(err, documents.ErrInvalidURL),
		errors.Is(err, documents.ErrFetchFailed):
		return http.StatusBadRequest
	case errors.Is(err, transcript.ErrDurationExceeded),
		errors.Is(err, transcript.ErrResolutionFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, quiz.ErrAllModelsFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.WithError(err).Warn("Failed to write response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail, RequestID: requestIDFromContext(r.Context())})
}
