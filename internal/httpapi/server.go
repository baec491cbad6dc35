// Package httpapi exposes the wizard over HTTP. Each session owns one
// workflow machine; the handlers translate JSON requests into machine
// operations and wizard errors into status codes.
package httpapi

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pehel/mortgage-app/internal/catalog"
	"github.com/pehel/mortgage-app/internal/collaborators"
	"github.com/pehel/mortgage-app/internal/common/errors"
	"github.com/pehel/mortgage-app/internal/common/logger"
	"github.com/pehel/mortgage-app/internal/models"
	"github.com/pehel/mortgage-app/internal/workflow"
	"github.com/pehel/mortgage-app/pkg/registry"
)

// Server holds the active wizard sessions.
type Server struct {
	mu       sync.RWMutex
	sessions map[string]*workflow.Machine

	deps   workflow.Deps
	steps  *registry.StepRegistry
	logger logger.Logger
}

func NewServer(deps workflow.Deps, log logger.Logger) *Server {
	return &Server{
		sessions: make(map[string]*workflow.Machine),
		deps:     deps,
		logger:   log.WithFields(map[string]interface{}{"component": "httpapi"}),
	}
}

// WithStepRegistry attaches the step registry served at GET /steps.
func (s *Server) WithStepRegistry(reg *registry.StepRegistry) *Server {
	s.steps = reg
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /products", s.handleProducts)
	mux.HandleFunc("GET /steps", s.handleSteps)
	mux.HandleFunc("POST /sessions", s.handleCreateSession)
	mux.HandleFunc("GET /sessions/{id}", s.withSession(s.handleSnapshot))
	mux.HandleFunc("POST /sessions/{id}/classify", s.withSession(s.handleClassify))
	mux.HandleFunc("POST /sessions/{id}/browse", s.withSession(s.handleBrowse))
	mux.HandleFunc("POST /sessions/{id}/product", s.withSession(s.handleSelectProduct))
	mux.HandleFunc("POST /sessions/{id}/applicants", s.withSession(s.handleApplicants))
	mux.HandleFunc("POST /sessions/{id}/extract", s.withSession(s.handleExtract))
	mux.HandleFunc("POST /sessions/{id}/details", s.withSession(s.handleDetails))
	mux.HandleFunc("POST /sessions/{id}/documents", s.withSession(s.handleUploadDocument))
	mux.HandleFunc("POST /sessions/{id}/review", s.withSession(s.handleReview))
	mux.HandleFunc("POST /sessions/{id}/decision", s.withSession(s.handleDecision))
	mux.HandleFunc("POST /sessions/{id}/agreement", s.withSession(s.handleAgreement))
	mux.HandleFunc("POST /sessions/{id}/sign", s.withSession(s.handleSign))
	mux.HandleFunc("POST /sessions/{id}/complete", s.withSession(s.handleComplete))
	mux.HandleFunc("POST /sessions/{id}/back", s.withSession(s.handleBack))
	mux.HandleFunc("POST /sessions/{id}/restart", s.withSession(s.handleRestart))

	return mux
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, m *workflow.Machine)

func (s *Server) withSession(h sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		s.mu.RLock()
		m, ok := s.sessions[id]
		s.mu.RUnlock()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown session"})
			return
		}
		h(w, r, m)
	}
}

func (s *Server) handleProducts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products": s.deps.Catalog.Products(),
	})
}

func (s *Server) handleSteps(w http.ResponseWriter, _ *http.Request) {
	if s.steps == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no step registry configured"})
		return
	}
	writeJSON(w, http.StatusOK, s.steps)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	id := uuid.NewString()
	m := workflow.NewMachine(s.deps)

	s.mu.Lock()
	s.sessions[id] = m
	s.mu.Unlock()

	s.logger.Info("session created", map[string]interface{}{
		"sessionId":      id,
		"applicationRef": m.Ref(),
	})
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"sessionId": id,
		"state":     m.Snapshot(),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request, m *workflow.Machine) {
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request, m *workflow.Machine) {
	var req struct {
		Message string `json:"message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := m.Classify(req.Message)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleBrowse(w http.ResponseWriter, _ *http.Request, m *workflow.Machine) {
	s.respond(w, m, m.BrowseProducts())
}

func (s *Server) handleSelectProduct(w http.ResponseWriter, r *http.Request, m *workflow.Machine) {
	var req struct {
		ProductID catalog.ProductID `json:"productId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.respond(w, m, m.SelectProduct(req.ProductID))
}

func (s *Server) handleApplicants(w http.ResponseWriter, r *http.Request, m *workflow.Machine) {
	var req struct {
		ApplicationType models.ApplicationType `json:"applicationType"`
		Primary         models.Applicant       `json:"primaryApplicant"`
		Joint           *models.Applicant      `json:"jointApplicant,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.respond(w, m, m.SubmitApplicants(req.ApplicationType, req.Primary, req.Joint))
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request, m *workflow.Machine) {
	var req struct {
		Role         models.Role `json:"role"`
		DocumentName string      `json:"documentName"`
		Content      []byte      `json:"content,omitempty"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	doc := collaborators.Document{Name: req.DocumentName, Content: req.Content}
	s.respond(w, m, m.ExtractApplicant(r.Context(), req.Role, doc))
}

func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request, m *workflow.Machine) {
	var req models.ProductDetails
	if !decodeBody(w, r, &req) {
		return
	}
	s.respond(w, m, m.SubmitProductDetails(req))
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request, m *workflow.Machine) {
	var req struct {
		Role  models.Role `json:"role"`
		Label string      `json:"label"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.respond(w, m, m.UploadDocument(req.Role, req.Label))
}

func (s *Server) handleReview(w http.ResponseWriter, _ *http.Request, m *workflow.Machine) {
	s.respond(w, m, m.ContinueToReview())
}

func (s *Server) handleDecision(w http.ResponseWriter, r *http.Request, m *workflow.Machine) {
	outcome, message, err := m.RequestDecision(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"decision": outcome,
		"message":  message,
		"state":    m.Snapshot(),
	})
}

func (s *Server) handleAgreement(w http.ResponseWriter, _ *http.Request, m *workflow.Machine) {
	s.respond(w, m, m.ContinueToAgreement())
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request, m *workflow.Machine) {
	var req struct {
		Role models.Role `json:"role"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	s.respond(w, m, m.SendForSignature(r.Context(), req.Role))
}

func (s *Server) handleComplete(w http.ResponseWriter, _ *http.Request, m *workflow.Machine) {
	s.respond(w, m, m.CompleteAgreement())
}

func (s *Server) handleBack(w http.ResponseWriter, _ *http.Request, m *workflow.Machine) {
	s.respond(w, m, m.Back())
}

func (s *Server) handleRestart(w http.ResponseWriter, _ *http.Request, m *workflow.Machine) {
	s.respond(w, m, m.Restart())
}

// respond writes the post-operation snapshot, or the error that rejected
// the operation.
func (s *Server) respond(w http.ResponseWriter, m *workflow.Machine, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m.Snapshot())
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var wizErr *errors.WizardError
	if !stderrors.As(err, &wizErr) {
		s.logger.WithError(err).Error("unclassified error", nil)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch wizErr.Kind {
	case errors.KindValidation:
		status = http.StatusUnprocessableEntity
	case errors.KindSequence:
		status = http.StatusConflict
	case errors.KindCollaborator:
		status = http.StatusBadGateway
		if wizErr.Code == errors.CodeCollaboratorTimeout {
			status = http.StatusGatewayTimeout
		}
	}
	writeJSON(w, status, map[string]interface{}{"error": wizErr})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
