package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/dto"
	"github.com/aretw0/formwork/internal/presentation/graph"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/questions"
	"github.com/aretw0/formwork/pkg/registry"
	"github.com/aretw0/formwork/pkg/schema"
)

// TenantHeader scopes requests to one tenant. Templates of other tenants are
// reported as not found.
const TenantHeader = "X-Tenant-ID"

// Engine is the part of the formwork engine served over HTTP.
type Engine interface {
	CreateTemplate(ctx context.Context, draft *domain.FormTemplate) (*domain.FormTemplate, error)
	GetTemplate(ctx context.Context, id string) (*domain.FormTemplate, error)
	ListTemplates(ctx context.Context, filter ports.Filter) ([]*domain.FormTemplate, error)
	AddQuestion(ctx context.Context, templateID string, q domain.Question) (*domain.FormTemplate, error)
	UpdateQuestion(ctx context.Context, templateID, questionID string, patch questions.Patch) (*domain.FormTemplate, error)
	DeleteQuestion(ctx context.Context, templateID, questionID string) (*domain.FormTemplate, []domain.RuleRef, error)
	ReorderQuestions(ctx context.Context, templateID string, ids []string) (*domain.FormTemplate, error)
	CreateVersion(ctx context.Context, templateID, notes string) (*domain.FormTemplate, error)
	History(ctx context.Context, name, typeID, tenantID string) ([]*domain.FormTemplate, error)
	LineageHistory(ctx context.Context, lineageID string) ([]*domain.FormTemplate, error)
	Compare(ctx context.Context, fromID, toID string) (*domain.TemplateDiff, error)
	Activate(ctx context.Context, templateID string) (*domain.FormTemplate, error)
	Deactivate(ctx context.Context, templateID string) (*domain.FormTemplate, error)
	DeactivateLineage(ctx context.Context, lineageID string) error
	Evaluate(ctx context.Context, templateID string, responses map[string]any) (domain.States, error)
	Validator(ctx context.Context, templateID string) (*schema.Validator, error)
	Validate(ctx context.Context, templateID string, responses map[string]any) (*formwork.Submission, error)
	Submit(ctx context.Context, templateID string, responses map[string]any) (*formwork.Submission, error)
	Prefill(ctx context.Context, templateID string, profile any) (map[string]any, error)
	Categories() []domain.FormCategory
	Types(categoryID string) []domain.FormType
}

var _ Engine = (*formwork.Engine)(nil)

// Server serves an Engine.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	logger  *slog.Logger
	gather  prometheus.Gatherer
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams serves GET /events from sm. Attach the same manager to the engine as
// a publisher.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithGatherer serves GET /metrics from g.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gather = g
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{Engine: engine}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.gather != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(requestValidator)

		r.Get("/health", s.getHealth)
		r.Get("/info", s.getInfo)
		r.Get("/question-types", s.listQuestionTypes)
		r.Get("/categories", s.listCategories)
		r.Get("/types", s.listTypes)
		r.Get("/events", s.Streams.serveEvents)
		r.Get("/history", s.history)
		r.Post("/lineages/{lineageId}/deactivate", s.deactivateLineage)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.listTemplates)
			r.Post("/", s.createTemplate)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getTemplate)
				r.Post("/questions", s.addQuestion)
				r.Put("/questions/order", s.reorderQuestions)
				r.Patch("/questions/{questionId}", s.updateQuestion)
				r.Delete("/questions/{questionId}", s.deleteQuestion)
				r.Get("/versions", s.lineageHistory)
				r.Post("/versions", s.createVersion)
				r.Get("/compare/{otherId}", s.compare)
				r.Post("/activate", s.activate)
				r.Post("/deactivate", s.deactivate)
				r.Get("/schema", s.getSchema)
				r.Get("/graph", s.getGraph)
				r.Post("/evaluate", s.evaluate)
				r.Post("/validate", s.validate)
				r.Post("/submit", s.submit)
				r.Post("/prefill", s.prefill)
			})
		})
	})

	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+TenantHeader)
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Formwork API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// StatusOf maps an error to its HTTP status.
func StatusOf(err error) int {
	if errors.Is(err, domain.ErrValidationFailed) {
		return http.StatusUnprocessableEntity
	}
	switch domain.CodeOf(err) {
	case "":
		return http.StatusOK
	case domain.CodeTemplateNotFound, domain.CodeQuestionNotFound:
		return http.StatusNotFound
	case domain.CodeConflict, domain.CodeTemplateImmutable, domain.CodeDuplicateQuestionID:
		return http.StatusConflict
	case domain.CodeValidation, domain.CodeCyclicDependency, domain.CodeInvalidReorderSet, domain.CodeUnsupportedQuestionType:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, env domain.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("Response encode failed", "err", err)
	}
}

func writeOK(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, domain.OK(data))
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusOf(err)
	if status == http.StatusInternalServerError {
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, domain.Fail(err))
}

func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON body: %v", domain.ErrInvalidRequest, err)
	}
	return nil
}

func tenantOf(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(TenantHeader))
}

// load fetches the template named by the {id} parameter, hiding other tenants'.
func (s *Server) load(r *http.Request, param string) (*domain.FormTemplate, error) {
	id := chi.URLParam(r, param)
	t, err := s.Engine.GetTemplate(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if tenant := tenantOf(r); tenant != "" && t.TenantID != tenant {
		return nil, fmt.Errorf("%w: %s", domain.ErrTemplateNotFound, id)
	}
	return t, nil
}

// authorize checks tenant access to {id} and returns the id.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	if tenantOf(r) == "" {
		return chi.URLParam(r, "id"), true
	}
	t, err := s.load(r, "id")
	if err != nil {
		writeError(w, r, err)
		return "", false
	}
	return t.ID, true
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeOK(w, http.StatusOK, map[string]string{
		"app":         "formwork-http",
		"version":     strings.TrimSpace(formwork.Version),
		"api_version": apiVersion,
	})
}

func (s *Server) listQuestionTypes(w http.ResponseWriter, r *http.Request) {
	var out []registry.Descriptor
	for _, t := range registry.Supported() {
		d, err := registry.Describe(t)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out = append(out, d)
	}
	writeOK(w, http.StatusOK, out)
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, s.Engine.Categories())
}

func (s *Server) listTypes(w http.ResponseWriter, r *http.Request) {
	writeOK(w, http.StatusOK, s.Engine.Types(r.URL.Query().Get("category_id")))
}

func (s *Server) listTemplates(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ports.Filter{
		TenantID: tenantOf(r),
		TypeID:   q.Get("type_id"),
		Name:     q.Get("name"),
	}
	if v := q.Get("active"); v != "" {
		filter.ActiveOnly, _ = strconv.ParseBool(v)
	}
	list, err := s.Engine.ListTemplates(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, list)
}

func (s *Server) createTemplate(w http.ResponseWriter, r *http.Request) {
	var def dto.TemplateDefinition
	if err := decode(r, &def); err != nil {
		writeError(w, r, err)
		return
	}
	if tenant := tenantOf(r); tenant != "" {
		def.TenantID = tenant
	}
	draft, err := def.ToTemplate()
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.Engine.CreateTemplate(r.Context(), draft)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, t)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.Engine.History(r.Context(), q.Get("name"), q.Get("type_id"), tenantOf(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, list)
}

func (s *Server) getTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.load(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, t)
}

func (s *Server) addQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.authorize(w, r)
	if !ok {
		return
	}
	var q domain.Question
	if err := decode(r, &q); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.Engine.AddQuestion(r.Context(), id, q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, t)
}

func (s *Server) updateQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.authorize(w, r)
	if !ok {
		return
	}
	var fields map[string]any
	if err := decode(r, &fields); err != nil {
		writeError(w, r, err)
		return
	}
	patch, err := questions.PatchFromMap(fields)
	if err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.Engine.UpdateQuestion(r.Context(), id, chi.URLParam(r, "questionId"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, t)
}

func (s *Server) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.authorize(w, r)
	if !ok {
		return
	}
	t, removed, err := s.Engine.DeleteQuestion(r.Context(), id, chi.URLParam(r, "questionId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, map[string]any{
		"template":      t,
		"removed_rules": removed,
	})
}

func (s *Server) reorderQuestions(w http.ResponseWriter, r *http.Request) {
	id, ok := s.authorize(w, r)
	if !ok {
		return
	}
	var body struct {
		QuestionIDs []string `json:"question_ids"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.Engine.ReorderQuestions(r.Context(), id, body.QuestionIDs)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, t)
}

func (s *Server) lineageHistory(w http.ResponseWriter, r *http.Request) {
	t, err := s.load(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	list, err := s.Engine.LineageHistory(r.Context(), t.LineageID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, list)
}

func (s *Server) createVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.authorize(w, r)
	if !ok {
		return
	}
	var body struct {
		Notes string `json:"notes"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	t, err := s.Engine.CreateVersion(r.Context(), id, body.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusCreated, t)
}

func (s *Server) compare(w http.ResponseWriter, r *http.Request) {
	from, err := s.load(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	to, err := s.load(r, "otherId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	diff, err := s.Engine.Compare(r.Context(), from.ID, to.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, diff)
}

func (s *Server) activate(w http.ResponseWriter, r *http.Request) {
	s.switchActive(w, r, s.Engine.Activate)
}

func (s *Server) deactivate(w http.ResponseWriter, r *http.Request) {
	s.switchActive(w, r, s.Engine.Deactivate)
}

func (s *Server) switchActive(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) (*domain.FormTemplate, error)) {
	id, ok := s.authorize(w, r)
	if !ok {
		return
	}
	t, err := fn(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, t)
}

func (s *Server) deactivateLineage(w http.ResponseWriter, r *http.Request) {
	lineageID := chi.URLParam(r, "lineageId")
	if tenant := tenantOf(r); tenant != "" {
		versions, err := s.Engine.LineageHistory(r.Context(), lineageID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if versions[0].TenantID != tenant {
			writeError(w, r, fmt.Errorf("%w: lineage %s", domain.ErrTemplateNotFound, lineageID))
			return
		}
	}
	if err := s.Engine.DeactivateLineage(r.Context(), lineageID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getSchema(w http.ResponseWriter, r *http.Request) {
	id, ok := s.authorize(w, r)
	if !ok {
		return
	}
	v, err := s.Engine.Validator(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, v)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	t, err := s.load(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(t.Questions, nil))
}

type responsesBody struct {
	Responses map[string]any `json:"responses"`
}

func (s *Server) readResponses(w http.ResponseWriter, r *http.Request) (string, map[string]any, bool) {
	id, ok := s.authorize(w, r)
	if !ok {
		return "", nil, false
	}
	var body responsesBody
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return "", nil, false
	}
	if body.Responses == nil {
		body.Responses = map[string]any{}
	}
	return id, body.Responses, true
}

func (s *Server) evaluate(w http.ResponseWriter, r *http.Request) {
	id, responses, ok := s.readResponses(w, r)
	if !ok {
		return
	}
	states, err := s.Engine.Evaluate(r.Context(), id, responses)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, states)
}

func (s *Server) validate(w http.ResponseWriter, r *http.Request) {
	id, responses, ok := s.readResponses(w, r)
	if !ok {
		return
	}
	sub, err := s.Engine.Validate(r.Context(), id, responses)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, sub)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request) {
	id, responses, ok := s.readResponses(w, r)
	if !ok {
		return
	}
	sub, err := s.Engine.Submit(r.Context(), id, responses)
	if err != nil {
		env := domain.Fail(err)
		if sub != nil {
			env.Data = sub
		}
		writeJSON(w, StatusOf(err), env)
		return
	}
	writeOK(w, http.StatusOK, sub)
}

func (s *Server) prefill(w http.ResponseWriter, r *http.Request) {
	id, ok := s.authorize(w, r)
	if !ok {
		return
	}
	var body struct {
		Profile map[string]any `json:"profile"`
	}
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	initial, err := s.Engine.Prefill(r.Context(), id, body.Profile)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, http.StatusOK, initial)
}
