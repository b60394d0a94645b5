package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/formwork"
	"github.com/aretw0/formwork/internal/dto"
	"github.com/aretw0/formwork/internal/presentation/graph"
	"github.com/aretw0/formwork/internal/validator"
	"github.com/aretw0/formwork/pkg/domain"
	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/questions"
	"github.com/aretw0/formwork/pkg/registry"
)

// Engine defines the part of the formwork engine exposed as MCP tools.
type Engine interface {
	CreateTemplate(ctx context.Context, draft *domain.FormTemplate) (*domain.FormTemplate, error)
	GetTemplate(ctx context.Context, id string) (*domain.FormTemplate, error)
	ListTemplates(ctx context.Context, filter ports.Filter) ([]*domain.FormTemplate, error)
	AddQuestion(ctx context.Context, templateID string, q domain.Question) (*domain.FormTemplate, error)
	UpdateQuestion(ctx context.Context, templateID, questionID string, patch questions.Patch) (*domain.FormTemplate, error)
	DeleteQuestion(ctx context.Context, templateID, questionID string) (*domain.FormTemplate, []domain.RuleRef, error)
	ReorderQuestions(ctx context.Context, templateID string, ids []string) (*domain.FormTemplate, error)
	CreateVersion(ctx context.Context, templateID, notes string) (*domain.FormTemplate, error)
	LineageHistory(ctx context.Context, lineageID string) ([]*domain.FormTemplate, error)
	Compare(ctx context.Context, fromID, toID string) (*domain.TemplateDiff, error)
	Activate(ctx context.Context, templateID string) (*domain.FormTemplate, error)
	Deactivate(ctx context.Context, templateID string) (*domain.FormTemplate, error)
	Evaluate(ctx context.Context, templateID string, responses map[string]any) (domain.States, error)
	Validate(ctx context.Context, templateID string, responses map[string]any) (*formwork.Submission, error)
	Predicates() *registry.Predicates
}

var _ Engine = (*formwork.Engine)(nil)

// Server wraps the Formwork Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("formwork-mcp", strings.TrimSpace(formwork.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, mainly for tests.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on addr using SSE and stops when ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handle binds the arguments into A and renders the outcome. Failures become tool
// errors carrying the result envelope so agents can read the error code.
func handle[A any](logger *slog.Logger, fn func(context.Context, A) (any, error)) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args A
		if err := request.BindArguments(&args); err != nil {
			err = fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err)
			return errorResult(err), nil
		}
		out, err := fn(ctx, args)
		if err != nil {
			if domain.CodeOf(err) == domain.CodeInternal {
				logger.Error("MCP tool failed", "tool", request.Params.Name, "err", err)
			}
			return errorResult(err), nil
		}
		if text, ok := out.(string); ok {
			return mcp.NewToolResultText(text), nil
		}
		return mcp.NewToolResultStructuredOnly(domain.OK(out)), nil
	}
}

func errorResult(err error) *mcp.CallToolResult {
	env := domain.Fail(err)
	data, _ := json.Marshal(env)
	res := mcp.NewToolResultStructured(env, string(data))
	res.IsError = true
	return res
}

type templateArgs struct {
	TemplateID string `json:"template_id"`
}

type responsesArgs struct {
	TemplateID string         `json:"template_id"`
	Responses  map[string]any `json:"responses"`
}

type listArgs struct {
	Name       string `json:"name"`
	TypeID     string `json:"type_id"`
	TenantID   string `json:"tenant_id"`
	ActiveOnly bool   `json:"active_only"`
}

type questionArgs struct {
	TemplateID string          `json:"template_id"`
	Question   domain.Question `json:"question"`
}

type patchArgs struct {
	TemplateID string         `json:"template_id"`
	QuestionID string         `json:"question_id"`
	Patch      map[string]any `json:"patch"`
}

type deleteArgs struct {
	TemplateID string `json:"template_id"`
	QuestionID string `json:"question_id"`
}

type reorderArgs struct {
	TemplateID  string   `json:"template_id"`
	QuestionIDs []string `json:"question_ids"`
}

type versionArgs struct {
	TemplateID string `json:"template_id"`
	Notes      string `json:"notes"`
}

type compareArgs struct {
	FromID string `json:"from_id"`
	ToID   string `json:"to_id"`
}

type graphArgs struct {
	TemplateID string         `json:"template_id"`
	Responses  map[string]any `json:"responses"`
}

func templateID() mcp.ToolOption {
	return mcp.WithString("template_id", mcp.Required(), mcp.Description("Template version id"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_question_types",
		mcp.WithDescription("List the supported question types and their value shapes."),
	), handle(s.logger, func(ctx context.Context, _ struct{}) (any, error) {
		var out []registry.Descriptor
		for _, t := range registry.Supported() {
			d, err := registry.Describe(t)
			if err != nil {
				return nil, err
			}
			out = append(out, d)
		}
		return out, nil
	}))

	s.mcpServer.AddTool(mcp.NewTool("create_template",
		mcp.WithDescription("Create version 1 of a new template from a definition."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Template name")),
		mcp.WithString("type_id", mcp.Description("Form type id")),
		mcp.WithString("tenant_id", mcp.Description("Owning tenant")),
		mcp.WithString("description", mcp.Description("Free text description")),
		mcp.WithArray("questions", mcp.Description("Questions in display order"), mcp.Items(map[string]any{"type": "object"})),
	), handle(s.logger, func(ctx context.Context, def dto.TemplateDefinition) (any, error) {
		draft, err := def.ToTemplate()
		if err != nil {
			return nil, err
		}
		return s.engine.CreateTemplate(ctx, draft)
	}))

	s.mcpServer.AddTool(mcp.NewTool("lint_template",
		mcp.WithDescription("Check a template definition without storing it and report every problem."),
		mcp.WithString("name", mcp.Description("Template name")),
		mcp.WithArray("questions", mcp.Description("Questions in display order"), mcp.Items(map[string]any{"type": "object"})),
	), handle(s.logger, func(ctx context.Context, def dto.TemplateDefinition) (any, error) {
		draft, err := def.ToTemplate()
		if err != nil {
			return nil, err
		}
		return validator.Lint(draft, s.engine.Predicates()), nil
	}))

	s.mcpServer.AddTool(mcp.NewTool("get_template",
		mcp.WithDescription("Get one template version."),
		templateID(),
	), handle(s.logger, func(ctx context.Context, a templateArgs) (any, error) {
		return s.engine.GetTemplate(ctx, a.TemplateID)
	}))

	s.mcpServer.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List template versions matching a filter."),
		mcp.WithString("name", mcp.Description("Exact template name")),
		mcp.WithString("type_id", mcp.Description("Form type id")),
		mcp.WithString("tenant_id", mcp.Description("Owning tenant")),
		mcp.WithBoolean("active_only", mcp.Description("Only active versions")),
	), handle(s.logger, func(ctx context.Context, a listArgs) (any, error) {
		return s.engine.ListTemplates(ctx, ports.Filter{
			Name:       a.Name,
			TypeID:     a.TypeID,
			TenantID:   a.TenantID,
			ActiveOnly: a.ActiveOnly,
		})
	}))

	s.mcpServer.AddTool(mcp.NewTool("add_question",
		mcp.WithDescription("Append a question. Published versions are forked into a new draft first."),
		templateID(),
		mcp.WithObject("question", mcp.Required(), mcp.Description("Question definition (id, type, text, options, validation, conditional_logic)")),
	), handle(s.logger, func(ctx context.Context, a questionArgs) (any, error) {
		return s.engine.AddQuestion(ctx, a.TemplateID, a.Question)
	}))

	s.mcpServer.AddTool(mcp.NewTool("update_question",
		mcp.WithDescription("Apply a partial update to a question."),
		templateID(),
		mcp.WithString("question_id", mcp.Required()),
		mcp.WithObject("patch", mcp.Required(), mcp.Description("Fields to change")),
	), handle(s.logger, func(ctx context.Context, a patchArgs) (any, error) {
		patch, err := questions.PatchFromMap(a.Patch)
		if err != nil {
			return nil, err
		}
		return s.engine.UpdateQuestion(ctx, a.TemplateID, a.QuestionID, patch)
	}))

	s.mcpServer.AddTool(mcp.NewTool("delete_question",
		mcp.WithDescription("Delete a question and the conditional rules that referenced it."),
		templateID(),
		mcp.WithString("question_id", mcp.Required()),
	), handle(s.logger, func(ctx context.Context, a deleteArgs) (any, error) {
		t, removed, err := s.engine.DeleteQuestion(ctx, a.TemplateID, a.QuestionID)
		if err != nil {
			return nil, err
		}
		return map[string]any{"template": t, "removed_rules": removed}, nil
	}))

	s.mcpServer.AddTool(mcp.NewTool("reorder_questions",
		mcp.WithDescription("Set the question order. The ids must be a permutation of the current ids."),
		templateID(),
		mcp.WithArray("question_ids", mcp.Required(), mcp.WithStringItems()),
	), handle(s.logger, func(ctx context.Context, a reorderArgs) (any, error) {
		return s.engine.ReorderQuestions(ctx, a.TemplateID, a.QuestionIDs)
	}))

	s.mcpServer.AddTool(mcp.NewTool("create_version",
		mcp.WithDescription("Snapshot a template into the next version of its lineage."),
		templateID(),
		mcp.WithString("notes", mcp.Description("Version notes")),
	), handle(s.logger, func(ctx context.Context, a versionArgs) (any, error) {
		return s.engine.CreateVersion(ctx, a.TemplateID, a.Notes)
	}))

	s.mcpServer.AddTool(mcp.NewTool("template_history",
		mcp.WithDescription("List every version of the template's lineage."),
		templateID(),
	), handle(s.logger, func(ctx context.Context, a templateArgs) (any, error) {
		t, err := s.engine.GetTemplate(ctx, a.TemplateID)
		if err != nil {
			return nil, err
		}
		return s.engine.LineageHistory(ctx, t.LineageID)
	}))

	s.mcpServer.AddTool(mcp.NewTool("compare_versions",
		mcp.WithDescription("Structural diff between two template versions."),
		mcp.WithString("from_id", mcp.Required()),
		mcp.WithString("to_id", mcp.Required()),
	), handle(s.logger, func(ctx context.Context, a compareArgs) (any, error) {
		return s.engine.Compare(ctx, a.FromID, a.ToID)
	}))

	s.mcpServer.AddTool(mcp.NewTool("activate_version",
		mcp.WithDescription("Make a version the only active version of its lineage."),
		templateID(),
	), handle(s.logger, func(ctx context.Context, a templateArgs) (any, error) {
		return s.engine.Activate(ctx, a.TemplateID)
	}))

	s.mcpServer.AddTool(mcp.NewTool("deactivate_version",
		mcp.WithDescription("Turn a version off."),
		templateID(),
	), handle(s.logger, func(ctx context.Context, a templateArgs) (any, error) {
		return s.engine.Deactivate(ctx, a.TemplateID)
	}))

	s.mcpServer.AddTool(mcp.NewTool("evaluate",
		mcp.WithDescription("Compute the effective state (hidden, visible_optional, visible_required) of every question."),
		templateID(),
		mcp.WithObject("responses", mcp.Description("Answers keyed by question id")),
	), handle(s.logger, func(ctx context.Context, a responsesArgs) (any, error) {
		return s.engine.Evaluate(ctx, a.TemplateID, a.Responses)
	}))

	s.mcpServer.AddTool(mcp.NewTool("validate_responses",
		mcp.WithDescription("Evaluate conditional logic and validate answers against the effective state."),
		templateID(),
		mcp.WithObject("responses", mcp.Required(), mcp.Description("Answers keyed by question id")),
	), handle(s.logger, func(ctx context.Context, a responsesArgs) (any, error) {
		return s.engine.Validate(ctx, a.TemplateID, a.Responses)
	}))

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Mermaid flowchart of the conditional dependencies, styled by effective state when responses are given."),
		templateID(),
		mcp.WithObject("responses", mcp.Description("Answers keyed by question id")),
	), handle(s.logger, func(ctx context.Context, a graphArgs) (any, error) {
		t, err := s.engine.GetTemplate(ctx, a.TemplateID)
		if err != nil {
			return nil, err
		}
		var states domain.States
		if a.Responses != nil {
			if states, err = s.engine.Evaluate(ctx, a.TemplateID, a.Responses); err != nil {
				return nil, err
			}
		}
		return graph.GenerateMermaid(t.Questions, states), nil
	}))
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("formwork://question-types", "Supported Question Types",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		var out []registry.Descriptor
		for _, t := range registry.Supported() {
			d, _ := registry.Describe(t)
			out = append(out, d)
		}
		jsonBytes, _ := json.Marshal(out)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "formwork://question-types",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate("formwork://templates/{id}", "Template Version",
		mcp.WithTemplateMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		id := strings.TrimPrefix(request.Params.URI, "formwork://templates/")
		t, err := s.engine.GetTemplate(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
		jsonBytes, _ := json.Marshal(t)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      request.Params.URI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
