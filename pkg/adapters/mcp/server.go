// Package mcp exposes the story engine as an MCP server, so an MCP
// client (an agent, an editor) can play and inspect sessions over
// stdio or SSE. Each tool call rehydrates the session from the stores;
// the server itself keeps no play state between calls.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"

	vellum "github.com/softgrove/vellum"
	"github.com/softgrove/vellum/pkg/ports"
	"github.com/softgrove/vellum/pkg/runner"
	"github.com/softgrove/vellum/pkg/session"
)

// StoryResponse is the unified result of the play tools.
type StoryResponse struct {
	SessionID string   `json:"session_id" jsonschema_description:"Identifier used to resume this session"`
	Chapter   int      `json:"chapter" jsonschema_description:"Sequence number of the returned chapter"`
	Text      string   `json:"text" jsonschema_description:"Chapter text in markdown"`
	Choices   []string `json:"choices,omitempty" jsonschema_description:"Available next actions"`
	Finished  bool     `json:"finished" jsonschema_description:"Whether the chapter ceiling was reached"`
}

// SessionSummary describes one saved session.
type SessionSummary struct {
	SessionID string    `json:"session_id"`
	Chapters  int       `json:"chapters"`
	LastSaved time.Time `json:"last_saved"`
}

// Server wraps the stores and generation capability as an MCP server.
type Server struct {
	cfg       session.Config
	states    ports.StateStore
	chapters  ports.ChapterStore
	links     ports.LinkStore
	gen       ports.Generator
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

type Option func(*Server)

func WithLinkStore(links ports.LinkStore) Option {
	return func(s *Server) {
		s.links = links
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an MCP server instance.
func NewServer(cfg session.Config, states ports.StateStore, chapters ports.ChapterStore, gen ports.Generator, opts ...Option) *Server {
	s := &Server{
		cfg:       cfg,
		states:    states,
		chapters:  chapters,
		gen:       gen,
		logger:    slog.Default(),
		mcpServer: server.NewMCPServer("vellum-mcp", vellum.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", sseServer.SSEHandler())
	mux.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("mcp server listening (sse)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

// controller builds a fresh controller over the shared stores.
func (s *Server) controller() *session.Controller {
	opts := []session.Option{session.WithLogger(s.logger)}
	if s.links != nil {
		opts = append(opts, session.WithLinkStore(s.links))
	}
	return session.NewController(s.cfg, s.states, s.chapters, s.gen, opts...)
}

type advanceArgs struct {
	SessionID string `mapstructure:"session_id"`
	Choice    string `mapstructure:"choice"`
}

type sessionArgs struct {
	SessionID string `mapstructure:"session_id"`
}

type chapterArgs struct {
	SessionID string `mapstructure:"session_id"`
	Seq       int    `mapstructure:"seq"`
}

type loreArgs struct {
	SessionID string `mapstructure:"session_id"`
	Topic     string `mapstructure:"topic"`
}

func decodeArgs[T any](args map[string]any) (T, error) {
	var out T
	cfg := &mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
	}
	dec, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return out, err
	}
	if err := dec.Decode(args); err != nil {
		return out, fmt.Errorf("invalid arguments: %w", err)
	}
	return out, nil
}

func (s *Server) registerTools() {
	beginTool := mcp.NewTool("begin_story",
		mcp.WithDescription("Start a new story session and return its opening chapter with the available choices."),
		mcp.WithOutputSchema[StoryResponse](),
	)
	s.mcpServer.AddTool(beginTool, mcp.NewStructuredToolHandler(s.handleBegin))

	advanceTool := mcp.NewTool("advance_story",
		mcp.WithDescription("Accept a choice and return the next chapter. Resumes the most recent session when session_id is omitted."),
		mcp.WithString("session_id", mcp.Description("Session to advance (optional, defaults to the most recent save)")),
		mcp.WithString("choice", mcp.Required(), mcp.Description("The choice the player takes")),
		mcp.WithOutputSchema[StoryResponse](),
	)
	s.mcpServer.AddTool(advanceTool, mcp.NewStructuredToolHandler(s.handleAdvance))

	choicesTool := mcp.NewTool("get_choices",
		mcp.WithDescription("Return the current choices for a session without advancing it."),
		mcp.WithString("session_id", mcp.Description("Session to inspect (optional, defaults to the most recent save)")),
		mcp.WithOutputSchema[StoryResponse](),
	)
	s.mcpServer.AddTool(choicesTool, mcp.NewStructuredToolHandler(s.handleChoices))

	chapterTool := mcp.NewTool("read_chapter",
		mcp.WithDescription("Read one chapter of a session. Returns the latest chapter when seq is omitted."),
		mcp.WithString("session_id", mcp.Description("Session to read (optional, defaults to the most recent save)")),
		mcp.WithNumber("seq", mcp.Description("Chapter sequence number, starting at 1 (optional)")),
		mcp.WithOutputSchema[StoryResponse](),
	)
	s.mcpServer.AddTool(chapterTool, mcp.NewStructuredToolHandler(s.handleReadChapter))

	loreTool := mcp.NewTool("get_lore",
		mcp.WithDescription("Ask for background information about a person, place, or object in the story."),
		mcp.WithString("session_id", mcp.Description("Session to consult (optional, defaults to the most recent save)")),
		mcp.WithString("topic", mcp.Required(), mcp.Description("The topic to describe")),
	)
	s.mcpServer.AddTool(loreTool, s.handleLore)

	listTool := mcp.NewTool("list_sessions",
		mcp.WithDescription("List all saved sessions."),
	)
	s.mcpServer.AddTool(listTool, s.handleList)
}

func (s *Server) handleBegin(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StoryResponse, error) {
	ctrl := s.controller()
	if err := ctrl.New(ctx); err != nil {
		return StoryResponse{}, fmt.Errorf("begin story: %w", err)
	}
	return s.respond(ctx, ctrl, true)
}

func (s *Server) handleAdvance(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StoryResponse, error) {
	in, err := decodeArgs[advanceArgs](args)
	if err != nil {
		return StoryResponse{}, err
	}
	choice, err := runner.SanitizeInput(in.Choice)
	if err != nil {
		return StoryResponse{}, fmt.Errorf("choice rejected: %w", err)
	}
	if choice == "" {
		return StoryResponse{}, fmt.Errorf("choice must not be empty")
	}

	ctrl := s.controller()
	if err := ctrl.Load(ctx, in.SessionID); err != nil {
		return StoryResponse{}, fmt.Errorf("load session: %w", err)
	}
	if ctrl.IsFinished() {
		return StoryResponse{}, fmt.Errorf("session %s has reached its chapter ceiling", ctrl.ID())
	}
	if err := ctrl.Advance(ctx, choice); err != nil {
		return StoryResponse{}, fmt.Errorf("advance: %w", err)
	}
	return s.respond(ctx, ctrl, true)
}

func (s *Server) handleChoices(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StoryResponse, error) {
	in, err := decodeArgs[sessionArgs](args)
	if err != nil {
		return StoryResponse{}, err
	}
	ctrl := s.controller()
	if err := ctrl.Load(ctx, in.SessionID); err != nil {
		return StoryResponse{}, fmt.Errorf("load session: %w", err)
	}
	return s.respond(ctx, ctrl, true)
}

func (s *Server) handleReadChapter(ctx context.Context, request mcp.CallToolRequest, args map[string]any) (StoryResponse, error) {
	in, err := decodeArgs[chapterArgs](args)
	if err != nil {
		return StoryResponse{}, err
	}
	ctrl := s.controller()
	if err := ctrl.Load(ctx, in.SessionID); err != nil {
		return StoryResponse{}, fmt.Errorf("load session: %w", err)
	}

	ref := ctrl.CurrentRef()
	if in.Seq > 0 {
		ref.Seq = in.Seq
	}
	text, err := ctrl.ReadChapter(ctx, ref.Seq)
	if err != nil {
		return StoryResponse{}, fmt.Errorf("read chapter %d: %w", ref.Seq, err)
	}
	return StoryResponse{
		SessionID: ctrl.ID(),
		Chapter:   ref.Seq,
		Text:      text,
		Finished:  ctrl.IsFinished(),
	}, nil
}

func (s *Server) handleLore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := decodeArgs[loreArgs](request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if in.Topic == "" {
		return mcp.NewToolResultError("topic must not be empty"), nil
	}
	ctrl := s.controller()
	if err := ctrl.Load(ctx, in.SessionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load session: %v", err)), nil
	}
	return mcp.NewToolResultText(ctrl.Lore(ctx, in.Topic)), nil
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summaries, err := s.summaries(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list sessions: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(summaries)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// respond assembles the standard tool result from a loaded controller.
func (s *Server) respond(ctx context.Context, ctrl *session.Controller, withChoices bool) (StoryResponse, error) {
	text, err := ctrl.CurrentText(ctx)
	if err != nil {
		return StoryResponse{}, fmt.Errorf("read chapter: %w", err)
	}
	resp := StoryResponse{
		SessionID: ctrl.ID(),
		Chapter:   ctrl.CurrentRef().Seq,
		Text:      text,
		Finished:  ctrl.IsFinished(),
	}
	if withChoices && !resp.Finished {
		resp.Choices = ctrl.Choices(ctx)
	}
	return resp, nil
}

func (s *Server) summaries(ctx context.Context) ([]SessionSummary, error) {
	namespaces, err := s.states.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SessionSummary, 0, len(namespaces))
	for _, ns := range namespaces {
		state, err := s.states.Load(ctx, ns)
		if err != nil {
			s.logger.Warn("skipping unreadable session", "namespace", ns, "err", err)
			continue
		}
		out = append(out, SessionSummary{
			SessionID: ns,
			Chapters:  state.Story.ChapterCount,
			LastSaved: state.Meta.LastSaved,
		})
	}
	return out, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource("vellum://sessions", "Saved Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		summaries, err := s.summaries(ctx)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		jsonBytes, _ := json.Marshal(summaries)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "vellum://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
