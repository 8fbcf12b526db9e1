// Package mcp exposes an editing session as Model Context Protocol tools.
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

	"github.com/aretw0/umlpad"
	"github.com/aretw0/umlpad/internal/logging"
	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/history"
)

const (
	imageURI  = "umlpad://image"
	sourceURI = "umlpad://source"
)

// RenderResponse is returned by the rendering tools.
type RenderResponse struct {
	Issued  bool                 `json:"issued" jsonschema_description:"Whether a render request was sent to the service"`
	Outcome domain.RenderOutcome `json:"outcome" jsonschema_description:"Image or error of the render"`
	Status  umlpad.Status        `json:"status" jsonschema_description:"Editor status after the call"`
}

// HistoryItem is one listed history entry.
type HistoryItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Age     string `json:"age"`
	Preview string `json:"preview,omitempty"`
}

// Server wraps an editor and exposes it as an MCP server.
type Server struct {
	editor    *umlpad.Editor
	mcpServer *server.MCPServer
	logger    *slog.Logger
	now       func() time.Time
}

// NewServer creates a new MCP server for editor.
func NewServer(editor *umlpad.Editor, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		editor:    editor,
		mcpServer: server.NewMCPServer("umlpad-mcp", strings.TrimSpace(umlpad.Version)),
		logger:    logger,
		now:       time.Now,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://localhost" + addr
	if !strings.HasPrefix(addr, ":") {
		baseURL = "http://" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))
	httpServer := &http.Server{Addr: addr, Handler: mux}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("render_diagram",
		mcp.WithDescription("Replace the diagram source with the given PlantUML text and render it now."),
		mcp.WithString("source", mcp.Required(), mcp.Description("PlantUML source, usually @startuml ... @enduml")),
		mcp.WithOutputSchema[RenderResponse](),
	), mcp.NewStructuredToolHandler(s.handleRenderDiagram))

	s.mcpServer.AddTool(mcp.NewTool("generate",
		mcp.WithDescription("Render the current source immediately, skipping the typing pause."),
		mcp.WithOutputSchema[RenderResponse](),
	), mcp.NewStructuredToolHandler(s.handleGenerate))

	s.mcpServer.AddTool(mcp.NewTool("save_history",
		mcp.WithDescription("Save the current source to history."),
		mcp.WithString("title", mcp.Description("Entry title; derived from the source when omitted")),
		mcp.WithOutputSchema[domain.HistoryEntry](),
	), mcp.NewStructuredToolHandler(s.handleSaveHistory))

	s.mcpServer.AddTool(mcp.NewTool("list_history",
		mcp.WithDescription("List saved diagrams, newest first."),
	), s.handleListHistory)

	s.mcpServer.AddTool(mcp.NewTool("load_history",
		mcp.WithDescription("Load a saved diagram into the editor and render it."),
		mcp.WithString("id", mcp.Required(), mcp.Description("History entry ID")),
		mcp.WithOutputSchema[RenderResponse](),
	), mcp.NewStructuredToolHandler(s.handleLoadHistory))

	s.mcpServer.AddTool(mcp.NewTool("get_status",
		mcp.WithDescription("Get service availability, render state and viewport."),
		mcp.WithOutputSchema[umlpad.Status](),
	), mcp.NewStructuredToolHandler(s.handleGetStatus))

	s.mcpServer.AddTool(mcp.NewTool("zoom",
		mcp.WithDescription("Change the viewport zoom: in, out, reset, or by a delta in percent."),
		mcp.WithString("op", mcp.Description("One of: in, out, reset")),
		mcp.WithNumber("delta", mcp.Description("Zoom change in percent, used when op is omitted")),
	), s.handleZoom)
}

func (s *Server) handleRenderDiagram(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RenderResponse, error) {
	source, _ := args["source"].(string)
	if strings.TrimSpace(source) == "" {
		return RenderResponse{}, domain.ErrEmptySource
	}
	s.editor.SetSource(source)
	outcome, issued := s.editor.Refresh(ctx)
	s.logger.Debug("MCP render_diagram", "issued", issued, "kind", outcome.Kind)
	return RenderResponse{Issued: issued, Outcome: outcome, Status: s.editor.Status()}, nil
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RenderResponse, error) {
	issued := s.editor.Generate()
	st := s.editor.Status()
	return RenderResponse{
		Issued:  issued,
		Outcome: domain.RenderOutcome{Image: st.Render.Image, Kind: st.Render.Kind, Message: st.Render.Error},
		Status:  st,
	}, nil
}

func (s *Server) handleSaveHistory(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (domain.HistoryEntry, error) {
	title, _ := args["title"].(string)
	entry, err := s.editor.SaveHistory(ctx, title)
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("save failed: %w", err)
	}
	return entry, nil
}

func (s *Server) handleListHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := s.editor.History().List(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	now := s.now()
	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryItem{
			ID:      e.ID,
			Title:   e.Title,
			Age:     history.FormatAge(e.CreatedAt, now),
			Preview: e.Preview,
		})
	}
	jsonBytes, _ := json.Marshal(items)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleLoadHistory(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RenderResponse, error) {
	id, _ := args["id"].(string)
	if _, err := s.editor.LoadHistory(ctx, id); err != nil {
		return RenderResponse{}, fmt.Errorf("load failed: %w", err)
	}
	st := s.editor.Status()
	return RenderResponse{
		Issued:  st.Render.Image != "" || st.Render.Error != "",
		Outcome: domain.RenderOutcome{Image: st.Render.Image, Kind: st.Render.Kind, Message: st.Render.Error},
		Status:  st,
	}, nil
}

func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (umlpad.Status, error) {
	return s.editor.Status(), nil
}

func (s *Server) handleZoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	v := s.editor.Viewport()

	op, _ := args["op"].(string)
	switch op {
	case "in":
		v.ZoomIn()
	case "out":
		v.ZoomOut()
	case "reset":
		v.Reset()
	case "":
		delta, ok := args["delta"].(float64)
		if !ok {
			return mcp.NewToolResultError("op or delta is required"), nil
		}
		v.ZoomBy(int(delta))
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown zoom op %q", op)), nil
	}

	jsonBytes, _ := json.Marshal(map[string]any{
		"state":     v.State(),
		"transform": v.Transform(),
	})
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(imageURI, "Rendered diagram",
		mcp.WithMIMEType("image/svg+xml"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		img := s.editor.Image()
		if img == "" {
			return nil, errors.New("no image rendered")
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: imageURI, MIMEType: "image/svg+xml", Text: img},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(sourceURI, "Diagram source",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: sourceURI, MIMEType: "text/plain", Text: s.editor.Source()},
		}, nil
	})
}
