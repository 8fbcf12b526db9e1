package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/umlpad"
	"github.com/aretw0/umlpad/internal/testutils"
	"github.com/aretw0/umlpad/pkg/domain"
)

func newTestServer(t *testing.T) (*Server, *testutils.StubService) {
	t.Helper()
	svc := &testutils.StubService{}
	clock := testutils.NewFakeClock()
	editor, err := umlpad.New(svc, umlpad.WithClock(clock), umlpad.WithInitialSource(""))
	require.NoError(t, err)
	t.Cleanup(editor.Close)
	require.NoError(t, editor.Start(context.Background()))

	s := NewServer(editor, nil)
	s.now = clock.Now
	return s, svc
}

func callWith(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestRenderDiagram(t *testing.T) {
	s, svc := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleRenderDiagram(ctx, mcp.CallToolRequest{}, map[string]interface{}{"source": "A -> B"})
	require.NoError(t, err)
	assert.True(t, resp.Issued)
	assert.Equal(t, "<svg>A -> B</svg>", resp.Outcome.Image)
	assert.Equal(t, "<svg>A -> B</svg>", resp.Status.Render.Image)
	assert.Equal(t, []string{"A -> B"}, svc.RenderCalls())

	_, err = s.handleRenderDiagram(ctx, mcp.CallToolRequest{}, map[string]interface{}{"source": "  "})
	assert.ErrorIs(t, err, domain.ErrEmptySource)
}

func TestGenerate(t *testing.T) {
	s, svc := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleGenerate(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.True(t, resp.Issued, "manual trigger is accepted while online")
	assert.Equal(t, domain.ErrorEmptySource, resp.Outcome.Kind)

	s.editor.SetSource("X -> Y")
	resp, err = s.handleGenerate(ctx, mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "<svg>X -> Y</svg>", resp.Outcome.Image)
	assert.Equal(t, []string{"X -> Y"}, svc.RenderCalls())
}

func TestHistoryTools(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleSaveHistory(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	assert.ErrorIs(t, err, domain.ErrEmptySource)

	s.editor.SetSource("@startuml Checkout\nA -> B\n@enduml")
	entry, err := s.handleSaveHistory(ctx, mcp.CallToolRequest{}, map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "Checkout", entry.Title)

	s.now = func() time.Time { return entry.CreatedAt.Add(3 * time.Minute) }
	res, err := s.handleListHistory(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	var items []HistoryItem
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &items))
	require.Len(t, items, 1)
	assert.Equal(t, entry.ID, items[0].ID)
	assert.Equal(t, "3 minutes ago", items[0].Age)

	s.editor.Clear()
	resp, err := s.handleLoadHistory(ctx, mcp.CallToolRequest{}, map[string]interface{}{"id": entry.ID})
	require.NoError(t, err)
	assert.True(t, resp.Issued)
	assert.Contains(t, resp.Outcome.Image, "Checkout")
	assert.Equal(t, entry.Source, s.editor.Source())

	_, err = s.handleLoadHistory(ctx, mcp.CallToolRequest{}, map[string]interface{}{"id": "missing"})
	assert.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestGetStatus(t *testing.T) {
	s, _ := newTestServer(t)
	st, err := s.handleGetStatus(context.Background(), mcp.CallToolRequest{}, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.AvailabilityOnline, st.Availability)
	assert.Equal(t, domain.DefaultViewport(), st.Viewport)
}

func TestZoom(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleZoom(ctx, callWith(map[string]any{"op": "in"}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "scale(1.25)")

	res, err = s.handleZoom(ctx, callWith(map[string]any{"delta": float64(-50)}))
	require.NoError(t, err)
	assert.Equal(t, 75, s.editor.Viewport().State().Zoom)
	assert.False(t, res.IsError)

	res, err = s.handleZoom(ctx, callWith(map[string]any{"op": "reset"}))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultZoom, s.editor.Viewport().State().Zoom)

	res, err = s.handleZoom(ctx, callWith(map[string]any{"op": "spin"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleZoom(ctx, callWith(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
