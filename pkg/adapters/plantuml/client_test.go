package plantuml_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/umlpad/pkg/adapters/plantuml"
	"github.com/aretw0/umlpad/pkg/domain"
)

func newServer(t *testing.T, mux *http.ServeMux) *plantuml.Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return plantuml.New(srv.URL, plantuml.WithHTTPClient(srv.Client()))
}

func TestClient_Render(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/plantuml/svg", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_ = json.NewEncoder(w).Encode(map[string]string{"svg": "<svg>" + body["plantumlText"] + "</svg>"})
	})
	client := newServer(t, mux)

	svg, err := client.Render(context.Background(), "A -> B")
	require.NoError(t, err)
	assert.Equal(t, "<svg>A -> B</svg>", svg)
}

func TestClient_RenderRejected(t *testing.T) {
	t.Run("Error Payload Verbatim", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/plantuml/svg", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":"Syntax Error? (line 3)"}`)
		})
		_, err := newServer(t, mux).Render(context.Background(), "broken")

		var rejected *domain.RejectedError
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, http.StatusBadRequest, rejected.StatusCode)
		assert.Equal(t, "Syntax Error? (line 3)", domain.Message(err))
		assert.Equal(t, domain.ErrorServiceRejected, domain.Classify(err))
	})

	t.Run("No Payload", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/plantuml/svg", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		})
		_, err := newServer(t, mux).Render(context.Background(), "A")
		assert.Equal(t, "Failed to generate diagram", domain.Message(err))
		assert.Equal(t, domain.ErrorServiceRejected, domain.Classify(err))
	})

	t.Run("Gateway Without Payload", func(t *testing.T) {
		for _, status := range []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout} {
			mux := http.NewServeMux()
			mux.HandleFunc("/api/plantuml/svg", func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(status)
				_, _ = io.WriteString(w, "<html><body>Bad Gateway</body></html>")
			})
			_, err := newServer(t, mux).Render(context.Background(), "A")
			assert.ErrorIs(t, err, domain.ErrNetwork, "status %d", status)
			assert.Equal(t, domain.ErrorNetwork, domain.Classify(err), "status %d", status)
		}
	})

	t.Run("Gateway With Payload", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/plantuml/svg", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":"renderer busy"}`)
		})
		_, err := newServer(t, mux).Render(context.Background(), "A")
		assert.Equal(t, domain.ErrorServiceRejected, domain.Classify(err))
		assert.Equal(t, "renderer busy", domain.Message(err))
	})
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NewServeMux())
	url := srv.URL
	srv.Close()

	_, err := plantuml.New(url).Render(context.Background(), "A")
	assert.ErrorIs(t, err, domain.ErrNetwork)
	assert.Equal(t, domain.ErrorNetwork, domain.Classify(err))
}

func TestClient_TransportTimeout(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/api/plantuml/svg", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	client := plantuml.New(srv.URL, plantuml.WithTimeout(50*time.Millisecond))
	_, err := client.Render(context.Background(), "A")
	assert.ErrorIs(t, err, domain.ErrTimeout)
	assert.Equal(t, domain.ErrorTimeout, domain.Classify(err))
}

func TestClient_HealthAndInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/plantuml/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"UP","message":"PlantUML server is running"}`)
	})
	mux.HandleFunc("/api/plantuml/info", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"version":"1.2024.3","graphviz":true}`)
	})
	client := newServer(t, mux)

	status, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.HealthStatus{Status: "UP", Message: "PlantUML server is running"}, status)

	info, err := client.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.2024.3", info["version"])
	assert.Equal(t, true, info["graphviz"])
}

func TestClient_HealthFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/plantuml/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	_, err := newServer(t, mux).Health(context.Background())
	assert.Error(t, err)
}

func TestResolveBaseURL(t *testing.T) {
	t.Setenv(plantuml.EnvBaseURL, "")
	assert.Equal(t, plantuml.DefaultBaseURL, plantuml.ResolveBaseURL(""))

	t.Setenv(plantuml.EnvBaseURL, "http://render:9000")
	assert.Equal(t, "http://render:9000", plantuml.ResolveBaseURL(""))
	assert.Equal(t, "http://explicit:1", plantuml.ResolveBaseURL(" http://explicit:1 "))

	assert.Equal(t, "http://render:9000", plantuml.New("").BaseURL())
	assert.Equal(t, "http://x", plantuml.New("http://x/").BaseURL())
}
