package relay

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// newTestRelay builds a relay in front of a fake engine handler.
func newTestRelay(t *testing.T, engine http.Handler, origins []string) *httptest.Server {
	t.Helper()

	engineServer := httptest.NewServer(engine)
	t.Cleanup(engineServer.Close)

	handler, err := New(engineServer.URL, origins, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	relayServer := httptest.NewServer(handler)
	t.Cleanup(relayServer.Close)
	return relayServer
}

// discardLogger returns a logger whose output goes nowhere.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestRelayProxiesEngineMedia verifies the /backend prefix is stripped
// and queries pass through to the engine untouched.
func TestRelayProxiesEngineMedia(t *testing.T) {
	relayServer := newTestRelay(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/preview/frame/1.jpg" {
			t.Errorf("engine path = %q, want /preview/frame/1.jpg", r.URL.Path)
		}
		if got := r.URL.Query().Get("requestId"); got != "r1" {
			t.Errorf("requestId query = %q, want r1", got)
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpegbytes"))
	}), nil)

	resp, err := http.Get(relayServer.URL + "/backend/preview/frame/1.jpg?requestId=r1")
	if err != nil {
		t.Fatalf("GET through relay: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "jpegbytes" {
		t.Fatalf("body = %q, want the engine's bytes", body)
	}
}

// TestRelayRejectsWriteMethods verifies only GET and HEAD reach the engine.
func TestRelayRejectsWriteMethods(t *testing.T) {
	relayServer := newTestRelay(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("engine saw a %s request, relay should have refused it", r.Method)
	}), nil)

	resp, err := http.Post(relayServer.URL+"/backend/preview/thumbnail", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("POST through relay: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", resp.StatusCode)
	}
}

// TestRelayHealthz verifies the liveness endpoint answers locally.
func TestRelayHealthz(t *testing.T) {
	relayServer := newTestRelay(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("healthz must not reach the engine")
	}), nil)

	resp, err := http.Get(relayServer.URL + "/relay/healthz")
	if err != nil {
		t.Fatalf("GET healthz: %v", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Fatalf("healthz = %d %q, want 200 ok", resp.StatusCode, body)
	}
}

// TestRelayEngineDownReturnsBadGateway verifies an unreachable engine
// maps to 502 instead of a hung request.
func TestRelayEngineDownReturnsBadGateway(t *testing.T) {
	engineServer := httptest.NewServer(http.NotFoundHandler())
	engineURL := engineServer.URL
	engineServer.Close()

	handler, err := New(engineURL, nil, discardLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	relayServer := httptest.NewServer(handler)
	defer relayServer.Close()

	resp, err := http.Get(relayServer.URL + "/backend/preview/frame/1.jpg")
	if err != nil {
		t.Fatalf("GET through relay: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
}

// TestRelayAllowsConfiguredOrigin verifies dev origins get CORS headers.
func TestRelayAllowsConfiguredOrigin(t *testing.T) {
	relayServer := newTestRelay(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}), []string{"http://localhost:34115"})

	req, _ := http.NewRequest(http.MethodGet, relayServer.URL+"/backend/x", nil)
	req.Header.Set("Origin", "http://localhost:34115")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with Origin: %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:34115" {
		t.Fatalf("Access-Control-Allow-Origin = %q, want the dev origin", got)
	}
}

// TestRelayRejectsBadEngineURL verifies construction fails fast on
// unusable configuration.
func TestRelayRejectsBadEngineURL(t *testing.T) {
	if _, err := New("127.0.0.1:8085", nil, discardLogger()); err == nil {
		t.Fatal("New without scheme succeeded, want error")
	}
}

// TestRewriteAssetURL verifies engine URLs land under /backend and
// foreign hosts are refused.
func TestRewriteAssetURL(t *testing.T) {
	const engine = "http://127.0.0.1:8085"

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"relative path", "/preview/frame/1.jpg", "/backend/preview/frame/1.jpg", false},
		{"relative with query", "/preview/stream?requestId=r1", "/backend/preview/stream?requestId=r1", false},
		{"absolute engine URL", "http://127.0.0.1:8085/preview/frame/2.jpg", "/backend/preview/frame/2.jpg", false},
		{"missing leading slash", "preview/frame/3.jpg", "/backend/preview/frame/3.jpg", false},
		{"foreign host", "http://example.com/preview/frame/1.jpg", "", true},
		{"empty", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RewriteAssetURL(engine, tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("RewriteAssetURL(%q) succeeded, want error", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("RewriteAssetURL(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Fatalf("RewriteAssetURL(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
