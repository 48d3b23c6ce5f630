package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/posekf/pkg/posekf/session"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.LogLevel = "disable"
	return cfg
}

func startServer(t *testing.T, cfg Config) (*Server, string) {
	t.Helper()
	srv, err := NewServer(cfg, session.WithLoopbackCandidates(true))
	require.NoError(t, err)

	addr, err := srv.Start()
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, "http://" + addr
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestServerStartStop(t *testing.T) {
	srv, err := NewServer(testConfig())
	require.NoError(t, err)

	addr, err := srv.Start()
	require.NoError(t, err)
	assert.NotEqual(t, ":0", addr)
	assert.Equal(t, addr, srv.Addr())

	url := "http://" + addr + "/"
	resp, err := http.Get(url)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Pose Stabilizer")
	assert.Contains(t, string(body), "window.poseClient")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Shutdown(ctx))

	_, err = http.Get(url)
	assert.Error(t, err, "connection must fail after shutdown")
}

func TestServerDoubleStart(t *testing.T) {
	srv, err := NewServer(testConfig())
	require.NoError(t, err)
	defer srv.Shutdown(context.Background())

	addr1, err := srv.Start()
	require.NoError(t, err)
	addr2, err := srv.Start()
	require.NoError(t, err)
	assert.Equal(t, addr1, addr2)
}

func TestNewServer_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.LogLevel = "loud"
	_, err := NewServer(cfg)
	assert.Error(t, err)
}

// =============================================================================
// Handler Tests
// =============================================================================

func TestHandleIndex_NotFound(t *testing.T) {
	_, base := startServer(t, testConfig())
	resp, err := http.Get(base + "/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandleOffer_Errors(t *testing.T) {
	_, base := startServer(t, testConfig())

	resp, err := http.Get(base + "/offer")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	for _, body := range []string{`not json`, `{"type": "answer", "sdp": "v=0"}`, `{"type": "offer"}`} {
		resp, err := http.Post(base+"/offer", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %s", body)
	}
}

func TestHandleSessions_Empty(t *testing.T) {
	_, base := startServer(t, testConfig())

	resp, err := http.Get(base + "/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()

	var got SessionsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.NotNil(t, got.Sessions)
	assert.Empty(t, got.Sessions)

	resp, err = http.Post(base+"/sessions", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHandleOffer_CreatesSession(t *testing.T) {
	srv, base := startServer(t, testConfig())

	s := webrtc.SettingEngine{LoggerFactory: &logging.DefaultLoggerFactory{Writer: io.Discard}}
	s.SetIncludeLoopbackCandidate(true)
	pc, err := webrtc.NewAPI(webrtc.WithSettingEngine(s)).NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	defer pc.Close()

	_, err = pc.CreateDataChannel(session.DefaultChannelLabel, nil)
	require.NoError(t, err)
	offer, err := pc.CreateOffer(nil)
	require.NoError(t, err)
	gatherComplete := webrtc.GatheringCompletePromise(pc)
	require.NoError(t, pc.SetLocalDescription(offer))
	<-gatherComplete

	body, err := json.Marshal(pc.LocalDescription())
	require.NoError(t, err)
	resp, err := http.Post(base+"/offer", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var answer webrtc.SessionDescription
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&answer))
	assert.Equal(t, webrtc.SDPTypeAnswer, answer.Type)
	require.NoError(t, pc.SetRemoteDescription(answer))

	require.Len(t, srv.Sessions(), 1)

	sresp, err := http.Get(base + "/sessions")
	require.NoError(t, err)
	defer sresp.Body.Close()
	var got SessionsResponse
	require.NoError(t, json.NewDecoder(sresp.Body).Decode(&got))
	require.Len(t, got.Sessions, 1)
	assert.Equal(t, srv.Sessions()[0].ID(), got.Sessions[0].ID)
}

// =============================================================================
// Config Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":0", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Zero(t, cfg.MinVisibility)
	assert.NoError(t, cfg.Validate())
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig_Overlay(t *testing.T) {
	path := writeConfig(t, `
addr: ":9000"
read_timeout: 5s
log_level: DEBUG
min_visibility: 0.5
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 5*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout, "absent keys keep defaults")
	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, 0.5, cfg.MinVisibility)

	factory, err := cfg.LoggerFactory()
	require.NoError(t, err)
	assert.Equal(t, logging.LogLevelDebug, factory.DefaultLogLevel)
}

func TestLoadConfig_Empty(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown key", "port: 8080\n"},
		{"bad level", "log_level: loud\n"},
		{"bad visibility", "min_visibility: 2\n"},
		{"bad duration", "read_timeout: soon\n"},
		{"negative timeout", "write_timeout: -1s\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name string
		want logging.LogLevel
	}{
		{"disable", logging.LogLevelDisabled},
		{"error", logging.LogLevelError},
		{"Warn", logging.LogLevelWarn},
		{"info", logging.LogLevelInfo},
		{"debug", logging.LogLevelDebug},
		{"TRACE", logging.LogLevelTrace},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.name)
		require.NoError(t, err, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}

	_, err := ParseLogLevel("")
	assert.Error(t, err)
}
