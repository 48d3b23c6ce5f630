package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/pion/webrtc/v4"

	"github.com/thesyncim/posekf/pkg/posekf/session"
)

// offerTimeout bounds ICE gathering for one offer.
const offerTimeout = 10 * time.Second

// SessionsResponse is the body of GET /sessions.
type SessionsResponse struct {
	Sessions []session.Stats `json:"sessions"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(HTMLPage))
}

// handleOffer answers a browser's SDP offer with a new pose session.
func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var offer webrtc.SessionDescription
	if err := json.NewDecoder(r.Body).Decode(&offer); err != nil {
		s.log.Warnf("failed to decode offer: %v", err)
		http.Error(w, "Invalid offer", http.StatusBadRequest)
		return
	}
	if offer.Type != webrtc.SDPTypeOffer || offer.SDP == "" {
		http.Error(w, "Invalid offer", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), offerTimeout)
	defer cancel()

	sess, answer, err := s.factory.Accept(ctx, offer)
	if err != nil {
		s.log.Errorf("failed to accept offer: %v", err)
		status := http.StatusInternalServerError
		if errors.Is(err, session.ErrFactoryClosed) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, "Failed to accept offer", status)
		return
	}

	writeJSON(w, answer)
	s.log.Infof("session %s: answer sent", sess.ID())
}

// handleSessions reports the counters of every live session.
func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions := s.factory.Sessions()
	resp := SessionsResponse{Sessions: make([]session.Stats, 0, len(sessions))}
	for _, sess := range sessions {
		resp.Sessions = append(resp.Sessions, sess.Stats())
	}
	writeJSON(w, resp)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
