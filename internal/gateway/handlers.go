package gateway

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/publicsquare/intake/internal/domain"
	"github.com/publicsquare/intake/internal/version"
	"github.com/publicsquare/intake/internal/whatsapp"
)

// webhookResponse reports per-message outcomes for one webhook batch.
// A malformed entry never aborts its well-formed siblings.
type webhookResponse struct {
	Results  []domain.ProcessResult   `json:"results"`
	Failures []whatsapp.DecodeFailure `json:"failures,omitempty"`
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	challenge, ok := whatsapp.VerifyChallenge(
		q.Get("hub.mode"),
		q.Get("hub.verify_token"),
		q.Get("hub.challenge"),
		s.cfg.WhatsApp.VerifyToken,
	)
	if !ok {
		s.log.Warn().Str("remote", r.RemoteAddr).Msg("webhook verification rejected")
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Write([]byte(challenge))
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var payload whatsapp.WebhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload: " + err.Error()})
		return
	}

	msgs, failures := whatsapp.DecodeInbound(payload)
	resp := webhookResponse{Failures: failures}
	for _, msg := range msgs {
		resp.Results = append(resp.Results, s.engine.Process(r.Context(), msg))
	}

	s.log.Info().
		Int("messages", len(msgs)).
		Int("failures", len(failures)).
		Msg("webhook batch handled")

	// The provider expects 200 regardless of per-message outcomes,
	// otherwise it re-delivers the whole batch.
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": version.Version,
		"uptime":  time.Since(s.startedAt).Round(time.Second).String(),
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"categories": s.categories.ListCategories(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
