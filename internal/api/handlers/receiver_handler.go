package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ReceiverHandler is a sample webhook receiver used for conformance and
// integration testing against the platform's own API. It acknowledges ping
// and sync/action events and rejects anything else.
type ReceiverHandler struct{}

func NewReceiverHandler() *ReceiverHandler {
	return &ReceiverHandler{}
}

func (h *ReceiverHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeReceiverError(w, "Missing event type")
		return
	}

	event, ok := body["event"].(string)
	if !ok || event == "" {
		writeReceiverError(w, "Missing event type")
		return
	}

	w.Header().Set("Content-Type", "application/json")

	switch {
	case event == "ping":
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "message": "pong"})
	case strings.HasPrefix(event, "sync.") || strings.HasPrefix(event, "action."):
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"status": "received", "event": event})
	default:
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"status": "unknown_event"})
	}
}

func writeReceiverError(w http.ResponseWriter, title string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(map[string]string{"error": title})
}
