package handlers

import (
	"encoding/json"
	"net/http"

	"hookd/internal/engine/webhooks"
	"hookd/internal/pkg/errors"
)

// EventHandler is the inbound surface for event producers: it accepts an
// (event, payload) pair and fans it out to subscribed endpoints.
type EventHandler struct {
	router *webhooks.Router
}

func NewEventHandler(router *webhooks.Router) *EventHandler {
	return &EventHandler{router: router}
}

func (h *EventHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Event   string                 `json:"event"`
		Payload map[string]interface{} `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	ids, err := h.router.Route(req.Event, req.Payload)
	if err != nil {
		if verr, ok := err.(*errors.ValidationError); ok {
			errors.WriteError(w, http.StatusUnprocessableEntity, errors.ErrCodeInvalidInput, "Validation failed",
				[]*errors.ValidationError{verr})
			return
		}
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to route event", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"delivery_ids": ids,
	})
}
