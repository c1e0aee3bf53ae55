package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "hookd/internal/api/context"
	"hookd/internal/engine/webhooks"
	"hookd/internal/pkg/errors"
	"hookd/internal/platform/auth"
	"hookd/internal/platform/models"
	"hookd/internal/platform/repositories"
)

type EndpointHandler struct {
	registry   *webhooks.Registry
	router     *webhooks.Router
	endpoints  *repositories.EndpointRepository
	deliveries *repositories.DeliveryRepository
}

func NewEndpointHandler(registry *webhooks.Registry, router *webhooks.Router, endpoints *repositories.EndpointRepository, deliveries *repositories.DeliveryRepository) *EndpointHandler {
	return &EndpointHandler{
		registry:   registry,
		router:     router,
		endpoints:  endpoints,
		deliveries: deliveries,
	}
}

type createEndpointRequest struct {
	URL           string   `json:"url"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Events        []string `json:"events"`
	ApplicationID string   `json:"linked_application_id"`
}

type updateEndpointRequest struct {
	URL           *string  `json:"url"`
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Events        []string `json:"events"`
	Active        *bool    `json:"active"`
	ApplicationID *string  `json:"linked_application_id"`
}

func (h *EndpointHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := r.Context().Value(apiContext.Claims).(*auth.Claims)

	var req createEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	endpoint, err := h.registry.Create(webhooks.CreateAttrs{
		URL:           req.URL,
		Name:          req.Name,
		Description:   req.Description,
		Events:        req.Events,
		ApplicationID: req.ApplicationID,
	}, claims.UserID)
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	// The secret appears in this response and nowhere else.
	response := struct {
		ID            string   `json:"id"`
		URL           string   `json:"url"`
		Name          string   `json:"name"`
		Description   string   `json:"description,omitempty"`
		Events        []string `json:"events"`
		Active        bool     `json:"active"`
		Secret        string   `json:"secret"`
		CreatedBy     string   `json:"created_by"`
		ApplicationID string   `json:"application_id,omitempty"`
		CreatedAt     int64    `json:"created_at"`
	}{
		ID:            endpoint.ID,
		URL:           endpoint.URL,
		Name:          endpoint.Name,
		Description:   endpoint.Description,
		Events:        endpoint.Events,
		Active:        endpoint.Active,
		Secret:        endpoint.Secret,
		CreatedBy:     endpoint.CreatedBy,
		ApplicationID: endpoint.ApplicationID,
		CreatedAt:     endpoint.CreatedAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response)
}

func (h *EndpointHandler) List(w http.ResponseWriter, r *http.Request) {
	endpoints, err := h.endpoints.List()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list endpoints", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(endpoints)
}

func (h *EndpointHandler) Get(w http.ResponseWriter, r *http.Request) {
	endpoint, ok := h.loadEndpoint(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(endpoint)
}

func (h *EndpointHandler) Update(w http.ResponseWriter, r *http.Request) {
	endpoint, ok := h.loadEndpoint(w, r)
	if !ok {
		return
	}

	var req updateEndpointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	updated, err := h.registry.Update(endpoint, webhooks.UpdateAttrs{
		URL:           req.URL,
		Name:          req.Name,
		Description:   req.Description,
		Events:        req.Events,
		Active:        req.Active,
		ApplicationID: req.ApplicationID,
	})
	if err != nil {
		writeRegistryError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

func (h *EndpointHandler) Delete(w http.ResponseWriter, r *http.Request) {
	endpoint, ok := h.loadEndpoint(w, r)
	if !ok {
		return
	}

	if err := h.endpoints.Delete(endpoint.ID); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to delete endpoint", nil)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Test queues a synthetic delivery against the endpoint and acknowledges
// immediately; the worker picks it up like any other delivery.
func (h *EndpointHandler) Test(w http.ResponseWriter, r *http.Request) {
	endpoint, ok := h.loadEndpoint(w, r)
	if !ok {
		return
	}

	delivery, err := h.router.CreateTest(endpoint)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to queue test delivery", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"status":      "queued",
		"message":     "Test delivery queued for dispatch",
		"delivery_id": delivery.ID,
	})
}

func (h *EndpointHandler) ListDeliveries(w http.ResponseWriter, r *http.Request) {
	endpoint, ok := h.loadEndpoint(w, r)
	if !ok {
		return
	}

	deliveries, err := h.deliveries.ListByEndpoint(endpoint.ID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to list deliveries", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(deliveries)
}

func (h *EndpointHandler) loadEndpoint(w http.ResponseWriter, r *http.Request) (endpoint *models.Endpoint, ok bool) {
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	id := params.ByName("endpoint_id")

	endpoint, err := h.endpoints.GetByID(id)
	if err != nil {
		if err == sql.ErrNoRows {
			errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Endpoint not found", nil)
		} else {
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load endpoint", nil)
		}
		return nil, false
	}
	return endpoint, true
}

func writeRegistryError(w http.ResponseWriter, err error) {
	if verr, ok := err.(*errors.ValidationError); ok {
		errors.WriteError(w, http.StatusUnprocessableEntity, errors.ErrCodeInvalidInput, "Validation failed",
			[]*errors.ValidationError{verr})
		return
	}
	errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to save endpoint", nil)
}
