package webhooks

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
	"hookd/internal/pkg/errors"
	"hookd/internal/platform/models"
	"hookd/internal/platform/repositories"
)

// TestEvent is the sentinel event used by the manual delivery test trigger.
const TestEvent = "webhook.test"

// Router fans a domain event out to one delivery row per subscribed endpoint.
type Router struct {
	endpoints  *repositories.EndpointRepository
	deliveries *repositories.DeliveryRepository
}

func NewRouter(endpoints *repositories.EndpointRepository, deliveries *repositories.DeliveryRepository) *Router {
	return &Router{endpoints: endpoints, deliveries: deliveries}
}

// Route creates one pending delivery per active endpoint subscribed to event
// (an empty filter subscribes to everything) and returns the created delivery
// ids. The subscription snapshot is taken here: later filter edits do not
// affect rows already created. No matching endpoints is not an error.
func (r *Router) Route(event string, payload map[string]interface{}) ([]string, error) {
	if !ValidEventName(event) {
		return nil, errors.NewValidationError("event", errors.CodeInvalidEvent, "event names must match namespace.action")
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}

	endpoints, err := r.endpoints.ListActiveForEvent(event)
	if err != nil {
		return nil, fmt.Errorf("select endpoints for %s: %w", event, err)
	}

	ids := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		delivery := &models.Delivery{
			EndpointID: endpoint.ID,
			Event:      event,
			Payload:    string(payloadJSON),
		}
		if err := r.deliveries.Create(delivery); err != nil {
			return ids, fmt.Errorf("create delivery for endpoint %s: %w", endpoint.ID, err)
		}
		ids = append(ids, delivery.ID)
	}

	log.Debug().Str("event", event).Int("deliveries", len(ids)).Msg("event routed")
	return ids, nil
}

// CreateTest creates a synthetic delivery against a single endpoint, bypassing
// the subscription filter. It goes through the same dispatch path as real
// deliveries; the caller gets the id back immediately rather than waiting for
// the attempt.
func (r *Router) CreateTest(endpoint *models.Endpoint) (*models.Delivery, error) {
	payloadJSON, err := json.Marshal(map[string]interface{}{"endpoint_id": endpoint.ID})
	if err != nil {
		return nil, err
	}

	delivery := &models.Delivery{
		EndpointID: endpoint.ID,
		Event:      TestEvent,
		Payload:    string(payloadJSON),
	}
	if err := r.deliveries.Create(delivery); err != nil {
		return nil, fmt.Errorf("create test delivery: %w", err)
	}
	return delivery, nil
}
