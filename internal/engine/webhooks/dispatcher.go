package webhooks

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"hookd/internal/platform/models"
	"hookd/internal/platform/repositories"
)

// maxResponseRead bounds how much of a receiver's response body is read off
// the wire; storage truncation to models.ResponseBodyLimit happens separately.
const maxResponseRead = 4096

// envelope is the transmitted request body. Payload embeds the persisted
// delivery payload bytes unchanged.
type envelope struct {
	Event      string          `json:"event"`
	Payload    json.RawMessage `json:"payload"`
	DeliveryID string          `json:"delivery_id"`
	Timestamp  int64           `json:"timestamp"`
}

// Dispatcher performs one signed HTTP POST per due delivery and drives the
// delivery state machine. The http.Client is injected and constructed once at
// worker startup with a bounded timeout; one misbehaving endpoint must never
// take the process down, so every failure ends in a state transition, not an
// error return.
type Dispatcher struct {
	endpoints  *repositories.EndpointRepository
	deliveries *repositories.DeliveryRepository
	client     *http.Client
	policy     RetryPolicy
}

func NewDispatcher(endpoints *repositories.EndpointRepository, deliveries *repositories.DeliveryRepository, client *http.Client, policy RetryPolicy) *Dispatcher {
	return &Dispatcher{
		endpoints:  endpoints,
		deliveries: deliveries,
		client:     client,
		policy:     policy,
	}
}

// Attempt runs a single dispatch attempt for the delivery and returns the
// resulting status. The caller guarantees no other worker holds this delivery.
func (d *Dispatcher) Attempt(ctx context.Context, delivery *models.Delivery) string {
	endpoint, err := d.endpoints.GetByID(delivery.EndpointID)
	if err != nil || !endpoint.Active {
		// Deactivated (or deleted out from under us) between scheduling and
		// attempt: terminal failure, no network call.
		if dbErr := d.deliveries.MarkFailed(delivery.ID, 0, "", false); dbErr != nil {
			log.Error().Err(dbErr).Str("delivery_id", delivery.ID).Msg("failed to mark delivery failed")
		}
		log.Info().Str("delivery_id", delivery.ID).Str("endpoint_id", delivery.EndpointID).
			Msg("delivery failed: endpoint inactive")
		return models.DeliveryStatusFailed
	}

	body, err := json.Marshal(envelope{
		Event:      delivery.Event,
		Payload:    json.RawMessage(delivery.Payload),
		DeliveryID: delivery.ID,
		Timestamp:  time.Now().Unix(),
	})
	if err != nil {
		// Payload was valid JSON when persisted; treat corruption as a
		// non-retryable failure.
		log.Error().Err(err).Str("delivery_id", delivery.ID).Msg("failed to serialize delivery envelope")
		d.deliveries.MarkFailed(delivery.ID, 0, "", false)
		return models.DeliveryStatusFailed
	}

	// Sign once over the exact bytes going on the wire.
	signature := Sign(endpoint.Secret, body)

	code, respBody, reqErr := d.post(ctx, endpoint.URL, delivery, signature, body)

	if reqErr == nil && code >= 200 && code < 300 {
		if dbErr := d.deliveries.MarkDelivered(delivery.ID, code, respBody); dbErr != nil {
			log.Error().Err(dbErr).Str("delivery_id", delivery.ID).Msg("failed to mark delivery delivered")
		}
		log.Info().Str("delivery_id", delivery.ID).Str("event", delivery.Event).
			Int("code", code).Int("attempt", delivery.Attempts+1).Msg("delivery succeeded")
		return models.DeliveryStatusDelivered
	}

	hasResponse := reqErr == nil
	attempts := delivery.Attempts + 1

	if d.policy.Exhausted(attempts) {
		if dbErr := d.deliveries.MarkFailed(delivery.ID, code, respBody, hasResponse); dbErr != nil {
			log.Error().Err(dbErr).Str("delivery_id", delivery.ID).Msg("failed to mark delivery failed")
		}
		log.Warn().Str("delivery_id", delivery.ID).Str("event", delivery.Event).
			Int("code", code).Int("attempts", attempts).Err(reqErr).Msg("delivery failed: attempts exhausted")
		return models.DeliveryStatusFailed
	}

	nextAttemptAt := time.Now().Add(d.policy.NextDelay(attempts)).Unix()
	if dbErr := d.deliveries.MarkRetrying(delivery.ID, code, respBody, hasResponse, nextAttemptAt); dbErr != nil {
		log.Error().Err(dbErr).Str("delivery_id", delivery.ID).Msg("failed to mark delivery retrying")
	}
	log.Info().Str("delivery_id", delivery.ID).Str("event", delivery.Event).
		Int("code", code).Int("attempt", attempts).Err(reqErr).Msg("delivery attempt failed, will retry")
	return models.DeliveryStatusRetrying
}

func (d *Dispatcher) post(ctx context.Context, url string, delivery *models.Delivery, signature string, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Hookd-Signature", signature)
	req.Header.Set("X-Hookd-Event", delivery.Event)
	req.Header.Set("X-Hookd-Delivery", delivery.ID)

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseRead))
	return resp.StatusCode, string(respBody), nil
}
