package models

// Delivery statuses. pending and retrying rows are picked up by the worker;
// delivered and failed are terminal.
const (
	DeliveryStatusPending   = "pending"
	DeliveryStatusDelivered = "delivered"
	DeliveryStatusFailed    = "failed"
	DeliveryStatusRetrying  = "retrying"
)

// ResponseBodyLimit caps how much of a receiver's response body is retained
// on the delivery record.
const ResponseBodyLimit = 1000

// Delivery is one attempted transmission of one event to one endpoint.
// Rows are created by the fan-out router and mutated only by the dispatcher;
// they are kept as history and removed only when the owning endpoint is deleted.
type Delivery struct {
	ID            string `json:"id"`
	EndpointID    string `json:"endpoint_id"`
	Event         string `json:"event"`
	Payload       string `json:"payload"` // JSON, persisted so retries resend identical content
	Status        string `json:"status"`
	Attempts      int    `json:"attempts"`
	ResponseCode  *int   `json:"response_code,omitempty"`
	ResponseBody  string `json:"response_body,omitempty"`
	DeliveredAt   *int64 `json:"delivered_at,omitempty"`
	NextAttemptAt int64  `json:"next_attempt_at"`
	CreatedAt     int64  `json:"created_at"`
	UpdatedAt     int64  `json:"updated_at"`
}

// TruncateResponseBody trims a receiver response to the stored limit.
func TruncateResponseBody(body string) string {
	if len(body) > ResponseBodyLimit {
		return body[:ResponseBodyLimit]
	}
	return body
}
