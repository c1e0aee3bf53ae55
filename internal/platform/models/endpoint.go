package models

// Endpoint is a registered third-party HTTP target for webhook deliveries.
type Endpoint struct {
	ID            string   `json:"id"`
	URL           string   `json:"url"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	Events        []string `json:"events"` // JSON array in DB; empty means all events
	Active        bool     `json:"active"`
	Secret        string   `json:"-"` // exposed once, at creation
	CreatedBy     string   `json:"created_by"`
	ApplicationID string   `json:"application_id,omitempty"` // optional OAuth app linkage
	CreatedAt     int64    `json:"created_at"`
	UpdatedAt     int64    `json:"updated_at"`
}

// Subscribed reports whether the endpoint should receive the given event.
// An empty event filter subscribes the endpoint to everything.
func (e *Endpoint) Subscribed(event string) bool {
	if len(e.Events) == 0 {
		return true
	}
	for _, ev := range e.Events {
		if ev == event {
			return true
		}
	}
	return false
}
