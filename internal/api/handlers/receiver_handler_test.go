package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestReceiverHandler(t *testing.T) {
	handler := NewReceiverHandler()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantField  string
		wantValue  string
	}{
		{
			name:       "Ping",
			body:       `{"event":"ping"}`,
			wantStatus: http.StatusOK,
			wantField:  "message",
			wantValue:  "pong",
		},
		{
			name:       "Sync event",
			body:       `{"event":"sync.members"}`,
			wantStatus: http.StatusAccepted,
			wantField:  "status",
			wantValue:  "received",
		},
		{
			name:       "Action event",
			body:       `{"event":"action.triggered"}`,
			wantStatus: http.StatusAccepted,
			wantField:  "event",
			wantValue:  "action.triggered",
		},
		{
			name:       "Unknown event",
			body:       `{"event":"community.created"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "status",
			wantValue:  "unknown_event",
		},
		{
			name:       "Missing event key",
			body:       `{"payload":{}}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "error",
			wantValue:  "Missing event type",
		},
		{
			name:       "Invalid JSON",
			body:       `not json`,
			wantStatus: http.StatusUnprocessableEntity,
			wantField:  "error",
			wantValue:  "Missing event type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/receiver", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			handler.Receive(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("Status = %d, want %d", rr.Code, tt.wantStatus)
			}

			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("Invalid JSON response: %v", err)
			}
			if resp[tt.wantField] != tt.wantValue {
				t.Errorf("Response[%s] = %q, want %q", tt.wantField, resp[tt.wantField], tt.wantValue)
			}
		})
	}
}
