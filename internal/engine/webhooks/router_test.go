package webhooks

import (
	"testing"

	pkgerrors "hookd/internal/pkg/errors"
	"hookd/internal/platform/models"
	"hookd/internal/platform/repositories"
)

func TestRouter_Route(t *testing.T) {
	db := setupTestDB(t)
	registry, endpointRepo := newTestRegistry(t, db)
	deliveryRepo := repositories.NewDeliveryRepository(db)
	router := NewRouter(endpointRepo, deliveryRepo)

	catchAll, err := registry.Create(CreateAttrs{URL: "https://example.com/all", Name: "all"}, "user_1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	filtered, err := registry.Create(CreateAttrs{
		URL: "https://example.com/filtered", Name: "filtered",
		Events: []string{"community.created"},
	}, "user_1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	t.Run("Matching event fans out to both", func(t *testing.T) {
		ids, err := router.Route("community.created", map[string]interface{}{"id": "abc"})
		if err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(ids) != 2 {
			t.Fatalf("Expected 2 deliveries, got %d", len(ids))
		}

		for _, id := range ids {
			d, err := deliveryRepo.GetByID(id)
			if err != nil {
				t.Fatalf("GetByID failed: %v", err)
			}
			if d.Status != models.DeliveryStatusPending {
				t.Errorf("Expected pending, got %s", d.Status)
			}
			if d.Attempts != 0 {
				t.Errorf("Expected 0 attempts, got %d", d.Attempts)
			}
			if d.Event != "community.created" {
				t.Errorf("Expected event community.created, got %s", d.Event)
			}
		}
	})

	t.Run("Non-matching event reaches only the catch-all", func(t *testing.T) {
		ids, err := router.Route("community.updated", map[string]interface{}{"id": "abc"})
		if err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(ids) != 1 {
			t.Fatalf("Expected 1 delivery, got %d", len(ids))
		}
		d, err := deliveryRepo.GetByID(ids[0])
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if d.EndpointID != catchAll.ID {
			t.Errorf("Expected delivery for catch-all endpoint, got %s", d.EndpointID)
		}
	})

	t.Run("Inactive endpoints are excluded", func(t *testing.T) {
		inactive := false
		if _, err := registry.Update(filtered, UpdateAttrs{Active: &inactive}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		ids, err := router.Route("community.created", map[string]interface{}{"id": "abc"})
		if err != nil {
			t.Fatalf("Route failed: %v", err)
		}
		if len(ids) != 1 {
			t.Fatalf("Expected 1 delivery after deactivation, got %d", len(ids))
		}
	})

	t.Run("Invalid event name", func(t *testing.T) {
		_, err := router.Route("not_an_event", nil)
		verr, ok := err.(*pkgerrors.ValidationError)
		if !ok || verr.Code != pkgerrors.CodeInvalidEvent {
			t.Fatalf("Expected invalid_event error, got %v", err)
		}
	})
}

func TestRouter_Route_NoMatches(t *testing.T) {
	db := setupTestDB(t)
	endpointRepo := repositories.NewEndpointRepository(db)
	deliveryRepo := repositories.NewDeliveryRepository(db)
	router := NewRouter(endpointRepo, deliveryRepo)

	ids, err := router.Route("community.created", map[string]interface{}{"id": "abc"})
	if err != nil {
		t.Fatalf("Route with no endpoints should not error, got %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("Expected empty result, got %d ids", len(ids))
	}
}

func TestRouter_Route_SnapshotAtRouteTime(t *testing.T) {
	db := setupTestDB(t)
	registry, endpointRepo := newTestRegistry(t, db)
	deliveryRepo := repositories.NewDeliveryRepository(db)
	router := NewRouter(endpointRepo, deliveryRepo)

	endpoint, err := registry.Create(CreateAttrs{
		URL: "https://example.com/hook", Name: "hook",
		Events: []string{"community.created"},
	}, "user_1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ids, err := router.Route("community.created", map[string]interface{}{"id": "abc"})
	if err != nil || len(ids) != 1 {
		t.Fatalf("Route failed: ids=%v err=%v", ids, err)
	}

	// Changing the subscription afterwards must not affect the created row.
	if _, err := registry.Update(endpoint, UpdateAttrs{Events: []string{"post.deleted"}}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	d, err := deliveryRepo.GetByID(ids[0])
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if d.Event != "community.created" || d.Status != models.DeliveryStatusPending {
		t.Errorf("Existing delivery changed after subscription edit: %+v", d)
	}
}

func TestRouter_CreateTest(t *testing.T) {
	db := setupTestDB(t)
	registry, endpointRepo := newTestRegistry(t, db)
	deliveryRepo := repositories.NewDeliveryRepository(db)
	router := NewRouter(endpointRepo, deliveryRepo)

	// The test trigger bypasses the subscription filter.
	endpoint, err := registry.Create(CreateAttrs{
		URL: "https://example.com/hook", Name: "hook",
		Events: []string{"community.created"},
	}, "user_1")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	delivery, err := router.CreateTest(endpoint)
	if err != nil {
		t.Fatalf("CreateTest failed: %v", err)
	}
	if delivery.Event != TestEvent {
		t.Errorf("Expected sentinel event %s, got %s", TestEvent, delivery.Event)
	}
	if delivery.Status != models.DeliveryStatusPending {
		t.Errorf("Expected pending, got %s", delivery.Status)
	}
}
