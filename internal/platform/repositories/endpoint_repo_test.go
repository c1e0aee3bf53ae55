package repositories

import (
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"hookd/internal/platform/models"
)

func TestEndpointRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEndpointRepository(db)

	endpoint := &models.Endpoint{
		URL:           "https://example.com/hook",
		Name:          "CI notifications",
		Description:   "build results",
		Events:        []string{"community.created", "post.deleted"},
		Active:        true,
		Secret:        strings.Repeat("cd", 32),
		CreatedBy:     "user_1",
		ApplicationID: "app_1",
	}
	if err := repo.Create(endpoint); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !strings.HasPrefix(endpoint.ID, "ep_") {
		t.Errorf("Expected ep_ prefixed id, got %s", endpoint.ID)
	}

	fetched, err := repo.GetByID(endpoint.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.URL != endpoint.URL || fetched.Name != endpoint.Name {
		t.Errorf("Fetched endpoint differs: %+v", fetched)
	}
	if len(fetched.Events) != 2 {
		t.Errorf("Expected 2 events, got %v", fetched.Events)
	}
	if fetched.ApplicationID != "app_1" {
		t.Errorf("Expected application_id app_1, got %q", fetched.ApplicationID)
	}
}

func TestEndpointRepository_EmptyOptionalFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEndpointRepository(db)

	endpoint := &models.Endpoint{
		URL:       "https://example.com/hook",
		Name:      "minimal",
		Events:    []string{},
		Active:    true,
		Secret:    strings.Repeat("ef", 32),
		CreatedBy: "user_1",
	}
	if err := repo.Create(endpoint); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	fetched, err := repo.GetByID(endpoint.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Description != "" || fetched.ApplicationID != "" {
		t.Errorf("Expected empty optional fields, got %+v", fetched)
	}
	if fetched.Events == nil || len(fetched.Events) != 0 {
		t.Errorf("Expected empty events slice, got %v", fetched.Events)
	}
}

func TestEndpointRepository_ListActiveForEvent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEndpointRepository(db)

	add := func(name string, events []string, active bool) *models.Endpoint {
		e := &models.Endpoint{
			URL: "https://example.com/" + name, Name: name, Events: events,
			Active: active, Secret: strings.Repeat("01", 32), CreatedBy: "user_1",
		}
		if err := repo.Create(e); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		return e
	}

	catchAll := add("all", []string{}, true)
	subscribed := add("subscribed", []string{"community.created"}, true)
	add("other", []string{"post.deleted"}, true)
	add("inactive", []string{"community.created"}, false)

	matched, err := repo.ListActiveForEvent("community.created")
	if err != nil {
		t.Fatalf("ListActiveForEvent failed: %v", err)
	}

	ids := endpointIDs(matched)
	if len(ids) != 2 || !ids[catchAll.ID] || !ids[subscribed.ID] {
		t.Errorf("Expected catch-all and subscribed endpoints, got %v", ids)
	}
}

func endpointIDs(endpoints []*models.Endpoint) map[string]bool {
	set := make(map[string]bool)
	for _, e := range endpoints {
		set[e.ID] = true
	}
	return set
}

func TestEndpointRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewEndpointRepository(db)

	endpoint := createTestEndpoint(t, db)
	endpoint.Name = "renamed"
	endpoint.Active = false
	endpoint.Events = []string{"community.created"}

	if err := repo.Update(endpoint); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	fetched, err := repo.GetByID(endpoint.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if fetched.Name != "renamed" || fetched.Active || len(fetched.Events) != 1 {
		t.Errorf("Update not persisted: %+v", fetched)
	}
}

func TestEndpointRepository_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewEndpointRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM webhook_endpoints WHERE active = 1").
		WillReturnError(sqlmock.ErrCancelled)

	if _, err := repo.ListActiveForEvent("community.created"); err == nil {
		t.Error("Expected query error to propagate")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet sqlmock expectations: %v", err)
	}
}
