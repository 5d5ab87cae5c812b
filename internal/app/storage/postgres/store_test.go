package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/collabsuite/marketplace_layer/internal/app/domain/application"
	"github.com/collabsuite/marketplace_layer/internal/app/storage"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, "postgres")), mock
}

func fixture(id string) application.Application {
	return application.Application{
		ID:        id,
		CompanyID: "company-1",
		Identity:  application.Identity{Code: "notes", Name: "Notes"},
		Stats:     application.Stats{CreatedAt: time.Now().UTC(), UpdatedAt: time.Now().UTC()},
	}
}

func appRows(apps ...application.Application) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "company_id", "is_default", "identity", "published", "requested",
		"created_at", "updated_at", "version", "api", "access", "display", "deleted",
	})
	for _, app := range apps {
		identity, _ := json.Marshal(app.Identity)
		api, _ := json.Marshal(app.API)
		access, _ := json.Marshal(app.Access)
		var display []byte
		if app.Display != nil {
			display, _ = json.Marshal(app.Display)
		}
		rows.AddRow(app.ID, app.CompanyID, app.IsDefault, identity,
			app.Publication.Published, app.Publication.Requested,
			app.Stats.CreatedAt, app.Stats.UpdatedAt, app.Stats.Version,
			api, access, display, false)
	}
	return rows
}

func TestCreateApplicationAssignsID(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO marketplace_applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := store.CreateApplication(context.Background(), fixture(""))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected a generated id")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestGetApplicationNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM marketplace_applications`).
		WithArgs("missing").
		WillReturnRows(appRows())

	_, err := store.GetApplication(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestGetApplicationDecodesRow(t *testing.T) {
	store, mock := newMockStore(t)

	want := fixture("app-1")
	want.Display = &application.Display{Twake: application.Surface{Configuration: []string{"global"}}}
	mock.ExpectQuery(`FROM marketplace_applications`).
		WithArgs("app-1").
		WillReturnRows(appRows(want))

	got, err := store.GetApplication(context.Background(), "app-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Identity.Name != "Notes" || got.CompanyID != "company-1" {
		t.Fatalf("got %+v", got)
	}
	if got.Display == nil || got.Display.Twake.Configuration[0] != "global" {
		t.Fatalf("display = %+v", got.Display)
	}
}

func TestUpdateApplicationVersionConflict(t *testing.T) {
	store, mock := newMockStore(t)

	app := fixture("app-1")
	app.Stats.Version = 3

	// no row matched the expected version
	mock.ExpectExec(`UPDATE marketplace_applications`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// the record still exists, so the miss is a version conflict
	mock.ExpectQuery(`FROM marketplace_applications`).
		WithArgs("app-1").
		WillReturnRows(appRows(fixture("app-1")))

	_, err := store.UpdateApplication(context.Background(), app, 2)
	if !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("got %v, want ErrVersionConflict", err)
	}
}

func TestUpdateApplicationNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE marketplace_applications`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`FROM marketplace_applications`).
		WithArgs("app-1").
		WillReturnRows(appRows())

	_, err := store.UpdateApplication(context.Background(), fixture("app-1"), 0)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestSaveApplicationUpserts(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO marketplace_applications`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := store.SaveApplication(context.Background(), fixture("app-1")); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListApplicationsKeysetPagination(t *testing.T) {
	store, mock := newMockStore(t)

	// limit+1 rows returned means another page exists
	mock.ExpectQuery(`FROM marketplace_applications`).
		WithArgs("", "", 3).
		WillReturnRows(appRows(fixture("a"), fixture("b"), fixture("c")))

	apps, next, err := store.ListApplications(context.Background(), storage.Page{Limit: 2}, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(apps) != 2 {
		t.Fatalf("records = %d, want 2", len(apps))
	}
	if next != "b" {
		t.Fatalf("next = %q, want b", next)
	}
}

func TestListApplicationsLastPage(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`FROM marketplace_applications`).
		WithArgs("b", "drive", 3).
		WillReturnRows(appRows(fixture("c")))

	apps, next, err := store.ListApplications(context.Background(), storage.Page{Limit: 2, Token: "b"}, "drive")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(apps) != 1 || next != "" {
		t.Fatalf("records = %d, next = %q", len(apps), next)
	}
}

func TestDeleteApplication(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE marketplace_applications SET deleted = TRUE`).
		WithArgs("app-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.DeleteApplication(context.Background(), "app-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	mock.ExpectExec(`UPDATE marketplace_applications SET deleted = TRUE`).
		WithArgs("app-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.DeleteApplication(context.Background(), "app-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestListLegacyApplicationsDecodesSections(t *testing.T) {
	store, mock := newMockStore(t)

	identity, _ := json.Marshal(application.Identity{Code: "kept", Name: "Kept"})
	rows := sqlmock.NewRows([]string{
		"id", "group_id", "is_default", "name", "simple_name", "description", "icon",
		"public", "team_validation", "available_to_public",
		"api_events_url", "api_allowed_ips", "api_private_key",
		"capabilities", "privileges", "hooks", "display",
		"identity", "publication", "stats", "api", "access",
	}).AddRow(
		"legacy-1", "company-1", false, "Notes", "notes", "", "",
		true, false, false,
		"", "", "",
		`["messages"]`, "", "", "",
		identity, nil, nil, nil, nil,
	)

	mock.ExpectQuery(`FROM legacy_applications`).
		WithArgs("", 101).
		WillReturnRows(rows)

	records, next, err := store.ListLegacyApplications(context.Background(), storage.Page{})
	if err != nil {
		t.Fatalf("list legacy: %v", err)
	}
	if next != "" {
		t.Fatalf("next = %q", next)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d", len(records))
	}
	rec := records[0]
	if rec.Identity == nil || rec.Identity.Code != "kept" {
		t.Fatalf("identity = %+v", rec.Identity)
	}
	if rec.Publication != nil {
		t.Fatal("publication must stay absent")
	}
	if rec.Capabilities != `["messages"]` {
		t.Fatalf("capabilities = %q", rec.Capabilities)
	}
}
