package importer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collabsuite/marketplace_layer/internal/app/domain/application"
	"github.com/collabsuite/marketplace_layer/internal/app/domain/legacy"
)

var importInstant = time.Date(2023, 5, 12, 9, 30, 0, 0, time.UTC)

func TestImportDerivesIdentityFromFlatFields(t *testing.T) {
	rec := legacy.Application{
		ID:          "app-1",
		GroupID:     "company-1",
		Name:        "Drive Connector",
		SimpleName:  "DriveConnector",
		Description: "Connects drives",
		Icon:        "https://cdn.example/icon.png",
	}

	app, err := Import(rec, importInstant)
	require.NoError(t, err)

	assert.Equal(t, "app-1", app.ID)
	assert.Equal(t, "company-1", app.CompanyID)
	assert.Equal(t, "driveconnector", app.Identity.Code)
	assert.Equal(t, "Drive Connector", app.Identity.Name)
	assert.Equal(t, "https://cdn.example/icon.png", app.Identity.Icon)
	assert.Equal(t, "Connects drives", app.Identity.Description)
	assert.Equal(t, DefaultWebsite, app.Identity.Website)
	assert.Equal(t, []string{}, app.Identity.Categories)
	assert.Equal(t, []string{DefaultCompatibility}, app.Identity.Compatibility)
}

func TestImportFallsBackToNameForCode(t *testing.T) {
	rec := legacy.Application{ID: "app-2", GroupID: "g", Name: "Notes"}

	app, err := Import(rec, importInstant)
	require.NoError(t, err)
	assert.Equal(t, "notes", app.Identity.Code)
}

func TestImportPublicationDerivation(t *testing.T) {
	cases := []struct {
		name          string
		public        bool
		validation    bool
		available     bool
		wantPublished bool
		wantRequested bool
	}{
		{name: "private", public: false, validation: false, available: false, wantPublished: false, wantRequested: false},
		{name: "requested", public: true, validation: false, available: false, wantPublished: false, wantRequested: true},
		{name: "under_validation", public: true, validation: true, available: false, wantPublished: false, wantRequested: false},
		{name: "published", public: true, validation: false, available: true, wantPublished: true, wantRequested: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := legacy.Application{
				ID:                  "app-3",
				GroupID:             "g",
				Name:                "App",
				Public:              tc.public,
				TeamValidation:      tc.validation,
				IsAvailableToPublic: tc.available,
			}
			app, err := Import(rec, importInstant)
			require.NoError(t, err)
			assert.Equal(t, tc.wantPublished, app.Publication.Published)
			assert.Equal(t, tc.wantRequested, app.Publication.Requested)
		})
	}
}

func TestImportStampsFreshStats(t *testing.T) {
	rec := legacy.Application{ID: "app-4", GroupID: "g", Name: "App"}

	app, err := Import(rec, importInstant)
	require.NoError(t, err)

	assert.Equal(t, importInstant, app.Stats.CreatedAt)
	assert.Equal(t, importInstant, app.Stats.UpdatedAt)
	assert.Equal(t, 1, app.Stats.Version)
}

func TestImportCopiesAPISection(t *testing.T) {
	rec := legacy.Application{
		ID:            "app-5",
		GroupID:       "g",
		Name:          "App",
		APIEventsURL:  "https://hooks.example/events",
		APIAllowedIPs: "10.0.0.0/8",
		APIPrivateKey: "secret-key",
	}

	app, err := Import(rec, importInstant)
	require.NoError(t, err)

	assert.Equal(t, "https://hooks.example/events", app.API.HooksURL)
	assert.Equal(t, "10.0.0.0/8", app.API.AllowedIPs)
	assert.Equal(t, "secret-key", app.API.PrivateKey)
}

func TestImportPreservesExistingSections(t *testing.T) {
	createdAt := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := legacy.Application{
		ID:      "app-6",
		GroupID: "g",
		Name:    "Ignored",
		Identity: &application.Identity{
			Code:          "kept",
			Name:          "Kept Name",
			Website:       "https://kept.example",
			Categories:    []string{"productivity"},
			Compatibility: []string{"twake"},
		},
		Publication: &application.Publication{Published: true, Requested: true},
		Stats:       &application.Stats{CreatedAt: createdAt, UpdatedAt: createdAt, Version: 7},
		API:         &application.API{HooksURL: "https://kept.example/hooks", PrivateKey: "kept-key"},
		Access:      &application.Access{Read: []string{"messages"}, Write: []string{}, Delete: []string{}, Hooks: []string{}},
		// stale flat fields that must not leak through
		Public:        false,
		APIPrivateKey: "stale-key",
		Capabilities:  `["stale"]`,
	}

	app, err := Import(rec, importInstant)
	require.NoError(t, err)

	assert.Equal(t, *rec.Identity, app.Identity)
	assert.Equal(t, *rec.Publication, app.Publication)
	assert.Equal(t, *rec.Stats, app.Stats)
	assert.Equal(t, *rec.API, app.API)
	assert.Equal(t, *rec.Access, app.Access)
}

func TestImportAccessScopesAreIndependent(t *testing.T) {
	rec := legacy.Application{
		ID:           "app-7",
		GroupID:      "g",
		Name:         "App",
		Capabilities: `["messages","files"]`,
		Privileges:   `{"not":"an array"}`,
		Hooks:        `["message_updated"]`,
	}

	app, err := Import(rec, importInstant)
	require.NoError(t, err)

	assert.Equal(t, []string{"messages", "files"}, app.Access.Read)
	assert.Equal(t, []string{}, app.Access.Write)
	assert.Equal(t, []string{}, app.Access.Delete)
	assert.Equal(t, []string{"message_updated"}, app.Access.Hooks)
}

func TestImportMalformedDisplayFailsRecord(t *testing.T) {
	rec := legacy.Application{
		ID:      "app-8",
		GroupID: "g",
		Name:    "App",
		Display: `{"channel_tab": not json`,
	}

	_, err := Import(rec, importInstant)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "app-8")
}

func TestParseCapabilities(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "empty", raw: "", want: []string{}},
		{name: "whitespace", raw: "   ", want: []string{}},
		{name: "invalid_json", raw: `["unterminated`, want: []string{}},
		{name: "not_an_array", raw: `{"a":1}`, want: []string{}},
		{name: "scalar", raw: `"messages"`, want: []string{}},
		{name: "array", raw: `["a","b"]`, want: []string{"a", "b"}},
		{name: "mixed_values", raw: `["a",1,true]`, want: []string{"a", "1", "true"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseCapabilities(tc.raw))
		})
	}
}
