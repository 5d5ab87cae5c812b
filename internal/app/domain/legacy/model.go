// Package legacy defines the flat pre-migration application record.
package legacy

import (
	"github.com/collabsuite/marketplace_layer/internal/app/domain/application"
)

// Application mirrors the legacy flat schema. Capability grants and the
// display configuration are stored as JSON-encoded text, exactly as the old
// platform persisted them.
type Application struct {
	ID                  string
	GroupID             string
	IsDefault           bool
	Name                string
	SimpleName          string
	Description         string
	Icon                string
	Public              bool
	TeamValidation      bool
	IsAvailableToPublic bool

	APIEventsURL  string
	APIAllowedIPs string
	APIPrivateKey string

	// JSON-encoded capability lists. Privileges feeds both the write and the
	// delete scope, Capabilities the read scope, Hooks the hooks scope.
	Capabilities string
	Privileges   string
	Hooks        string

	// JSON-encoded display configuration blob.
	Display string

	// Sections a partially migrated row may already carry in structured form.
	// When present they are copied verbatim instead of being re-derived.
	Identity    *application.Identity
	Publication *application.Publication
	Stats       *application.Stats
	API         *application.API
	Access      *application.Access
}
