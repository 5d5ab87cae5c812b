// Package importer transforms legacy flat application records into the
// structured schema. The transformation is pure: no I/O, no clock access
// beyond the instant the caller supplies, and no panic for arbitrary input.
package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/collabsuite/marketplace_layer/internal/app/domain/application"
	"github.com/collabsuite/marketplace_layer/internal/app/domain/legacy"
)

const (
	// DefaultWebsite is assigned when the legacy record carries no website.
	DefaultWebsite = "https://twake.app"
	// DefaultCompatibility is the platform tag every migrated record is
	// compatible with.
	DefaultCompatibility = "twake"
)

// Import maps a legacy record onto the structured schema. Sections already
// present on the legacy record are copied verbatim; everything else is
// derived. A malformed display blob is the only hard failure; malformed
// capability strings degrade to empty scopes.
func Import(rec legacy.Application, now time.Time) (application.Application, error) {
	app := application.Application{
		ID:        rec.ID,
		CompanyID: rec.GroupID,
		IsDefault: rec.IsDefault,
	}

	if rec.Identity != nil {
		app.Identity = *rec.Identity
	} else {
		code := strings.ToLower(rec.SimpleName)
		if code == "" {
			code = strings.ToLower(rec.Name)
		}
		app.Identity = application.Identity{
			Code:          code,
			Name:          rec.Name,
			Icon:          rec.Icon,
			Description:   rec.Description,
			Website:       DefaultWebsite,
			Categories:    []string{},
			Compatibility: []string{DefaultCompatibility},
		}
	}

	if rec.Publication != nil {
		app.Publication = *rec.Publication
	} else {
		app.Publication = application.Publication{
			Published: rec.IsAvailableToPublic,
			Requested: rec.Public && !rec.TeamValidation,
		}
	}

	if rec.Stats != nil {
		app.Stats = *rec.Stats
	} else {
		// A migrated record starts at version 1. Re-importing a record whose
		// stats section is still absent resets CreatedAt to the import
		// instant; see DESIGN.md.
		app.Stats = application.Stats{
			CreatedAt: now,
			UpdatedAt: now,
			Version:   1,
		}
	}

	if rec.API != nil {
		app.API = *rec.API
	} else {
		app.API = application.API{
			HooksURL:   rec.APIEventsURL,
			AllowedIPs: rec.APIAllowedIPs,
			PrivateKey: rec.APIPrivateKey,
		}
	}

	if rec.Access != nil {
		app.Access = *rec.Access
	} else {
		app.Access = application.Access{
			Read:   parseCapabilities(rec.Capabilities),
			Write:  parseCapabilities(rec.Privileges),
			Delete: parseCapabilities(rec.Privileges),
			Hooks:  parseCapabilities(rec.Hooks),
		}
	}

	display, err := transformDisplay(rec)
	if err != nil {
		return application.Application{}, fmt.Errorf("transform display of application %s: %w", rec.ID, err)
	}
	app.Display = display

	return app, nil
}

// parseCapabilities decodes a JSON-encoded capability list. Anything that is
// not a JSON array of values yields an empty list: one corrupt scope must not
// abort the import or contaminate sibling scopes.
func parseCapabilities(raw string) []string {
	tokens := []string{}
	raw = strings.TrimSpace(raw)
	if raw == "" || !gjson.Valid(raw) {
		return tokens
	}
	parsed := gjson.Parse(raw)
	if !parsed.IsArray() {
		return tokens
	}
	for _, value := range parsed.Array() {
		tokens = append(tokens, value.String())
	}
	return tokens
}
