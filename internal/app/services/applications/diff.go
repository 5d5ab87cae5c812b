package applications

import (
	"github.com/collabsuite/marketplace_layer/internal/app/domain/application"
)

// frozenFieldDiff compares the fields frozen on a published record between
// the stored state and an update request. It walks an explicit whitelist
// rather than relying on whole-struct equality and returns the first field
// the request attempts to change, or "" when the frozen projection is
// untouched.
func frozenFieldDiff(stored, draft application.Application) string {
	if stored.Identity.Code != draft.Identity.Code {
		return "identity.code"
	}
	if stored.Identity.Name != draft.Identity.Name {
		return "identity.name"
	}
	if stored.Identity.Icon != draft.Identity.Icon {
		return "identity.icon"
	}
	if stored.Identity.Description != draft.Identity.Description {
		return "identity.description"
	}
	if stored.Identity.Website != draft.Identity.Website {
		return "identity.website"
	}
	if stored.Identity.Repository != draft.Identity.Repository {
		return "identity.repository"
	}
	if !equalStrings(stored.Identity.Categories, draft.Identity.Categories) {
		return "identity.categories"
	}
	if !equalStrings(stored.Identity.Compatibility, draft.Identity.Compatibility) {
		return "identity.compatibility"
	}
	if stored.API.HooksURL != draft.API.HooksURL {
		return "api.hooks_url"
	}
	if stored.API.AllowedIPs != draft.API.AllowedIPs {
		return "api.allowed_ips"
	}
	if !equalStrings(stored.Access.Read, draft.Access.Read) {
		return "access.read"
	}
	if !equalStrings(stored.Access.Write, draft.Access.Write) {
		return "access.write"
	}
	if !equalStrings(stored.Access.Delete, draft.Access.Delete) {
		return "access.delete"
	}
	if !equalStrings(stored.Access.Hooks, draft.Access.Hooks) {
		return "access.hooks"
	}
	if !application.EqualDisplay(stored.Display, draft.Display) {
		return "display"
	}
	return ""
}

// equalStrings compares capability token sequences in order. Empty and absent
// sequences are equivalent.
func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
