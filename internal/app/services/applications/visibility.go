package applications

import (
	"context"
	"strings"

	"github.com/collabsuite/marketplace_layer/internal/app/domain/application"
)

// administrative roles within a company.
var adminRoles = map[string]bool{
	"admin": true,
	"owner": true,
}

// isAdmin reports whether the caller holds an administrative role in the
// company. A missing membership, a missing directory or an anonymous caller
// all project as non-admin.
func (s *Service) isAdmin(ctx context.Context, companyID, userID string) bool {
	if s.roles == nil || userID == "" {
		return false
	}
	membership, err := s.roles.GetMembership(ctx, companyID, userID)
	if err != nil {
		return false
	}
	return adminRoles[strings.ToLower(membership.Role)]
}

// project returns the full record for company administrators and a redacted
// copy for everyone else.
func (s *Service) project(ctx context.Context, app application.Application, caller Caller) application.Application {
	if s.isAdmin(ctx, app.CompanyID, caller.UserID) {
		return app
	}
	return Redacted(app)
}

// Redacted strips the operator-only fields of a record: the private key and
// the rest of the API credential section.
func Redacted(app application.Application) application.Application {
	app.API = application.API{}
	return app
}
