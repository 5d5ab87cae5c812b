// Package applications implements the marketplace application lifecycle:
// creation, bounded updates, the publication state machine and role-based
// projection of records.
package applications

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/collabsuite/marketplace_layer/internal/app/domain/application"
	"github.com/collabsuite/marketplace_layer/internal/app/metrics"
	"github.com/collabsuite/marketplace_layer/internal/app/storage"
	"github.com/collabsuite/marketplace_layer/pkg/logger"
)

const (
	privateKeyBytes  = 32
	registrarTimeout = 10 * time.Second
)

// Caller identifies the user a request acts on behalf of.
type Caller struct {
	UserID string
}

// Membership is a user's role within a company.
type Membership struct {
	Role string
}

// RoleDirectory resolves company memberships. Implementations return
// storage.ErrNotFound when the user has no membership.
type RoleDirectory interface {
	GetMembership(ctx context.Context, companyID, userID string) (Membership, error)
}

// PluginRegistrar is notified when an updated application carries a source
// repository reference. Calls are fire-and-forget.
type PluginRegistrar interface {
	Register(ctx context.Context, repositoryURL, appID, appSecret string) error
}

// Service enforces the create/update invariants of application records.
type Service struct {
	store      storage.ApplicationStore
	roles      RoleDirectory
	registrar  PluginRegistrar
	dispatcher NotificationDispatcher
	limiter    *rate.Limiter
	log        *logger.Logger

	notifyWG sync.WaitGroup
}

// Option customises the service.
type Option func(*Service)

// WithRegistrar attaches the plugin registrar collaborator.
func WithRegistrar(registrar PluginRegistrar) Option {
	return func(s *Service) { s.registrar = registrar }
}

// WithDispatcher attaches the outbound notification dispatcher.
func WithDispatcher(dispatcher NotificationDispatcher) Option {
	return func(s *Service) { s.dispatcher = dispatcher }
}

// New constructs an application lifecycle service.
func New(store storage.ApplicationStore, roles RoleDirectory, log *logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = logger.NewDefault("applications")
	}
	s := &Service{
		store:   store,
		roles:   roles,
		limiter: rate.NewLimiter(rate.Every(time.Second), 5),
		log:     log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a caller-supplied draft. The default flag, the published
// state, the private key and the stats section are owned by this service and
// overwrite whatever the draft carries.
func (s *Service) Create(ctx context.Context, draft application.Application, caller Caller) (application.Application, error) {
	draft.CompanyID = strings.TrimSpace(draft.CompanyID)
	if draft.CompanyID == "" {
		return application.Application{}, &ValidationError{Field: "company_id", Reason: "company_id is required"}
	}
	if strings.TrimSpace(draft.Identity.Name) == "" {
		return application.Application{}, &ValidationError{Field: "identity.name", Reason: "identity name is required"}
	}

	key, err := generatePrivateKey()
	if err != nil {
		return application.Application{}, fmt.Errorf("generate private key: %w", err)
	}

	now := time.Now().UTC()
	draft.IsDefault = false
	draft.Publication.Published = false
	draft.API.PrivateKey = key
	draft.Stats = application.Stats{CreatedAt: now, UpdatedAt: now, Version: 0}

	created, err := s.store.CreateApplication(ctx, draft)
	if err != nil {
		metrics.RecordApplicationOp("create", err)
		return application.Application{}, err
	}
	metrics.RecordApplicationOp("create", nil)
	s.log.WithField("application_id", created.ID).
		WithField("company_id", created.CompanyID).
		Info("application created")
	return created, nil
}

// Update applies a bounded mutation to an existing record. While the stored
// record is published, the identity, api endpoint fields, access scopes and
// display configuration are frozen; withdrawing the publication request
// un-publishes in the same update. The private key is never touched.
func (s *Service) Update(ctx context.Context, id string, draft application.Application, caller Caller) (application.Application, error) {
	stored, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return application.Application{}, err
	}

	next := stored
	next.Publication.Requested = draft.Publication.Requested
	if !next.Publication.Requested {
		next.Publication.Published = false
	}

	if stored.Publication.Published {
		if field := frozenFieldDiff(stored, draft); field != "" {
			metrics.RecordApplicationOp("update", errFrozen)
			return application.Application{}, &ValidationError{
				Field:  field,
				Reason: "field is frozen while the application is published",
			}
		}
	}

	next.Identity = draft.Identity
	next.API.HooksURL = draft.API.HooksURL
	next.API.AllowedIPs = draft.API.AllowedIPs
	next.Access = draft.Access
	next.Display = draft.Display
	next.Stats.UpdatedAt = time.Now().UTC()
	next.Stats.Version = stored.Stats.Version + 1

	updated, err := s.store.UpdateApplication(ctx, next, stored.Stats.Version)
	if err != nil {
		metrics.RecordApplicationOp("update", err)
		s.log.WithError(err).
			WithField("application_id", id).
			WithField("version", stored.Stats.Version).
			Error("application update failed")
		return application.Application{}, err
	}
	metrics.RecordApplicationOp("update", nil)
	s.log.WithField("application_id", updated.ID).
		WithField("version", updated.Stats.Version).
		Info("application updated")

	if updated.Identity.Repository != "" && s.registrar != nil {
		s.notifyRegistrar(updated)
	}
	return updated, nil
}

// Get returns a record projected for the caller's role.
func (s *Service) Get(ctx context.Context, id string, caller Caller) (application.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return application.Application{}, err
	}
	return s.project(ctx, app, caller), nil
}

// List returns a page of records projected for the caller's role, optionally
// filtered by a search term.
func (s *Service) List(ctx context.Context, page storage.Page, search string, caller Caller) ([]application.Application, string, error) {
	apps, next, err := s.store.ListApplications(ctx, page, search)
	if err != nil {
		return nil, "", err
	}
	projected := make([]application.Application, 0, len(apps))
	for _, app := range apps {
		projected = append(projected, s.project(ctx, app, caller))
	}
	return projected, next, nil
}

// Delete soft-deletes a record. Only administrators of the owning company may
// delete.
func (s *Service) Delete(ctx context.Context, id string, caller Caller) error {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return err
	}
	if !s.isAdmin(ctx, app.CompanyID, caller.UserID) {
		metrics.RecordApplicationOp("delete", ErrForbidden)
		return ErrForbidden
	}
	if err := s.store.DeleteApplication(ctx, id); err != nil {
		metrics.RecordApplicationOp("delete", err)
		return err
	}
	metrics.RecordApplicationOp("delete", nil)
	s.log.WithField("application_id", id).Info("application deleted")
	return nil
}

// notifyRegistrar issues the plugin registrar call without blocking the
// update. Failures are logged, never propagated.
func (s *Service) notifyRegistrar(app application.Application) {
	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), registrarTimeout)
		defer cancel()

		if err := s.limiter.Wait(ctx); err != nil {
			metrics.RecordRegistrarNotification(false)
			s.log.WithError(err).
				WithField("application_id", app.ID).
				Warn("plugin registrar notification dropped")
			return
		}
		if err := s.registrar.Register(ctx, app.Identity.Repository, app.ID, app.API.PrivateKey); err != nil {
			metrics.RecordRegistrarNotification(false)
			s.log.WithError(err).
				WithField("application_id", app.ID).
				WithField("repository", app.Identity.Repository).
				Warn("plugin registrar notification failed")
			return
		}
		metrics.RecordRegistrarNotification(true)
	}()
}

// waitForNotifications blocks until in-flight registrar calls settle. Test
// hook only.
func (s *Service) waitForNotifications() {
	s.notifyWG.Wait()
}

func generatePrivateKey() (string, error) {
	buf := make([]byte, privateKeyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}
