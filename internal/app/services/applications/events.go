package applications

import (
	"context"
	"fmt"

	"github.com/collabsuite/marketplace_layer/internal/app/metrics"
)

// Event is an application-bound event forwarded to an installed application.
type Event struct {
	ConnectionID string
	UserID       string
	WorkspaceID  string
	Type         string
	Name         string
	Payload      map[string]any
}

// Notification is the outbound payload handed to the dispatcher.
type Notification struct {
	AppID        string
	ConnectionID string
	UserID       string
	EventType    string
	EventName    string
	Payload      map[string]any
	CompanyID    string
	WorkspaceID  string
}

// NotificationDispatcher delivers events to installed applications.
type NotificationDispatcher interface {
	NotifyInstalledApp(ctx context.Context, n Notification) error
}

var errDispatcherUnavailable = fmt.Errorf("notification dispatcher not configured")

// DispatchEvent validates the company/application pairing and forwards the
// event through the dispatcher. A record owned by another company is rejected
// unless it is a default application available everywhere.
func (s *Service) DispatchEvent(ctx context.Context, companyID, appID string, evt Event) error {
	if s.dispatcher == nil {
		return fmt.Errorf("dispatch event: %w", errDispatcherUnavailable)
	}

	app, err := s.store.GetApplication(ctx, appID)
	if err != nil {
		return err
	}
	if app.CompanyID != companyID && !app.IsDefault {
		verr := &ValidationError{
			Field:  "company_id",
			Reason: fmt.Sprintf("application %s does not belong to company %s", appID, companyID),
		}
		metrics.RecordApplicationOp("dispatch_event", verr)
		return verr
	}

	err = s.dispatcher.NotifyInstalledApp(ctx, Notification{
		AppID:        app.ID,
		ConnectionID: evt.ConnectionID,
		UserID:       evt.UserID,
		EventType:    evt.Type,
		EventName:    evt.Name,
		Payload:      evt.Payload,
		CompanyID:    companyID,
		WorkspaceID:  evt.WorkspaceID,
	})
	metrics.RecordApplicationOp("dispatch_event", err)
	if err != nil {
		s.log.WithError(err).
			WithField("application_id", appID).
			WithField("company_id", companyID).
			Error("event dispatch failed")
		return fmt.Errorf("dispatch event to application %s: %w", appID, err)
	}
	return nil
}
