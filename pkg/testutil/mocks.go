// Package testutil provides common testing utilities and mock implementations.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/collabsuite/marketplace_layer/internal/app/services/applications"
)

// MockRoleDirectory is a test implementation of the RoleDirectory interface.
type MockRoleDirectory struct {
	mu    sync.RWMutex
	roles map[string]string // companyID/userID -> role
}

// NewMockRoleDirectory creates a new mock role directory.
func NewMockRoleDirectory() *MockRoleDirectory {
	return &MockRoleDirectory{roles: make(map[string]string)}
}

// SetRole records the role a user holds in a company.
func (m *MockRoleDirectory) SetRole(companyID, userID, role string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[companyID+"/"+userID] = role
}

// GetMembership returns the recorded membership or an error when absent.
func (m *MockRoleDirectory) GetMembership(_ context.Context, companyID, userID string) (applications.Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	role, ok := m.roles[companyID+"/"+userID]
	if !ok {
		return applications.Membership{}, fmt.Errorf("no membership for user %s in company %s", userID, companyID)
	}
	return applications.Membership{Role: role}, nil
}

// RegistrarCall records one Register invocation.
type RegistrarCall struct {
	RepositoryURL string
	AppID         string
	AppSecret     string
}

// MockRegistrar is a test implementation of the PluginRegistrar interface.
type MockRegistrar struct {
	mu    sync.Mutex
	calls []RegistrarCall
	err   error
}

// NewMockRegistrar creates a new mock registrar.
func NewMockRegistrar() *MockRegistrar {
	return &MockRegistrar{}
}

// Fail makes subsequent Register calls return err.
func (m *MockRegistrar) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Register records the call and returns the configured error.
func (m *MockRegistrar) Register(_ context.Context, repositoryURL, appID, appSecret string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, RegistrarCall{RepositoryURL: repositoryURL, AppID: appID, AppSecret: appSecret})
	return m.err
}

// Calls returns a copy of all recorded calls.
func (m *MockRegistrar) Calls() []RegistrarCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]RegistrarCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// MockDispatcher is a test implementation of the NotificationDispatcher interface.
type MockDispatcher struct {
	mu            sync.Mutex
	notifications []applications.Notification
	err           error
}

// NewMockDispatcher creates a new mock dispatcher.
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

// Fail makes subsequent NotifyInstalledApp calls return err.
func (m *MockDispatcher) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// NotifyInstalledApp records the notification and returns the configured error.
func (m *MockDispatcher) NotifyInstalledApp(_ context.Context, n applications.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notifications = append(m.notifications, n)
	return m.err
}

// Notifications returns a copy of all recorded notifications.
func (m *MockDispatcher) Notifications() []applications.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]applications.Notification, len(m.notifications))
	copy(out, m.notifications)
	return out
}
