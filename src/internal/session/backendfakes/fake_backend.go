package backendfakes

import (
	"context"
	"fmt"
	"stylehub-admin-svc/src/internal/models"
	"sync"
	"time"
)

// FakeAuthBackend is a scriptable auth backend that records every call.
// When a hook is nil a sensible default applies.
type FakeAuthBackend struct {
	mu sync.Mutex

	AuthenticateFn func(principal, secret string) (*models.BackendSession, error)
	RefreshFn      func(credential string) (*models.BackendSession, error)
	CurrentFn      func() (*models.BackendSession, error)
	RevokeErr      error
	MetadataErr    error

	AuthenticateCalls  int
	RefreshCalls       int
	RevokeCalls        int
	CurrentCalls       int
	MetadataCalls      int
	RevokedCredentials []string

	lastPrincipal string
}

func NewFakeAuthBackend() *FakeAuthBackend {
	return &FakeAuthBackend{}
}

func (f *FakeAuthBackend) Authenticate(_ context.Context, principal, secret string) (*models.BackendSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AuthenticateCalls++
	if f.AuthenticateFn != nil {
		bs, err := f.AuthenticateFn(principal, secret)
		if bs != nil {
			f.lastPrincipal = bs.Principal
		}
		return bs, err
	}
	f.lastPrincipal = principal
	return &models.BackendSession{
		Credential: fmt.Sprintf("cred-%d", f.AuthenticateCalls),
		Principal:  principal,
	}, nil
}

func (f *FakeAuthBackend) RefreshCredential(_ context.Context, credential string) (*models.BackendSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RefreshCalls++
	if f.RefreshFn != nil {
		return f.RefreshFn(credential)
	}
	return &models.BackendSession{
		Credential: fmt.Sprintf("refreshed-%d", f.RefreshCalls),
		Principal:  f.lastPrincipal,
	}, nil
}

func (f *FakeAuthBackend) RevokeCredential(_ context.Context, credential string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.RevokeCalls++
	f.RevokedCredentials = append(f.RevokedCredentials, credential)
	return f.RevokeErr
}

func (f *FakeAuthBackend) CurrentSession(_ context.Context) (*models.BackendSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.CurrentCalls++
	if f.CurrentFn != nil {
		return f.CurrentFn()
	}
	return nil, nil
}

func (f *FakeAuthBackend) RecordLoginMetadata(_ context.Context, _ string, _ time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.MetadataCalls++
	return f.MetadataErr
}

// SetLastPrincipal pre-seeds the principal returned by the default refresh
// hook, for tests that never authenticate.
func (f *FakeAuthBackend) SetLastPrincipal(principal string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastPrincipal = principal
}
