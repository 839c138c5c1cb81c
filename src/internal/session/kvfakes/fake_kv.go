package kvfakes

import (
	"context"
	"sync"
	"time"
)

// FakeKV is an in-memory stand-in for the Redis-backed key/value service.
type FakeKV struct {
	mu   sync.Mutex
	data map[string]string

	GetErr    error
	SetErr    error
	DeleteErr error

	SetCalls    int
	DeleteCalls int
}

func NewFakeKV() *FakeKV {
	return &FakeKV{data: map[string]string{}}
}

func (f *FakeKV) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return "", f.GetErr
	}
	return f.data[key], nil
}

func (f *FakeKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.SetCalls++
	if f.SetErr != nil {
		return f.SetErr
	}
	f.data[key] = value
	return nil
}

func (f *FakeKV) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.DeleteCalls++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for _, key := range keys {
		delete(f.data, key)
	}
	return nil
}

// Put seeds a raw value, bypassing error injection.
func (f *FakeKV) Put(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
}

// Stored returns the raw value for key.
func (f *FakeKV) Stored(key string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data[key]
}

// Len reports how many keys are stored.
func (f *FakeKV) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.data)
}
