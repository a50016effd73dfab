// Package mocks provides testify mocks for the vcs interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/panbanda/whoiswho/internal/vcs"
)

// MockOpener is a mock vcs.Opener.
type MockOpener struct {
	mock.Mock
}

// NewMockOpener creates a MockOpener whose expectations are asserted at cleanup.
func NewMockOpener(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockOpener {
	m := &MockOpener{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Open implements vcs.Opener.
func (m *MockOpener) Open(path string) (vcs.History, error) {
	args := m.Called(path)
	h, _ := args.Get(0).(vcs.History)
	return h, args.Error(1)
}

// MockHistory is a mock vcs.History.
type MockHistory struct {
	mock.Mock
}

// NewMockHistory creates a MockHistory whose expectations are asserted at cleanup.
func NewMockHistory(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockHistory {
	m := &MockHistory{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

// Commits implements vcs.History.
func (m *MockHistory) Commits(ctx context.Context) ([]vcs.CommitInfo, error) {
	args := m.Called(ctx)
	commits, _ := args.Get(0).([]vcs.CommitInfo)
	return commits, args.Error(1)
}

// Diff implements vcs.History.
func (m *MockHistory) Diff(ctx context.Context, hash string) ([]byte, error) {
	args := m.Called(ctx, hash)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}

// Ref implements vcs.History.
func (m *MockHistory) Ref(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// Root implements vcs.History.
func (m *MockHistory) Root() string {
	return m.Called().String(0)
}
