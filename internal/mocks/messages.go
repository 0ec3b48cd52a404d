// Mocks for github.com/vmunix/fixturesync/internal/messages (Starter, StatusSource), written in mockgen's layout.
// Running go generate in this package replaces the file with mockgen output.

package mocks

import (
	context "context"
	reflect "reflect"

	messages "github.com/vmunix/fixturesync/internal/messages"
	progress "github.com/vmunix/fixturesync/internal/progress"
	gomock "go.uber.org/mock/gomock"
)

// MockStarter is a mock of Starter interface.
type MockStarter struct {
	ctrl     *gomock.Controller
	recorder *MockStarterMockRecorder
	isgomock struct{}
}

// MockStarterMockRecorder is the mock recorder for MockStarter.
type MockStarterMockRecorder struct {
	mock *MockStarter
}

// NewMockStarter creates a new mock instance.
func NewMockStarter(ctrl *gomock.Controller) *MockStarter {
	mock := &MockStarter{ctrl: ctrl}
	mock.recorder = &MockStarterMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockStarter) EXPECT() *MockStarterMockRecorder {
	return m.recorder
}

// Submit mocks base method.
func (m *MockStarter) Submit(ctx context.Context, req messages.Request) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Submit", ctx, req)
	ret0, _ := ret[0].(error)
	return ret0
}

// Submit indicates an expected call of Submit.
func (mr *MockStarterMockRecorder) Submit(ctx, req any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Submit", reflect.TypeOf((*MockStarter)(nil).Submit), ctx, req)
}

// MockStatusSource is a mock of StatusSource interface.
type MockStatusSource struct {
	ctrl     *gomock.Controller
	recorder *MockStatusSourceMockRecorder
	isgomock struct{}
}

// MockStatusSourceMockRecorder is the mock recorder for MockStatusSource.
type MockStatusSourceMockRecorder struct {
	mock *MockStatusSource
}

// NewMockStatusSource creates a new mock instance.
func NewMockStatusSource(ctrl *gomock.Controller) *MockStatusSource {
	mock := &MockStatusSource{ctrl: ctrl}
	mock.recorder = &MockStatusSourceMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockStatusSource) EXPECT() *MockStatusSourceMockRecorder {
	return m.recorder
}

// Snapshot mocks base method.
func (m *MockStatusSource) Snapshot() progress.Snapshot {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Snapshot")
	ret0, _ := ret[0].(progress.Snapshot)
	return ret0
}

// Snapshot indicates an expected call of Snapshot.
func (mr *MockStatusSourceMockRecorder) Snapshot() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Snapshot", reflect.TypeOf((*MockStatusSource)(nil).Snapshot))
}
