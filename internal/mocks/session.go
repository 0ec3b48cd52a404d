// Mocks for github.com/vmunix/fixturesync/internal/session (Runner), written in mockgen's layout.
// Running go generate in this package replaces the file with mockgen output.

package mocks

import (
	context "context"
	reflect "reflect"

	runner "github.com/vmunix/fixturesync/internal/runner"
	fixture "github.com/vmunix/fixturesync/pkg/fixture"
	gomock "go.uber.org/mock/gomock"
)

// MockRunner is a mock of Runner interface.
type MockRunner struct {
	ctrl     *gomock.Controller
	recorder *MockRunnerMockRecorder
	isgomock struct{}
}

// MockRunnerMockRecorder is the mock recorder for MockRunner.
type MockRunnerMockRecorder struct {
	mock *MockRunner
}

// NewMockRunner creates a new mock instance.
func NewMockRunner(ctrl *gomock.Controller) *MockRunner {
	mock := &MockRunner{ctrl: ctrl}
	mock.recorder = &MockRunnerMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRunner) EXPECT() *MockRunnerMockRecorder {
	return m.recorder
}

// Resume mocks base method.
func (m *MockRunner) Resume(ctx context.Context) (runner.State, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Resume", ctx)
	ret0, _ := ret[0].(runner.State)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Resume indicates an expected call of Resume.
func (mr *MockRunnerMockRecorder) Resume(ctx any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Resume", reflect.TypeOf((*MockRunner)(nil).Resume), ctx)
}

// Start mocks base method.
func (m *MockRunner) Start(ctx context.Context, csv string, opts fixture.Options) (runner.State, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Start", ctx, csv, opts)
	ret0, _ := ret[0].(runner.State)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Start indicates an expected call of Start.
func (mr *MockRunnerMockRecorder) Start(ctx, csv, opts any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Start", reflect.TypeOf((*MockRunner)(nil).Start), ctx, csv, opts)
}
