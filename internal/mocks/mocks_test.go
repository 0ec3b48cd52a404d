package mocks_test

import (
	"github.com/vmunix/fixturesync/internal/jobstore"
	"github.com/vmunix/fixturesync/internal/messages"
	"github.com/vmunix/fixturesync/internal/mocks"
	"github.com/vmunix/fixturesync/internal/runner"
	"github.com/vmunix/fixturesync/internal/session"
)

// The doubles must keep up with the interfaces they stand in for.
var (
	_ jobstore.Store        = (*mocks.MockStore)(nil)
	_ messages.Starter      = (*mocks.MockStarter)(nil)
	_ messages.StatusSource = (*mocks.MockStatusSource)(nil)
	_ runner.Publisher      = (*mocks.MockPublisher)(nil)
	_ session.Runner        = (*mocks.MockRunner)(nil)
)
