// Package mocks holds gomock doubles for the interfaces crossing package
// boundaries. The files follow mockgen's output; the directives below
// regenerate them.
package mocks

//go:generate mockgen -destination=messages.go -package=mocks github.com/vmunix/fixturesync/internal/messages Starter,StatusSource
//go:generate mockgen -destination=jobstore.go -package=mocks github.com/vmunix/fixturesync/internal/jobstore Store
//go:generate mockgen -destination=publisher.go -package=mocks -mock_names=Publisher=MockPublisher github.com/vmunix/fixturesync/internal/runner Publisher
//go:generate mockgen -destination=session.go -package=mocks -mock_names=Runner=MockRunner github.com/vmunix/fixturesync/internal/session Runner
