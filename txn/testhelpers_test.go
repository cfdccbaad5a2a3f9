package txn

import (
	"context"
	"errors"
	"time"

	"github.com/gaborage/go-txkit/logger"
)

// fakeConn records everything the executor does to a connection so tests can
// assert on physical commit/rollback counts and session-state discipline.
type fakeConn struct {
	isolation  IsolationLevel
	autocommit bool

	isolationHistory  []IsolationLevel
	autocommitHistory []bool
	commits           int
	rollbacks         int
	closes            int

	getIsolationErr  error
	setIsolationErr  error
	getAutocommitErr error
	setAutocommitErr error
	commitErr        error
	rollbackErr      error
	closeErr         error
}

func newFakeConn() *fakeConn {
	return &fakeConn{isolation: LevelRepeatableRead, autocommit: true}
}

func (c *fakeConn) Isolation(context.Context) (IsolationLevel, error) {
	if c.getIsolationErr != nil {
		return 0, c.getIsolationErr
	}
	return c.isolation, nil
}

func (c *fakeConn) SetIsolation(_ context.Context, level IsolationLevel) error {
	if c.setIsolationErr != nil {
		return c.setIsolationErr
	}
	c.isolation = level
	c.isolationHistory = append(c.isolationHistory, level)
	return nil
}

func (c *fakeConn) Autocommit(context.Context) (bool, error) {
	if c.getAutocommitErr != nil {
		return false, c.getAutocommitErr
	}
	return c.autocommit, nil
}

func (c *fakeConn) SetAutocommit(_ context.Context, enabled bool) error {
	if c.setAutocommitErr != nil {
		return c.setAutocommitErr
	}
	c.autocommit = enabled
	c.autocommitHistory = append(c.autocommitHistory, enabled)
	return nil
}

func (c *fakeConn) Commit(context.Context) error {
	if c.commitErr != nil {
		return c.commitErr
	}
	c.commits++
	return nil
}

func (c *fakeConn) Rollback(context.Context) error {
	if c.rollbackErr != nil {
		return c.rollbackErr
	}
	c.rollbacks++
	return nil
}

func (c *fakeConn) Close() error {
	c.closes++
	return c.closeErr
}

type fakeProvider struct {
	conn       *fakeConn
	acquireErr error
	acquires   int
}

func (p *fakeProvider) Acquire(context.Context) (Connection, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	p.acquires++
	return p.conn, nil
}

// recordingLogger counts error events so tests can assert that swallowed
// failures were logged.
type recordingLogger struct {
	errorCount *int
}

func newRecordingLogger() *recordingLogger {
	return &recordingLogger{errorCount: new(int)}
}

func (l *recordingLogger) Info() logger.LogEvent  { return nopEvent{} }
func (l *recordingLogger) Debug() logger.LogEvent { return nopEvent{} }
func (l *recordingLogger) Warn() logger.LogEvent  { return nopEvent{} }

func (l *recordingLogger) Error() logger.LogEvent {
	*l.errorCount++
	return nopEvent{}
}

func (l *recordingLogger) WithFields(map[string]any) logger.Logger { return l }

func (l *recordingLogger) errors() int { return *l.errorCount }

type nopEvent struct{}

func (nopEvent) Msg(string)                                {}
func (nopEvent) Msgf(string, ...any)                       {}
func (nopEvent) Err(error) logger.LogEvent                 { return nopEvent{} }
func (nopEvent) Str(string, string) logger.LogEvent        { return nopEvent{} }
func (nopEvent) Int(string, int) logger.LogEvent           { return nopEvent{} }
func (nopEvent) Dur(string, time.Duration) logger.LogEvent { return nopEvent{} }
func (nopEvent) Interface(string, any) logger.LogEvent     { return nopEvent{} }

var errBoom = errors.New("boom")

// newTestExecutor wires a fresh fake stack for one test.
func newTestExecutor(opts Options) (*Executor, *fakeProvider, *fakeConn, *recordingLogger) {
	conn := newFakeConn()
	provider := &fakeProvider{conn: conn}
	log := newRecordingLogger()
	e, err := NewExecutor(provider, log, opts)
	if err != nil {
		panic(err)
	}
	return e, provider, conn, log
}

// decision is a result type opting into the rollback-decision capability.
type decision struct {
	value    string
	rollback bool
}

func (d decision) ShouldRollback() bool { return d.rollback }
