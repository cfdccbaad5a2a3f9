package txn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyTxCommitsOnTrue(t *testing.T) {
	e, provider, conn, _ := newTestExecutor(Options{DefaultIsolation: LevelReadCommitted})

	err := e.Tx(context.Background(), LevelReadCommitted, func(context.Context) (bool, error) {
		return true, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, provider.acquires)
	assert.Equal(t, 1, conn.commits)
	assert.Equal(t, 0, conn.rollbacks)
	assert.Equal(t, 1, conn.closes)
	assert.True(t, conn.autocommit, "autocommit restored")
}

func TestLegacyTxRollsBackOnFalse(t *testing.T) {
	e, _, conn, _ := newTestExecutor(Options{DefaultIsolation: LevelReadCommitted})

	err := e.Tx(context.Background(), LevelReadCommitted, func(context.Context) (bool, error) {
		return false, nil
	})

	assert.ErrorIs(t, err, ErrRolledBack)
	assert.Equal(t, 0, conn.commits)
	assert.Equal(t, 1, conn.rollbacks)
	assert.Equal(t, 1, conn.closes)
}

func TestLegacyTxRollsBackOnError(t *testing.T) {
	e, _, conn, _ := newTestExecutor(Options{DefaultIsolation: LevelReadCommitted})

	err := e.Tx(context.Background(), LevelReadCommitted, func(context.Context) (bool, error) {
		return false, errBoom
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
	var pe *PersistenceError
	assert.ErrorAs(t, err, &pe)
	assert.Equal(t, 0, conn.commits)
	assert.Equal(t, 1, conn.rollbacks)
}

func TestLegacyTxValidatesIsolation(t *testing.T) {
	e, provider, _, _ := newTestExecutor(Options{DefaultIsolation: LevelReadCommitted})

	err := e.Tx(context.Background(), IsolationLevel(5), func(context.Context) (bool, error) {
		return true, nil
	})

	assert.ErrorIs(t, err, ErrInvalidIsolation)
	assert.Zero(t, provider.acquires)
}

func TestLegacyTxNestedWidensIsolation(t *testing.T) {
	e, _, conn, _ := newTestExecutor(Options{DefaultIsolation: LevelReadCommitted})

	_, err := e.Execute(context.Background(), func(ctx context.Context, _ *Transaction) (any, error) {
		return nil, e.Tx(ctx, LevelSerializable, func(context.Context) (bool, error) {
			return true, nil
		})
	})

	require.NoError(t, err)
	assert.Contains(t, conn.isolationHistory, LevelSerializable)
	assert.Equal(t, LevelRepeatableRead, conn.isolation, "outer teardown restores the original level")
}

func TestLegacyTxPanicReleasesConnection(t *testing.T) {
	e, _, conn, _ := newTestExecutor(Options{DefaultIsolation: LevelReadCommitted})

	assert.Panics(t, func() {
		_ = e.Tx(context.Background(), LevelReadCommitted, func(context.Context) (bool, error) {
			panic("atom panicked")
		})
	})

	assert.Equal(t, 1, conn.rollbacks)
	assert.Equal(t, 1, conn.closes)
	assert.True(t, conn.autocommit)
}
