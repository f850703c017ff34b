package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryError_UnwrapsToBaseAndCause(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")
	err := error(&QueryError{Statement: "INSERT INTO vendors (id) VALUES ($1)", SQLState: "23505", Err: cause})

	assert.ErrorIs(t, err, ErrQuery)
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsQueryError(err))
	assert.Contains(t, err.Error(), "23505")
	assert.Contains(t, err.Error(), "INSERT INTO vendors")
}

func TestTransactionError_KeepsOriginalFailure(t *testing.T) {
	workErr := errors.New("vendor not found")
	rbErr := errors.New("conn closed")

	err := error(&TransactionError{Err: workErr})
	assert.ErrorIs(t, err, ErrTransaction)
	assert.ErrorIs(t, err, workErr)
	assert.NotErrorIs(t, err, rbErr)

	err = &TransactionError{Err: workErr, RollbackErr: rbErr}
	assert.ErrorIs(t, err, rbErr)
	assert.Contains(t, err.Error(), "rollback failed")
}

func TestDomainError_Message(t *testing.T) {
	err := NewValidationError("radius_km", "must be positive")
	assert.Equal(t, "invalid input: must be positive (field: radius_km)", err.Error())

	cause := errors.New("dial tcp: connection refused")
	cerr := NewConnectionError("ping failed", cause)
	assert.ErrorIs(t, cerr, ErrConnection)
	assert.ErrorIs(t, cerr, cause)
	assert.True(t, IsUnavailable(cerr))
}

func TestPoolConfiguration_Validate(t *testing.T) {
	valid := PoolConfiguration{
		MinSize: 1, MaxSize: 4,
		IdleTimeout: 1, AcquireTimeout: 1, EvictionInterval: 1, ConnectTimeout: 1,
	}
	require.NoError(t, valid.Validate())

	bad := valid
	bad.MinSize = 5
	assert.True(t, IsValidationError(bad.Validate()))

	bad = valid
	bad.MaxSize = 0
	bad.MinSize = 0
	assert.True(t, IsValidationError(bad.Validate()))
}

func TestPoolStats_Saturated(t *testing.T) {
	assert.True(t, PoolStats{TotalCount: 2, IdleCount: 0, WaitingCount: 1, MaxSize: 2}.Saturated())
	assert.False(t, PoolStats{TotalCount: 2, IdleCount: 1, WaitingCount: 0, MaxSize: 2}.Saturated())
}
