package lock

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hexToken = `^[0-9a-f]{64}$`

func TestAcquireMintsTokenAndSetsNX(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb)

	mock.Regexp().ExpectSetNX("seat:7:A1", hexToken, TTL).SetVal(true)

	token, err := m.Acquire(context.Background(), 7, "A1")
	require.NoError(t, err)
	assert.Regexp(t, hexToken, token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireConflictWhenKeyExists(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb)

	mock.Regexp().ExpectSetNX("seat:7:A1", hexToken, TTL).SetVal(false)

	_, err := m.Acquire(context.Background(), 7, "A1")
	assert.ErrorIs(t, err, ErrAlreadyLocked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAcquireMintsFreshTokenPerCall(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb)

	mock.Regexp().ExpectSetNX("seat:7:A1", hexToken, TTL).SetVal(true)
	mock.Regexp().ExpectSetNX("seat:7:A2", hexToken, TTL).SetVal(true)

	t1, err := m.Acquire(context.Background(), 7, "A1")
	require.NoError(t, err)
	t2, err := m.Acquire(context.Background(), 7, "A2")
	require.NoError(t, err)
	assert.NotEqual(t, t1, t2)
}

func TestReleaseByOwnerDeletesKey(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb)

	mock.ExpectGet("seat:7:A1").SetVal("tok-1")
	mock.ExpectDel("seat:7:A1").SetVal(1)

	require.NoError(t, m.Release(context.Background(), 7, "A1", "tok-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseByNonOwnerIsNoop(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb)

	// No Del expected: a foreign token must never delete the holder's lock.
	mock.ExpectGet("seat:7:A1").SetVal("someone-elses-token")

	require.NoError(t, m.Release(context.Background(), 7, "A1", "tok-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseOfAbsentKeyIsNoop(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb)

	mock.ExpectGet("seat:7:A1").RedisNil()

	require.NoError(t, m.Release(context.Background(), 7, "A1", "tok-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldersProbesAllSeatsInOneCall(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb)

	mock.ExpectMGet("seat:7:A1", "seat:7:B2", "seat:7:C3").
		SetVal([]interface{}{"tok-1", nil, "tok-3"})

	held, err := m.Holders(context.Background(), 7, []string{"A1", "B2", "C3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"A1": "tok-1", "C3": "tok-3"}, held)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHoldersWithNoSeatsSkipsTheStore(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb)

	held, err := m.Holders(context.Background(), 7, nil)
	require.NoError(t, err)
	assert.Empty(t, held)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHolder(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	m := NewManager(rdb)

	mock.ExpectGet("seat:7:A1").SetVal("tok-1")
	holder, err := m.Holder(context.Background(), 7, "A1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", holder)

	mock.ExpectGet("seat:7:B2").RedisNil()
	holder, err = m.Holder(context.Background(), 7, "B2")
	require.NoError(t, err)
	assert.Empty(t, holder)
}
