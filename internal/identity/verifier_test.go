package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/train-ticket-booking/internal/model"
	"github.com/iliyamo/train-ticket-booking/internal/utils"
)

const testSecret = "test-secret"

// fakeUserStore returns its user for any id and records the lookup.
type fakeUserStore struct {
	user     *model.User
	err      error
	lookedUp uint64
}

func (f *fakeUserStore) GetByID(_ context.Context, id uint64) (*model.User, error) {
	f.lookedUp = id
	return f.user, f.err
}

func TestVerifyResolvesIssuedToken(t *testing.T) {
	store := &fakeUserStore{user: &model.User{ID: 42, Username: "rider", Email: "rider@example.com"}}
	v := NewLocalVerifier(testSecret, store)

	tok, err := utils.NewAccessToken(testSecret, 42, 15)
	require.NoError(t, err)

	u, err := v.Verify(context.Background(), tok.Token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, u.ID)
	assert.Equal(t, "rider", u.Username)
	assert.EqualValues(t, 42, store.lookedUp)
}

func TestVerifyKeepsLargeUserIDsExact(t *testing.T) {
	// An id above 2^53 would be rounded if the subject went through a
	// float64; the decimal-string claim must survive exactly.
	const bigID = uint64(1<<53 + 3)
	store := &fakeUserStore{user: &model.User{ID: bigID, Username: "rider"}}
	v := NewLocalVerifier(testSecret, store)

	tok, err := utils.NewAccessToken(testSecret, bigID, 15)
	require.NoError(t, err)

	u, err := v.Verify(context.Background(), tok.Token)
	require.NoError(t, err)
	assert.Equal(t, bigID, u.ID)
	assert.Equal(t, bigID, store.lookedUp)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	v := NewLocalVerifier(testSecret, &fakeUserStore{})

	tok, err := utils.NewAccessToken("some-other-secret", 42, 15)
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), tok.Token)
	assert.ErrorIs(t, err, ErrVerify)
}

func TestVerifyRejectsGarbageToken(t *testing.T) {
	v := NewLocalVerifier(testSecret, &fakeUserStore{})
	_, err := v.Verify(context.Background(), "not-a-jwt")
	assert.ErrorIs(t, err, ErrVerify)
}
