package session_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/holden/retroboard/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawTokenCodec(t *testing.T) {
	codec := session.RawTokenCodec{}

	t.Run("round trip", func(t *testing.T) {
		id := uuid.New()

		token, err := codec.Encode(id)
		require.NoError(t, err)
		assert.Equal(t, id.String(), token)

		decoded, err := codec.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	})

	t.Run("rejects non-uuid token", func(t *testing.T) {
		_, err := codec.Decode("not-a-uuid")
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("rejects empty token", func(t *testing.T) {
		_, err := codec.Decode("")
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})
}

func TestSignedTokenCodec(t *testing.T) {
	codec := session.NewSignedTokenCodec("test-secret", time.Hour)

	t.Run("round trip", func(t *testing.T) {
		id := uuid.New()

		token, err := codec.Encode(id)
		require.NoError(t, err)
		assert.NotEqual(t, id.String(), token)

		decoded, err := codec.Decode(token)
		require.NoError(t, err)
		assert.Equal(t, id, decoded)
	})

	t.Run("rejects expired token", func(t *testing.T) {
		expired := session.NewSignedTokenCodec("test-secret", -time.Minute)

		token, err := expired.Encode(uuid.New())
		require.NoError(t, err)

		_, err = codec.Decode(token)
		assert.ErrorIs(t, err, session.ErrExpiredToken)
	})

	t.Run("rejects token signed with different secret", func(t *testing.T) {
		other := session.NewSignedTokenCodec("other-secret", time.Hour)

		token, err := other.Encode(uuid.New())
		require.NoError(t, err)

		_, err = codec.Decode(token)
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("rejects tampered token", func(t *testing.T) {
		token, err := codec.Encode(uuid.New())
		require.NoError(t, err)

		_, err = codec.Decode(token + "x")
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})

	t.Run("rejects raw session id", func(t *testing.T) {
		_, err := codec.Decode(uuid.New().String())
		assert.ErrorIs(t, err, session.ErrInvalidToken)
	})
}

func TestNewTokenCodec(t *testing.T) {
	t.Run("signed scheme", func(t *testing.T) {
		codec := session.NewTokenCodec("signed", "secret", time.Hour)
		_, ok := codec.(*session.SignedTokenCodec)
		assert.True(t, ok)
	})

	t.Run("raw scheme", func(t *testing.T) {
		codec := session.NewTokenCodec("raw", "", 0)
		_, ok := codec.(session.RawTokenCodec)
		assert.True(t, ok)
	})

	t.Run("unknown scheme falls back to raw", func(t *testing.T) {
		codec := session.NewTokenCodec("something-else", "", 0)
		_, ok := codec.(session.RawTokenCodec)
		assert.True(t, ok)
	})
}
