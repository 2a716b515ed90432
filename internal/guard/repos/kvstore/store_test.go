package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_GetMissing(t *testing.T) {
	s := openTemp(t)
	var v bool
	found, err := s.Get(context.Background(), "isEnabled", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_SetGetRoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, map[string]any{"isEnabled": false, "totalBlocked": 7}))

	var enabled bool
	found, err := s.Get(ctx, "isEnabled", &enabled)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, enabled)

	var total int
	_, err = s.Get(ctx, "totalBlocked", &total)
	require.NoError(t, err)
	assert.Equal(t, 7, total)
}

func TestStore_SubscribeReceivesChanges(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	var got []Change
	cancel := s.Subscribe(func(c []Change) { got = append(got, c...) })

	require.NoError(t, s.Set(ctx, map[string]any{"b": 1, "a": true}))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Key)
	assert.Nil(t, got[0].Old)
	assert.Equal(t, json.RawMessage("true"), got[0].New)

	// identical write produces no notification
	got = nil
	require.NoError(t, s.Set(ctx, map[string]any{"a": true}))
	assert.Empty(t, got)

	require.NoError(t, s.Set(ctx, map[string]any{"a": false}))
	require.Len(t, got, 1)
	assert.Equal(t, json.RawMessage("true"), got[0].Old)

	cancel()
	got = nil
	require.NoError(t, s.Set(ctx, map[string]any{"a": true}))
	assert.Empty(t, got)
}

func TestStore_UpdateRollsBackOnError(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	notified := false
	s.Subscribe(func([]Change) { notified = true })

	boom := errors.New("boom")
	err := s.Update(ctx, func(tx *Tx) error {
		require.NoError(t, tx.Set("k", 1))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.False(t, notified)

	var v int
	found, err := s.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStore_UpdateReadModifyWrite(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Update(ctx, func(tx *Tx) error {
			var n int
			if _, err := tx.Get("n", &n); err != nil {
				return err
			}
			return tx.Set("n", n+1)
		}))
	}
	var n int
	_, err := s.Get(ctx, "n", &n)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestStore_CanceledContext(t *testing.T) {
	s := openTemp(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Set(ctx, map[string]any{"a": 1}), context.Canceled)
	var v int
	_, err := s.Get(ctx, "a", &v)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_DecodeError(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, map[string]any{"a": "text"}))
	var v int
	found, err := s.Get(ctx, "a", &v)
	assert.True(t, found)
	assert.Error(t, err)
}

func TestStore_EmptyKeyRejected(t *testing.T) {
	s := openTemp(t)
	assert.Error(t, s.Set(context.Background(), map[string]any{"": 1}))
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), map[string]any{"silentMode": false}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	v := true
	found, err := s.Get(context.Background(), "silentMode", &v)
	require.NoError(t, err)
	assert.True(t, found)
	assert.False(t, v)
}
