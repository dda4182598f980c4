package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvWizard/internal/generator"
	"cvWizard/internal/wizard"
)

var created = time.Date(2026, time.October, 16, 10, 0, 0, 0, time.UTC)

func populatedState(t *testing.T) *State {
	t.Helper()
	s := NewState("sid-1", created)
	s.Gate.Authenticated = true
	s.Gate.FailedAttempts = 0
	require.NoError(t, s.Wizard.Submit(wizard.BasicInput{
		Name: "Jane Doe", Phone: "5551234", BirthDate: "1990-03-05", MaritalStatus: "Single",
	}, created))
	s.Wizard.Artifact = &generator.Artifact{Filename: "Jane-Doe-5551234.pdf", Content: []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff}}
	return s
}

func assertSameState(t *testing.T, want, got *State) {
	t.Helper()
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Gate, got.Gate)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, want.Wizard.Step, got.Wizard.Step)
	assert.Equal(t, want.Wizard.Draft.Person.Name, got.Wizard.Draft.Person.Name)
	require.NotNil(t, got.Wizard.Artifact)
	assert.Equal(t, want.Wizard.Artifact.Content, got.Wizard.Artifact.Content)
}

func newRedisStore(t *testing.T, ttl time.Duration) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl), mr
}

func TestRedisStore_SaveLoadDelete(t *testing.T) {
	store, mr := newRedisStore(t, time.Hour)
	ctx := context.Background()

	_, err := store.Load(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrNotFound)

	want := populatedState(t)
	require.NoError(t, store.Save(ctx, want))
	assert.True(t, mr.Exists("cv_session:sid-1"))
	assert.Equal(t, time.Hour, mr.TTL("cv_session:sid-1"))

	got, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assertSameState(t, want, got)

	require.NoError(t, store.Delete(ctx, "sid-1"))
	_, err = store.Load(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_Expiry(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, NewState("sid-2", created)))

	mr.FastForward(2 * time.Minute)
	_, err := store.Load(ctx, "sid-2")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStore_CorruptPayload(t *testing.T) {
	store, mr := newRedisStore(t, time.Minute)
	require.NoError(t, mr.Set("cv_session:bad", "{not json"))

	_, err := store.Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	clock := created
	store.now = func() time.Time { return clock }
	ctx := context.Background()

	want := populatedState(t)
	require.NoError(t, store.Save(ctx, want))

	got, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assertSameState(t, want, got)

	// 返回的是副本
	got.Gate.Authenticated = false
	again, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.True(t, again.Gate.Authenticated)

	clock = clock.Add(2 * time.Minute)
	_, err = store.Load(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Save(ctx, want))
	require.NoError(t, store.Delete(ctx, "sid-1"))
	_, err = store.Load(ctx, "sid-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestState_Clear(t *testing.T) {
	s := populatedState(t)
	s.Clear()
	assert.Equal(t, "sid-1", s.ID)
	assert.False(t, s.Gate.Authenticated)
	assert.Equal(t, wizard.New(), s.Wizard)
}
