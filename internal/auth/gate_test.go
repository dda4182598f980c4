package auth

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvWizard/internal/config"
)

const testKey = "open-sesame"

type failingStore struct{ err error }

func (s failingStore) StoredHash() (string, error) { return "", s.err }

func TestHashKey(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", HashKey("abc"))
}

func TestVerifyKey(t *testing.T) {
	sha := HashKey(testKey)
	assert.True(t, VerifyKey(testKey, sha))
	assert.True(t, VerifyKey(testKey, strings.ToUpper(sha)))
	assert.True(t, VerifyKey(testKey, " "+sha+"\n"))
	assert.False(t, VerifyKey("wrong", sha))
	assert.False(t, VerifyKey(testKey, ""))

	bcryptHash, err := HashKeyBcrypt(testKey)
	require.NoError(t, err)
	assert.True(t, VerifyKey(testKey, bcryptHash))
	assert.False(t, VerifyKey("wrong", bcryptHash))
}

func TestGate_CorrectSecretAuthenticatesOnce(t *testing.T) {
	fixed := time.Date(2026, time.October, 16, 8, 0, 0, 0, time.UTC)
	g := NewGate(StaticSecret(HashKey(testKey)), 3)
	g.now = func() time.Time { return fixed }

	var state GateState
	require.NoError(t, g.Submit(&state, testKey))
	assert.True(t, state.Authenticated)
	assert.Equal(t, fixed, state.AuthenticatedAt)

	// 再次提交不会改变状态
	g.now = func() time.Time { return fixed.Add(time.Hour) }
	require.NoError(t, g.Submit(&state, "anything"))
	assert.Equal(t, fixed, state.AuthenticatedAt)
}

func TestGate_WarnsAfterThreeFailuresWithoutLockout(t *testing.T) {
	g := NewGate(StaticSecret(HashKey(testKey)), 3)
	var state GateState

	for i := 1; i <= 3; i++ {
		err := g.Submit(&state, "wrong")
		assert.ErrorIs(t, err, ErrInvalidSecret)
		assert.Equal(t, i, state.FailedAttempts)
		assert.False(t, state.Authenticated)
		assert.Equal(t, i >= 3, g.ShouldWarn(state))
	}

	// 没有锁定：正确密钥仍然可以通过
	require.NoError(t, g.Submit(&state, testKey))
	assert.True(t, state.Authenticated)
	assert.Zero(t, state.FailedAttempts)
	assert.False(t, g.ShouldWarn(state))
}

func TestGate_EmptySecretNotCounted(t *testing.T) {
	g := NewGate(StaticSecret(HashKey(testKey)), 0)
	var state GateState
	assert.ErrorIs(t, g.Submit(&state, "   "), ErrEmptySecret)
	assert.Zero(t, state.FailedAttempts)
}

func TestGate_ConfigurationErrors(t *testing.T) {
	var state GateState

	g := NewGate(StaticSecret(""), 3)
	assert.ErrorIs(t, g.Submit(&state, testKey), ErrSecretNotConfigured)

	g = NewGate(failingStore{err: errors.New("disk on fire")}, 3)
	err := g.Submit(&state, testKey)
	assert.ErrorIs(t, err, ErrSecretNotConfigured)
	assert.NotErrorIs(t, err, ErrInvalidSecret)
	assert.Zero(t, state.FailedAttempts)
}

func TestGate_Logout(t *testing.T) {
	g := NewGate(StaticSecret(HashKey(testKey)), 3)
	state := GateState{FailedAttempts: 2}
	require.NoError(t, g.Submit(&state, testKey))

	g.Logout(&state)
	assert.Equal(t, GateState{}, state)
}

func TestFileSecretStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.toml")
	require.NoError(t, os.WriteFile(path, []byte("[auth]\naccess_key_hash = \""+HashKey(testKey)+"\"\n"), 0o600))

	hash, err := NewFileSecretStore(path).StoredHash()
	require.NoError(t, err)
	assert.Equal(t, HashKey(testKey), hash)

	empty := filepath.Join(dir, "empty.toml")
	require.NoError(t, os.WriteFile(empty, []byte("[other]\nkey = 1\n"), 0o600))
	_, err = NewFileSecretStore(empty).StoredHash()
	assert.ErrorIs(t, err, ErrSecretNotConfigured)

	_, err = NewFileSecretStore(filepath.Join(dir, "missing.toml")).StoredHash()
	assert.ErrorIs(t, err, ErrSecretNotConfigured)
}

func TestNewSecretStore(t *testing.T) {
	assert.IsType(t, StaticSecret(""), NewSecretStore(config.AuthConfig{AccessKeyHash: "abc"}))
	assert.IsType(t, &FileSecretStore{}, NewSecretStore(config.AuthConfig{AccessKeyHash: "abc", SecretsFile: "/etc/cv/secrets.toml"}))
}
