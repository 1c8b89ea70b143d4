package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/bnema/voicepool/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const musicKey = "voicepool/sessions/music/token"

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	for _, key := range []string{"", "   ", "/absolute/path", "../escape", "voicepool/../../secret", "voicepool//token", "voicepool/.hidden"} {
		t.Run(key, func(t *testing.T) {
			t.Parallel()

			err := store.Put(context.Background(), key, "value")
			require.ErrorIs(t, err, ErrInvalidKey)
		})
	}
}

func TestStorePutGetRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)

	require.NoError(t, store.Put(context.Background(), musicKey, "  bot-token-music \n"))

	got, err := store.Get(context.Background(), musicKey)
	require.NoError(t, err)
	assert.Equal(t, "bot-token-music", got)

	info, err := os.Stat(filepath.Join(root, "voicepool", "sessions", "music", "token"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(tokenFileMode), info.Mode().Perm())

	leftovers, err := filepath.Glob(filepath.Join(root, "voicepool", "sessions", "music", ".token-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestStorePutRejectsUnusableTokens(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())

	require.ErrorIs(t, store.Put(context.Background(), musicKey, "line-one\nline-two"), ErrMultilineToken)
	require.ErrorContains(t, store.Put(context.Background(), musicKey, "   "), "is empty")
}

func TestStoreGetMissingOrBlankTokenReturnsNotFound(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store := NewStore(root)

	_, err := store.Get(context.Background(), "voicepool/sessions/absent/token")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)

	blank := filepath.Join(root, "voicepool", "blank")
	require.NoError(t, os.MkdirAll(filepath.Dir(blank), 0o700))
	require.NoError(t, os.WriteFile(blank, []byte("\n"), 0o600))
	_, err = store.Get(context.Background(), "voicepool/blank")
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}

func TestStoreDeleteIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewStore(t.TempDir())
	require.NoError(t, store.Put(context.Background(), musicKey, "bot-token-music"))

	require.NoError(t, store.Delete(context.Background(), musicKey))
	require.NoError(t, store.Delete(context.Background(), musicKey))

	_, err := store.Get(context.Background(), musicKey)
	require.ErrorIs(t, err, domain.ErrSecretNotFound)
}
