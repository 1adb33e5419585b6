package storage_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevN0mad/TodoProgress/internal/storage"
)

func newStorage(t *testing.T) *storage.ChatStorage {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := storage.NewChatStorage(filepath.Join(t.TempDir(), "db", "chats.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestChatStorage_SaveAndList(t *testing.T) {
	require := require.New(t)
	assert := assert.New(t)
	ctx := context.Background()
	s := newStorage(t)

	require.NoError(s.SaveChat(ctx, 100, "team"))
	require.NoError(s.SaveChat(ctx, 200, "leads"))
	require.NoError(s.SaveChat(ctx, 100, "team renamed"))

	ids, err := s.ListChatIDs(ctx)
	require.NoError(err)
	assert.Equal([]int64{100, 200}, ids)
}

func TestChatStorage_Remove(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	s := newStorage(t)

	require.NoError(s.SaveChat(ctx, 100, "team"))
	require.NoError(s.RemoveChat(ctx, 100))
	require.NoError(s.RemoveChat(ctx, 404))

	ids, err := s.ListChatIDs(ctx)
	require.NoError(err)
	require.Empty(ids)
}

func TestChatStorage_Migrate(t *testing.T) {
	tests := map[string]struct {
		saved  []int64
		oldID  int64
		newID  int64
		expIDs []int64
	}{
		"group becomes supergroup": {
			saved:  []int64{-100},
			oldID:  -100,
			newID:  -1001234,
			expIDs: []int64{-1001234},
		},
		"supergroup already subscribed drops the old group": {
			saved:  []int64{-100, -1001234},
			oldID:  -100,
			newID:  -1001234,
			expIDs: []int64{-1001234},
		},
		"unknown group is a no-op": {
			saved:  []int64{200},
			oldID:  -100,
			newID:  -1001234,
			expIDs: []int64{200},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)
			ctx := context.Background()
			s := newStorage(t)

			for _, id := range test.saved {
				require.NoError(s.SaveChat(ctx, id, "chat"))
			}

			require.NoError(s.MigrateChat(ctx, test.oldID, test.newID))

			ids, err := s.ListChatIDs(ctx)
			require.NoError(err)
			require.Equal(test.expIDs, ids)
		})
	}
}
