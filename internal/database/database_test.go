package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitDB_CreatesTables(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err, "InitDB should not return an error")
	defer teardown()

	for _, table := range []string{
		"players", "player_ratings", "matches", "match_participants", "rating_history",
		"pending_matches", "pending_confirmations", "seasons", "season_standings",
	} {
		var name string
		err = db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}

	var fk int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk, "foreign keys should be enforced")
}

func TestInitDB_FileIsMigratedOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ladder.db")

	db, teardown, err := InitDB(path, "", "")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO players (id, league_id, name, created_at) VALUES ('p1', 'l1', 'Ana', 0)")
	require.NoError(t, err)
	teardown()

	db, teardown, err = InitDB(path, "", "")
	require.NoError(t, err, "re-opening should skip applied migrations")
	defer teardown()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM players").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestInTx(t *testing.T) {
	db, teardown, err := InitDB(":memory:", "", "")
	require.NoError(t, err)
	defer teardown()
	ctx := context.Background()

	insert := func(tx DBTX, id string) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO players (id, league_id, name, created_at) VALUES (?, 'l1', ?, 0)", id, id)
		return err
	}
	count := func() int {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM players").Scan(&n))
		return n
	}

	t.Run("commits on success", func(t *testing.T) {
		err := InTx(ctx, db, func(tx DBTX) error {
			return insert(tx, "a")
		})
		require.NoError(t, err)
		assert.Equal(t, 1, count())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := InTx(ctx, db, func(tx DBTX) error {
			require.NoError(t, insert(tx, "b"))
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, count())
	})

	t.Run("joins an outer transaction", func(t *testing.T) {
		tx, err := db.BeginTx(ctx, nil)
		require.NoError(t, err)
		require.NoError(t, InTx(ctx, tx, func(inner DBTX) error {
			assert.Same(t, tx, inner)
			return insert(inner, "c")
		}))
		require.NoError(t, tx.Rollback())
		assert.Equal(t, 1, count())
	})
}
