package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"game-lobby-system/models"
)

func TestLobbyChanges_NewGameVisibleDespiteLowerVersion(t *testing.T) {
	db := setupTestDB(t)
	svc := NewGameStreamService(db)

	// An older game whose private version counter is well ahead.
	older := &models.Game{
		ID:        uuid.NewString(),
		GameType:  models.GameTypeTicTacToe,
		Name:      "Veteran match",
		Status:    models.GameStatusActive,
		BetAmount: 50,
		CreatorID: "user-1",
		Version:   7,
	}
	require.NoError(t, db.Create(older).Error)

	cursor := svc.initLobbyCursor()
	require.False(t, cursor.IsZero())

	time.Sleep(50 * time.Millisecond)

	// A brand-new lottery starts at version 1 — far below the older game's
	// counter, but newer in wall-clock terms.
	fresh := &models.Game{
		ID:        uuid.NewString(),
		GameType:  models.GameTypeLottery,
		Name:      "Friday pot",
		Status:    models.GameStatusWaiting,
		BetAmount: 10,
		CreatorID: "user-2",
		Version:   1,
	}
	require.NoError(t, db.Create(fresh).Error)

	changed, next, err := svc.lobbyChangesSince(cursor)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, fresh.ID, changed[0].ID)
	assert.True(t, next.After(cursor))

	// Nothing further until the next write.
	changed, next, err = svc.lobbyChangesSince(next)
	require.NoError(t, err)
	assert.Empty(t, changed)

	// A later write to the older game surfaces it again.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, db.Model(&models.Game{}).
		Where("id = ?", older.ID).
		Update("version", 8).Error)

	changed, _, err = svc.lobbyChangesSince(next)
	require.NoError(t, err)
	require.Len(t, changed, 1)
	assert.Equal(t, older.ID, changed[0].ID)
}

func TestLobbyChanges_TerminalGamesExcluded(t *testing.T) {
	db := setupTestDB(t)
	svc := NewGameStreamService(db)

	cursor := svc.initLobbyCursor()

	now := time.Now()
	done := &models.Game{
		ID:          uuid.NewString(),
		GameType:    models.GameTypePokie,
		Name:        "Finished spin",
		Status:      models.GameStatusCompleted,
		BetAmount:   5,
		CreatorID:   "user-1",
		Version:     1,
		CompletedAt: &now,
	}
	require.NoError(t, db.Create(done).Error)

	changed, _, err := svc.lobbyChangesSince(cursor)
	require.NoError(t, err)
	assert.Empty(t, changed)
}
