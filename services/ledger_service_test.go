package services

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"game-lobby-system/models"
)

func dockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

// setupTestDB starts a PostgreSQL container, opens gorm against it and runs
// the service's migrations. Skips when Docker is unavailable.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if !dockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("lobbytest"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(ctx) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Profile{},
		&models.Game{},
		&models.GameParticipant{},
		&models.Transaction{},
	))
	return db
}

func transactionSum(t *testing.T, db *gorm.DB, userID string) int64 {
	t.Helper()
	var sum int64
	err := db.Model(&models.Transaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	require.NoError(t, err)
	return sum
}

func loadProfile(t *testing.T, db *gorm.DB, userID string) models.Profile {
	t.Helper()
	var p models.Profile
	require.NoError(t, db.Where("user_id = ?", userID).First(&p).Error)
	return p
}

func TestDeductGamePoints_InsufficientBalanceLeavesBalanceUntouched(t *testing.T) {
	db := setupTestDB(t)
	profiles := NewProfileService(db)

	p, isNew, err := profiles.EnsureProfile("user-1", "alice")
	require.NoError(t, err)
	require.True(t, isNew)
	require.Equal(t, models.SignupBonus, p.PointsBalance)

	err = db.Transaction(func(tx *gorm.DB) error {
		return DeductGamePoints(tx, "user-1", nil, models.SignupBonus+1,
			models.TransactionTypeGameBet, "over-stake")
	})
	require.ErrorIs(t, err, ErrInsufficientBalance)

	after := loadProfile(t, db, "user-1")
	assert.Equal(t, models.SignupBonus, after.PointsBalance)

	var bets int64
	require.NoError(t, db.Model(&models.Transaction{}).
		Where("user_id = ? AND type = ?", "user-1", models.TransactionTypeGameBet).
		Count(&bets).Error)
	assert.Zero(t, bets, "failed deduct must not append a ledger row")
}

func TestLedger_BalanceEqualsSignupBonusPlusTransactionSum(t *testing.T) {
	db := setupTestDB(t)
	profiles := NewProfileService(db)

	_, _, err := profiles.EnsureProfile("user-1", "alice")
	require.NoError(t, err)

	gameID := "c0ffee00-0000-4000-8000-000000000001"

	// A full play sequence: bet, win double, bet again, lose.
	err = db.Transaction(func(tx *gorm.DB) error {
		return DeductGamePoints(tx, "user-1", &gameID, 300, models.TransactionTypeGameBet, "bet")
	})
	require.NoError(t, err)
	err = db.Transaction(func(tx *gorm.DB) error {
		return RewardGamePoints(tx, "user-1", &gameID, 600, OutcomeWin, "win")
	})
	require.NoError(t, err)
	err = db.Transaction(func(tx *gorm.DB) error {
		return DeductGamePoints(tx, "user-1", &gameID, 200, models.TransactionTypeGameBet, "bet")
	})
	require.NoError(t, err)
	err = db.Transaction(func(tx *gorm.DB) error {
		return HandleGameLoss(tx, "user-1", &gameID, "loss")
	})
	require.NoError(t, err)

	after := loadProfile(t, db, "user-1")
	// 1000 - 300 + 600 - 200 + 0
	assert.Equal(t, int64(1100), after.PointsBalance)
	assert.Equal(t, 2, after.TotalGamesPlayed)
	assert.Equal(t, 1, after.TotalGamesWon)

	// The signup bonus is itself a ledger row, so the signed sum of all rows
	// is the balance; equivalently, bonus + sum of game rows.
	assert.Equal(t, after.PointsBalance, transactionSum(t, db, "user-1"))

	var lossRow models.Transaction
	require.NoError(t, db.Where("user_id = ? AND type = ?", "user-1", models.TransactionTypeGameLoss).
		First(&lossRow).Error)
	assert.Zero(t, lossRow.Amount)
}

func TestRewardGamePoints_DrawDoesNotCountAsWin(t *testing.T) {
	db := setupTestDB(t)
	profiles := NewProfileService(db)

	_, _, err := profiles.EnsureProfile("user-1", "alice")
	require.NoError(t, err)

	err = db.Transaction(func(tx *gorm.DB) error {
		return RewardGamePoints(tx, "user-1", nil, 100, OutcomeDraw, "draw refund")
	})
	require.NoError(t, err)

	after := loadProfile(t, db, "user-1")
	assert.Equal(t, 1, after.TotalGamesPlayed)
	assert.Zero(t, after.TotalGamesWon)
	assert.Equal(t, after.PointsBalance, transactionSum(t, db, "user-1"))
}
