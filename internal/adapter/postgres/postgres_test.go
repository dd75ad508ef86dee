package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"healthrisk/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return New(sqlDB), mock
}

func TestGetByUsername_Found(t *testing.T) {
	db, mock := setupMockDB(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, username, password_hash, created_at FROM users WHERE username = $1")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
			AddRow(int64(7), "alice", "hash", created))

	u, err := db.GetByUsername(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, int64(7), u.ID)
	assert.Equal(t, "hash", u.PasswordHash)
	assert.Equal(t, created, u.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_NotFound(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT id, username").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}))

	u, err := db.GetByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, u)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_UniqueViolation(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("alice", "hash", sqlmock.AnyArg()).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	u, err := db.Create(context.Background(), "alice", "hash")
	assert.Nil(t, u)
	assert.True(t, errors.Is(err, domain.ErrUserExists))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("bob", "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "created_at"}).
			AddRow(int64(1), "bob", "", now))

	u, err := db.Create(context.Background(), "bob", "")
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_RoundTrip(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewSessionRepo(db)
	ctx := context.Background()
	expires := time.Now().Add(time.Hour).UTC()

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("tok", int64(3), "agent", "10.0.0.1", expires, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Create(ctx, 3, "tok", "agent", "10.0.0.1", expires))

	mock.ExpectQuery("SELECT token, user_id, user_agent, ip, expires_at, created_at FROM sessions").
		WithArgs("tok").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_id", "user_agent", "ip", "expires_at", "created_at"}).
			AddRow("tok", int64(3), "agent", "10.0.0.1", expires, time.Now()))
	s, err := repo.GetByToken(ctx, "tok")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "agent", s.UserAgent)
	assert.Equal(t, int64(3), s.UserID)

	mock.ExpectExec("DELETE FROM sessions WHERE expires_at").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))
	require.NoError(t, repo.DeleteExpired(ctx))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepo_GetByTokenMissing(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("SELECT token").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"token", "user_id", "user_agent", "ip", "expires_at", "created_at"}))

	s, err := NewSessionRepo(db).GetByToken(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, s)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPrediction(t *testing.T) {
	db, mock := setupMockDB(t)
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO predictions").
		WithArgs(int64(5), "diabetes", "High", 0.99, domain.MethodHeuristic, at).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	id, err := db.AddPrediction(context.Background(), domain.PredictionRecord{
		UserID:    5,
		Condition: domain.Diabetes,
		Tier:      domain.TierHigh,
		Score:     0.99,
		Method:    domain.MethodHeuristic,
		CreatedAt: at,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddPrediction_Error(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("INSERT INTO predictions").WillReturnError(errors.New("connection reset"))

	_, err := db.AddPrediction(context.Background(), domain.PredictionRecord{UserID: 1, Condition: domain.Diabetes})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert prediction")
}

func TestListRecentPredictions(t *testing.T) {
	db, mock := setupMockDB(t)
	newer := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM predictions WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2")).
		WithArgs(int64(5), 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "condition", "risk_level", "risk_score", "method", "created_at"}).
			AddRow(int64(2), int64(5), "hypertension", "Medium", 0.45, "heuristic", newer).
			AddRow(int64(1), int64(5), "diabetes", "Low", 0.1, "model", older))

	recs, err := db.ListRecentPredictions(context.Background(), 5, 20)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, domain.Hypertension, recs[0].Condition)
	assert.Equal(t, domain.TierMedium, recs[0].Tier)
	assert.Equal(t, domain.MethodModel, recs[1].Method)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecentPredictions_RejectsUnknownTier(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("FROM predictions").
		WithArgs(int64(5), 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "condition", "risk_level", "risk_score", "method", "created_at"}).
			AddRow(int64(4), int64(5), "diabetes", "Critical", 0.9, "heuristic", time.Now()))

	_, err := db.ListRecentPredictions(context.Background(), 5, 20)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid risk tier")
}

func TestListRecentPredictions_RejectsUnknownCondition(t *testing.T) {
	db, mock := setupMockDB(t)

	mock.ExpectQuery("FROM predictions").
		WithArgs(int64(5), 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "condition", "risk_level", "risk_score", "method", "created_at"}).
			AddRow(int64(4), int64(5), "cancer", "High", 0.9, "heuristic", time.Now()))

	_, err := db.ListRecentPredictions(context.Background(), 5, 20)
	var uerr *domain.UnsupportedConditionError
	assert.True(t, errors.As(err, &uerr))
}

func TestPing(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() { _ = sqlDB.Close() }()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	assert.Error(t, New(sqlDB).Ping(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
