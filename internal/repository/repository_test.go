package repository

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"natours/internal/model"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	return gdb, mock
}

func TestParseQuery(t *testing.T) {
	values, err := url.ParseQuery("duration[gte]=5&difficulty=easy&price[lt]=1500&secretTour=true&sort=-ratingsAverage,price,bogus&fields=name,price,password&page=2&limit=5")
	require.NoError(t, err)

	q := ParseQuery(values, TourColumns)

	assert.ElementsMatch(t, []Filter{
		{Column: "duration", Op: ">=", Value: "5"},
		{Column: "difficulty", Op: "=", Value: "easy"},
		{Column: "price", Op: "<", Value: "1500"},
	}, q.Filters)

	require.Len(t, q.Sort, 2)
	assert.Equal(t, "ratings_average", q.Sort[0].Column.Name)
	assert.True(t, q.Sort[0].Desc)
	assert.Equal(t, "price", q.Sort[1].Column.Name)
	assert.False(t, q.Sort[1].Desc)

	assert.Equal(t, []string{"name", "price"}, q.Fields)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 5, q.Limit)
}

func TestParseQuery_Defaults(t *testing.T) {
	q := ParseQuery(url.Values{"page": {"-1"}, "limit": {"x"}}, TourColumns)

	assert.Empty(t, q.Filters)
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 100, q.Limit)
	require.Len(t, q.Sort, 1)
	assert.Equal(t, "created_at", q.Sort[0].Column.Name)
	assert.True(t, q.Sort[0].Desc)
}

func TestUserRepository_FindByEmail_AppliesActiveScope(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)
	id := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "name", "email", "role", "password", "active"}).
		AddRow(id.String(), "Ann", "a@example.com", "user", "$2a$12$hash", true)
	mock.ExpectQuery("SELECT \\* FROM `users` WHERE (email = \\? AND active = \\?|active = \\? AND email = \\?)").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "  A@Example.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByResetToken(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)

	mock.ExpectQuery("SELECT \\* FROM `users` WHERE .*password_reset_token = \\? AND password_reset_expires > \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindByResetToken(context.Background(), "deadbeef", time.Now())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Deactivate(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `users` SET `active`=\\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Deactivate(context.Background(), uuid.New()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_DeleteMissing(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewUserRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `users` WHERE id = \\?").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_CreateRecalculatesRatings(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewReviewRepository(gdb)
	tourID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `reviews`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS quantity, COALESCE\\(AVG\\(rating\\), 0\\) AS average FROM `reviews` WHERE tour_id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"quantity", "average"}).AddRow(3, 4.3333))
	mock.ExpectExec("UPDATE `tours` SET `ratings_average`=\\?,`ratings_quantity`=\\?").
		WithArgs(4.3, 3, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	review := &model.Review{Review: "Amazing!", Rating: 5, TourID: tourID, UserID: uuid.New()}
	require.NoError(t, repo.Create(context.Background(), review))
	assert.NotEqual(t, uuid.Nil, review.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_DeleteLastReviewResetsRatings(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewReviewRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `reviews` WHERE id = \\?").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) AS quantity").
		WillReturnRows(sqlmock.NewRows([]string{"quantity", "average"}).AddRow(0, 0))
	mock.ExpectExec("UPDATE `tours` SET `ratings_average`=\\?,`ratings_quantity`=\\?").
		WithArgs(model.DefaultRatingsAverage, 0, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), &model.Review{ID: uuid.New(), TourID: uuid.New()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTourRepository_Stats(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewTourRepository(gdb)

	rows := sqlmock.NewRows([]string{"difficulty", "num_tours", "num_ratings", "avg_rating", "avg_price", "min_price", "max_price"}).
		AddRow("EASY", 4, 132, 4.7, 1272, 397, 1997).
		AddRow("MEDIUM", 3, 70, 4.8, 1663.67, 497, 2997)
	mock.ExpectQuery("(?s)SELECT UPPER\\(difficulty\\) AS difficulty.*FROM `tours` WHERE .*ratings_average >= \\?.*GROUP BY `difficulty` ORDER BY avg_price").
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background(), 4.5)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "EASY", stats[0].Difficulty)
	assert.Equal(t, 4, stats[0].NumTours)
	assert.Equal(t, 1663.67, stats[1].AvgPrice)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepository_ListByUser(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewBookingRepository(gdb)
	userID, tourID := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT \\* FROM `bookings` WHERE user_id = \\? ORDER BY created_at DESC").
		WillReturnRows(sqlmock.NewRows([]string{"id", "tour_id", "user_id", "price", "paid"}).
			AddRow(uuid.NewString(), tourID.String(), userID.String(), "497.00", true))

	bookings, err := repo.ListByUser(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, tourID, bookings[0].TourID)
	assert.Equal(t, "497", bookings[0].Price.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
