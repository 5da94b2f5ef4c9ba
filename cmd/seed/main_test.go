package main

import (
	"context"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLoadDataset_BuiltIn(t *testing.T) {
	fsys, err := fs.Sub(devData, "data")
	require.NoError(t, err)

	d, err := loadDataset(fsys)
	require.NoError(t, err)
	require.NotEmpty(t, d.Users)
	require.NotEmpty(t, d.Tours)
	require.NotEmpty(t, d.Reviews)

	users := map[string]bool{}
	for _, u := range d.Users {
		assert.True(t, u.Role.Valid(), "role of %s", u.Email)
		users[u.ID.String()] = true
	}
	tours := map[string]bool{}
	for _, tour := range d.Tours {
		require.NotNil(t, tour.Name)
		require.NotNil(t, tour.Guides)
		tours[tour.ID.String()] = true
		for _, g := range *tour.Guides {
			assert.True(t, users[g.String()], "guide %s of %s", g, *tour.Name)
		}
	}
	for _, r := range d.Reviews {
		assert.True(t, tours[r.Tour.String()])
		assert.True(t, users[r.User.String()])
	}
}

func TestLoadDataset_Errors(t *testing.T) {
	_, err := loadDataset(fstest.MapFS{})
	assert.Error(t, err)

	_, err = loadDataset(fstest.MapFS{
		"users.json":   {Data: []byte(`[]`)},
		"tours.json":   {Data: []byte(`{not json`)},
		"reviews.json": {Data: []byte(`[]`)},
	})
	assert.ErrorContains(t, err, "decode tours.json")
}

func TestDeleteData(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	gormDB, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	mock.ExpectBegin()
	for _, table := range []string{"bookings", "reviews", "payment_logs", "tour_guides", "tours", "users"} {
		mock.ExpectExec("DELETE FROM `?" + table + "`?").WillReturnResult(sqlmock.NewResult(0, 3))
	}
	mock.ExpectCommit()

	require.NoError(t, deleteData(context.Background(), gormDB))
	assert.NoError(t, mock.ExpectationsWereMet())
}
