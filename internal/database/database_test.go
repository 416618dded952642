package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/municipal-tracker/internal/config"
	"github.com/yukikurage/municipal-tracker/internal/models"
	"github.com/yukikurage/municipal-tracker/internal/testutil"
	"github.com/yukikurage/municipal-tracker/internal/utils"
	"go.uber.org/zap"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		driver string
		want   string
	}{
		{"", "mysql"},
		{"mysql", "mysql"},
		{"postgres", "postgres"},
		{"sqlite", "sqlite"},
	}
	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.driver, func(t *testing.T) {
			d, err := Dialector(&config.Config{DBDriver: tt.driver, DBPath: "x.db", Location: time.UTC})
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}

	_, err := Dialector(&config.Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestConnectAndMigrate_Sqlite(t *testing.T) {
	cfg := &config.Config{
		DBDriver: "sqlite",
		DBPath:   filepath.Join(t.TempDir(), "tracker.db"),
		GinMode:  "release",
		Location: time.UTC,
	}
	log := zap.NewNop()

	db, err := Connect(cfg, log)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()

	require.NoError(t, Migrate(db, log))
	// A second run finds the indexes in place.
	require.NoError(t, Migrate(db, log))

	for _, idx := range compositeIndexes {
		assert.True(t, db.Migrator().HasIndex(idx.model, idx.name), idx.name)
	}
}

func TestScopes(t *testing.T) {
	db := testutil.NewDB(t)
	for day := 1; day <= 5; day++ {
		require.NoError(t, db.Create(&models.OtherActivity{
			Date:        testutil.Date(2024, 1, day),
			Description: "visit",
			CreatorID:   1,
		}).Error)
	}

	from, to := testutil.Date(2024, 1, 2), testutil.Date(2024, 1, 4)
	var inRange []models.OtherActivity
	require.NoError(t, db.Scopes(DateRange("date", &from, &to)).Order("date").Find(&inRange).Error)
	require.Len(t, inRange, 3)
	assert.True(t, from.Equal(inRange[0].Date))
	assert.True(t, to.Equal(inRange[2].Date))

	var open []models.OtherActivity
	require.NoError(t, db.Scopes(DateRange("date", nil, &from)).Find(&open).Error)
	assert.Len(t, open, 2)

	var page []models.OtherActivity
	require.NoError(t, db.Scopes(Paginate(utils.NewPaginationParams(2, 2))).Order("date").Find(&page).Error)
	require.Len(t, page, 2)
	assert.True(t, testutil.Date(2024, 1, 3).Equal(page[0].Date))
}
