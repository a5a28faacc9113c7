package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kinship-app/kinshipbackend/models"
	"github.com/kinship-app/kinshipbackend/repository"
)

func newTestEngine(t *testing.T) (*Engine, *repository.PersonStore) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Person{}))

	store := repository.NewPersonStore(db)
	return NewEngine(store), store
}

// insertPerson writes a person directly, bypassing the engine, for tests that
// need a specific preexisting graph shape.
func insertPerson(t *testing.T, store *repository.PersonStore, person *models.Person) {
	t.Helper()
	if person.Parents == nil {
		person.Parents = []string{}
	}
	if person.Spouses == nil {
		person.Spouses = []string{}
	}
	if person.Children == nil {
		person.Children = []string{}
	}
	if person.AddedBy == "" {
		person.AddedBy = "test-account"
	}
	person.Version = 1
	require.NoError(t, store.DB.Create(person).Error)
}

func mustGet(t *testing.T, store *repository.PersonStore, id string) *models.Person {
	t.Helper()
	person, err := store.Get(context.Background(), id)
	require.NoError(t, err)
	return person
}

func countPeople(t *testing.T, store *repository.PersonStore) int64 {
	t.Helper()
	var count int64
	require.NoError(t, store.DB.Model(&models.Person{}).Count(&count).Error)
	return count
}
