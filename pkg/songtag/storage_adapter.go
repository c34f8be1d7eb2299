package songtag

import (
	"github.com/himanishpuri/songtag/pkg/models"
	"github.com/himanishpuri/songtag/pkg/songtag/storage"
)

// ErrTagNotFound is returned for an unknown history entry.
var ErrTagNotFound = storage.ErrNotFound

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage opens the tag history at dbPath.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) SaveTag(t models.Tag) (models.Tag, error) {
	return s.db.SaveTag(t)
}

func (s *storageAdapter) ListTags(q models.HistoryQuery) ([]models.Tag, error) {
	return s.db.ListTags(q)
}

func (s *storageAdapter) GetTag(id string) (models.Tag, error) {
	return s.db.GetTag(id)
}

func (s *storageAdapter) DeleteTag(id string) error {
	return s.db.DeleteTag(id)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
