package repository

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/kinship-app/kinshipbackend/models"
)

var (
	// ErrPersonNotFound is returned when a referenced person id does not exist.
	ErrPersonNotFound = errors.New("person not found")
	// ErrPersonExists is returned when a create targets an id that is already taken.
	ErrPersonExists = errors.New("person already exists")
	// ErrTxConflict is returned when a transaction lost a write race and has
	// exhausted its retries. Callers may retry the whole operation.
	ErrTxConflict = errors.New("transaction conflict")
	// ErrMalformedPerson is returned when a stored record fails validation on a
	// single-record read.
	ErrMalformedPerson = errors.New("malformed person record")
)

const defaultTxMaxRetries = 3

// PersonStore handles all durable storage for Person records. It is the only
// component that touches the database; the graph engines are parameterized
// over it.
type PersonStore struct {
	DB *gorm.DB

	// MaxRetries bounds the internal retry loop for conflicting transactions.
	MaxRetries int
}

// NewPersonStore creates a new instance of PersonStore
func NewPersonStore(db *gorm.DB) *PersonStore {
	return &PersonStore{DB: db, MaxRetries: defaultTxMaxRetries}
}

// Get retrieves a single person by id. Malformed records are a hard error here,
// unlike in GetMany.
func (s *PersonStore) Get(ctx context.Context, id string) (*models.Person, error) {
	var person models.Person
	err := s.DB.WithContext(ctx).First(&person, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to get person %s: %w", id, err)
	}
	if err := person.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPerson, err)
	}
	return &person, nil
}

// GetMany retrieves the people with the given ids in one query. Ids that are
// missing or whose records fail validation are logged and skipped; a bad record
// must not abort a batch fetch.
func (s *PersonStore) GetMany(ctx context.Context, ids []string) ([]models.Person, error) {
	if len(ids) == 0 {
		return []models.Person{}, nil
	}
	var people []models.Person
	err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&people).Error
	if err != nil {
		return nil, fmt.Errorf("failed to batch get %d people: %w", len(ids), err)
	}

	valid := people[:0]
	for i := range people {
		if err := people[i].Validate(); err != nil {
			log.Printf("skipping malformed person record in batch fetch: %v", err)
			continue
		}
		valid = append(valid, people[i])
	}
	return valid, nil
}

// RunTransaction executes fn against a transaction handle. All reads observe a
// single consistent snapshot and all writes land atomically or not at all.
// Write races detected through version checks abort the transaction; the store
// retries a bounded number of times before surfacing ErrTxConflict.
func (s *PersonStore) RunTransaction(ctx context.Context, fn func(tx *Tx) error) error {
	maxRetries := s.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultTxMaxRetries
	}

	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 10 * time.Millisecond):
			}
		}

		err = s.DB.WithContext(ctx).Transaction(func(gormTx *gorm.DB) error {
			return fn(&Tx{db: gormTx, readVersions: make(map[string]int64)})
		})
		if err == nil || !errors.Is(err, ErrTxConflict) {
			return err
		}
		log.Printf("person store transaction conflict, attempt %d/%d", attempt+1, maxRetries+1)
	}
	return err
}

// Tx is the handle passed to a transaction callback. It records the version of
// every record it reads and makes all writes conditional on those versions, so
// a concurrent writer forces a conflict instead of a lost update.
type Tx struct {
	db           *gorm.DB
	readVersions map[string]int64
}

// Read fetches one person inside the transaction.
func (t *Tx) Read(id string) (*models.Person, error) {
	var person models.Person
	err := t.db.First(&person, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPersonNotFound
		}
		return nil, fmt.Errorf("failed to read person %s: %w", id, err)
	}
	if err := person.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPerson, err)
	}
	t.readVersions[person.ID] = person.Version
	return &person, nil
}

// ReadMany fetches the given people inside the transaction. Missing ids are
// omitted from the result; callers that require all ids must check the length.
func (t *Tx) ReadMany(ids []string) ([]models.Person, error) {
	if len(ids) == 0 {
		return []models.Person{}, nil
	}
	var people []models.Person
	err := t.db.Where("id IN ?", ids).Find(&people).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read %d people: %w", len(ids), err)
	}
	for i := range people {
		if err := people[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedPerson, err)
		}
		t.readVersions[people[i].ID] = people[i].Version
	}
	return people, nil
}

// Create inserts a brand-new person. The target id must not already exist;
// a collision is a constraint violation, not a retriable conflict.
func (t *Tx) Create(person *models.Person) error {
	person.Version = 1
	err := t.db.Create(person).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrPersonExists, person.ID)
		}
		return fmt.Errorf("failed to create person %s: %w", person.ID, err)
	}
	return nil
}

// Update writes the full record back, last-writer-wins on the whole document.
// The write is conditional on the version observed when the record was read in
// this transaction; zero rows affected means a concurrent writer got there
// first and the transaction must abort and retry.
func (t *Tx) Update(person *models.Person) error {
	readVersion, ok := t.readVersions[person.ID]
	if !ok {
		return fmt.Errorf("update of person %s without a prior read in this transaction", person.ID)
	}

	person.Version = readVersion + 1
	result := t.db.Model(&models.Person{}).
		Where("id = ? AND version = ?", person.ID, readVersion).
		Select("*").
		Updates(person)
	if result.Error != nil {
		return fmt.Errorf("failed to update person %s: %w", person.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTxConflict
	}
	return nil
}

// Delete removes a person record, conditional on the version observed at read
// time like Update.
func (t *Tx) Delete(id string) error {
	readVersion, ok := t.readVersions[id]
	if !ok {
		return fmt.Errorf("delete of person %s without a prior read in this transaction", id)
	}

	result := t.db.Where("id = ? AND version = ?", id, readVersion).Delete(&models.Person{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete person %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrTxConflict
	}
	return nil
}
