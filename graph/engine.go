package graph

import (
	"time"

	"github.com/google/uuid"

	"github.com/kinship-app/kinshipbackend/models"
	"github.com/kinship-app/kinshipbackend/repository"
)

// Default window for GetLimitedGraph: four generations in either direction,
// with collateral lines (aunts, uncles) shown but not expanded past the focal
// person's own generation.
const (
	DefaultMaxDistance          = 4
	DefaultSiblingDescentCutoff = -1
)

// Engine implements the family-graph mutation and traversal operations on top
// of a PersonStore. It holds no state of its own; every operation is scoped to
// the request that invoked it.
type Engine struct {
	store repository.PersonStoreInterface

	// product constants for GetLimitedGraph
	MaxDistance          int
	SiblingDescentCutoff int

	// overridable for tests
	now   func() time.Time
	newID func() string
}

// NewEngine creates an Engine with the default traversal window.
func NewEngine(store repository.PersonStoreInterface) *Engine {
	return &Engine{
		store:                store,
		MaxDistance:          DefaultMaxDistance,
		SiblingDescentCutoff: DefaultSiblingDescentCutoff,
		now:                  time.Now,
		newID:                uuid.NewString,
	}
}

// newPerson builds an unconnected person record. Ids are minted fresh on every
// call so a retried transaction never reuses an id from a failed attempt.
func (e *Engine) newPerson(seed models.Profile, addedBy string) *models.Person {
	return &models.Person{
		ID:        e.newID(),
		Parents:   []string{},
		Spouses:   []string{},
		Children:  []string{},
		AddedBy:   addedBy,
		CreatedAt: e.now().Unix(),
		Profile:   seed,
	}
}

// MutationResult reports everything a committed mutation touched so callers
// can project the affected records into responses without a second read.
type MutationResult struct {
	NewPersonID string          `json:"new_person_id,omitempty"`
	Affected    []models.Person `json:"affected"`
}
