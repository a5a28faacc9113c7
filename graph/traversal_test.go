package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinship-app/kinshipbackend/models"
	"github.com/kinship-app/kinshipbackend/repository"
)

func resultIDs(people []models.Person) []string {
	ids := make([]string, 0, len(people))
	for _, p := range people {
		ids = append(ids, p.ID)
	}
	return ids
}

// insertAncestorChain builds depth generations of couples above the focal
// person: focal's parents are p1/q1, p1's parents are p2/q2, and so on.
func insertAncestorChain(t *testing.T, store *repository.PersonStore, focalID string, depth int) {
	t.Helper()
	childID := focalID
	insertPerson(t, store, &models.Person{
		ID:      focalID,
		Parents: []string{"p1", "q1"},
	})
	for i := 1; i <= depth; i++ {
		p := &models.Person{
			ID:       fmt.Sprintf("p%d", i),
			Spouses:  []string{fmt.Sprintf("q%d", i)},
			Children: []string{childID},
		}
		q := &models.Person{
			ID:       fmt.Sprintf("q%d", i),
			Spouses:  []string{fmt.Sprintf("p%d", i)},
			Children: []string{childID},
		}
		if i < depth {
			p.Parents = []string{fmt.Sprintf("p%d", i+1), fmt.Sprintf("q%d", i+1)}
		}
		insertPerson(t, store, p)
		insertPerson(t, store, q)
		childID = p.ID
	}
}

func TestTraversalBoundedByMaxDistance(t *testing.T) {
	engine, store := newTestEngine(t)
	insertAncestorChain(t, store, "focal", 5)

	people, err := engine.FetchUpToDistance(context.Background(), "focal", 2, DefaultSiblingDescentCutoff)
	require.NoError(t, err)

	ids := resultIDs(people)
	assert.ElementsMatch(t, []string{"focal", "p1", "q1", "p2", "q2"}, ids)
	assert.NotContains(t, ids, "p3", "no person beyond maxDistance generations may appear")
}

func TestTraversalSpouseFamilyNotPulledIn(t *testing.T) {
	engine, store := newTestEngine(t)

	insertPerson(t, store, &models.Person{ID: "focal", Spouses: []string{"spouse"}})
	insertPerson(t, store, &models.Person{
		ID:      "spouse",
		Spouses: []string{"focal"},
		Parents: []string{"in-law-1", "in-law-2"},
	})
	insertPerson(t, store, &models.Person{ID: "in-law-1", Children: []string{"spouse"}})
	insertPerson(t, store, &models.Person{ID: "in-law-2", Children: []string{"spouse"}})

	people, err := engine.GetLimitedGraph(context.Background(), "focal")
	require.NoError(t, err)

	ids := resultIDs(people)
	assert.ElementsMatch(t, []string{"focal", "spouse"}, ids)
}

func insertCollateralFixture(t *testing.T, store *repository.PersonStore) {
	t.Helper()
	insertPerson(t, store, &models.Person{ID: "focal", Parents: []string{"pa", "ma"}})
	insertPerson(t, store, &models.Person{ID: "pa", Spouses: []string{"ma"}, Parents: []string{"gp", "gm"}, Children: []string{"focal"}})
	insertPerson(t, store, &models.Person{ID: "ma", Spouses: []string{"pa"}, Children: []string{"focal"}})
	insertPerson(t, store, &models.Person{ID: "gp", Spouses: []string{"gm"}, Children: []string{"pa", "uncle"}})
	insertPerson(t, store, &models.Person{ID: "gm", Spouses: []string{"gp"}, Children: []string{"pa", "uncle"}})
	insertPerson(t, store, &models.Person{
		ID:       "uncle",
		Parents:  []string{"gp", "gm"},
		Spouses:  []string{"aunt"},
		Children: []string{"cousin"},
	})
	insertPerson(t, store, &models.Person{ID: "aunt", Spouses: []string{"uncle"}, Children: []string{"cousin"}})
	insertPerson(t, store, &models.Person{ID: "cousin", Parents: []string{"uncle", "aunt"}})
}

func TestTraversalSiblingDescentCutoff(t *testing.T) {
	engine, store := newTestEngine(t)
	insertCollateralFixture(t, store)

	// cutoff -1: the uncle (enqueued from a level -2 node) is shown as a leaf;
	// his spouse still appears, his descendants do not
	people, err := engine.FetchUpToDistance(context.Background(), "focal", 3, -1)
	require.NoError(t, err)
	ids := resultIDs(people)
	assert.Contains(t, ids, "uncle")
	assert.Contains(t, ids, "aunt")
	assert.NotContains(t, ids, "cousin")

	// cutoff -2 widens the window to include the uncle's line
	people, err = engine.FetchUpToDistance(context.Background(), "focal", 3, -2)
	require.NoError(t, err)
	ids = resultIDs(people)
	assert.Contains(t, ids, "cousin")
}

func TestTraversalFocalNotFound(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.GetLimitedGraph(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrPersonNotFound)
}

func TestTraversalSkipsDanglingReferences(t *testing.T) {
	engine, store := newTestEngine(t)

	// a child reference to a record that no longer exists is tolerated
	insertPerson(t, store, &models.Person{ID: "focal", Children: []string{"ghost", "real"}})
	insertPerson(t, store, &models.Person{ID: "real", Parents: []string{"focal", "other"}})
	insertPerson(t, store, &models.Person{ID: "other", Children: []string{"real"}})

	people, err := engine.GetLimitedGraph(context.Background(), "focal")
	require.NoError(t, err)

	ids := resultIDs(people)
	assert.Contains(t, ids, "real")
	assert.NotContains(t, ids, "ghost")
}
