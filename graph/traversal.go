package graph

import (
	"context"

	"github.com/kinship-app/kinshipbackend/models"
	"github.com/kinship-app/kinshipbackend/repository"
)

// frontierEntry is the traversal state carried per discovered node:
// which person to fetch, their signed generation offset from the focal person
// (negative = ancestor side), and whether their own parent/child edges should
// be expanded or the node is included as a traversal leaf.
type frontierEntry struct {
	id             string
	relativeLevel  int
	shouldTraverse bool
}

// FetchUpToDistance returns the bounded visible window of the graph around the
// focal person: direct ancestors and descendants out to maxDistance
// generations, every reached person's spouse, and collateral lines throttled
// by siblingDescentCutoff (children of a node below the cutoff level are
// included but not expanded further).
//
// Each wave of the search is one consistent batch read, but the traversal as a
// whole is not a single snapshot; a concurrent mutation may leave a blend of
// states in the result. Accepted for best-effort tree rendering.
func (e *Engine) FetchUpToDistance(ctx context.Context, focalID string, maxDistance, siblingDescentCutoff int) ([]models.Person, error) {
	frontier := []frontierEntry{{id: focalID, relativeLevel: 0, shouldTraverse: true}}

	visited := make(map[string]bool)
	spouseIDs := make(map[string]bool)
	bloodRelatives := map[string]bool{focalID: true}

	var out []models.Person

	for len(frontier) > 0 {
		wave := frontier
		frontier = nil

		ids := make([]string, 0, len(wave))
		for _, entry := range wave {
			if !visited[entry.id] {
				ids = append(ids, entry.id)
			}
		}
		people, err := e.store.GetMany(ctx, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[string]*models.Person, len(people))
		for i := range people {
			byID[people[i].ID] = &people[i]
		}

		for _, entry := range wave {
			person, ok := byID[entry.id]
			if !ok || visited[entry.id] {
				continue
			}
			visited[entry.id] = true
			out = append(out, *person)

			if abs(entry.relativeLevel) >= maxDistance {
				continue
			}
			// a spouse is always shown, but their own extended family is not
			// pulled in through the spouse edge
			if spouseIDs[entry.id] && !bloodRelatives[entry.id] {
				continue
			}

			if entry.shouldTraverse {
				for _, parentID := range person.Parents {
					bloodRelatives[parentID] = true
					frontier = append(frontier, frontierEntry{
						id:             parentID,
						relativeLevel:  entry.relativeLevel - 1,
						shouldTraverse: true,
					})
				}
				for _, childID := range person.Children {
					bloodRelatives[childID] = true
					frontier = append(frontier, frontierEntry{
						id:             childID,
						relativeLevel:  entry.relativeLevel + 1,
						shouldTraverse: entry.relativeLevel >= siblingDescentCutoff,
					})
				}
			}

			for _, spouseID := range person.Spouses {
				spouseIDs[spouseID] = true
				frontier = append(frontier, frontierEntry{
					id:             spouseID,
					relativeLevel:  entry.relativeLevel,
					shouldTraverse: false,
				})
			}
		}
	}

	if len(out) == 0 {
		return nil, repository.ErrPersonNotFound
	}
	return out, nil
}

// GetLimitedGraph fetches the visible window around a person using the
// engine's configured product constants.
func (e *Engine) GetLimitedGraph(ctx context.Context, focalID string) ([]models.Person, error) {
	return e.FetchUpToDistance(ctx, focalID, e.MaxDistance, e.SiblingDescentCutoff)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
