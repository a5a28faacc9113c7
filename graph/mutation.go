package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/kinship-app/kinshipbackend/models"
	"github.com/kinship-app/kinshipbackend/repository"
)

// CreateRoot creates a seed person that starts a new tree. The record has no
// relationships, is attributed to the root sentinel, and is immediately marked
// as owned by itself. Id collisions are retried with a fresh id.
func (e *Engine) CreateRoot(ctx context.Context, seed models.Profile) (*models.Person, error) {
	var created *models.Person
	for attempt := 0; attempt < 3; attempt++ {
		person := e.newPerson(seed, models.AddedByRoot)
		person.OwnedBy = &person.ID
		ownedAt := e.now().Unix()
		person.OwnedAt = &ownedAt

		err := e.store.RunTransaction(ctx, func(tx *repository.Tx) error {
			return tx.Create(person)
		})
		if err == nil {
			created = person
			return created, nil
		}
		if !errors.Is(err, repository.ErrPersonExists) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("exhausted id generation retries creating root person")
}

// AddConnection adds one new person connected to the source person via the
// given relationship. All reads and writes happen inside a single store
// transaction, so either every affected record lands or none do, and a
// concurrent structural edit to any of them forces a retry on a fresh
// snapshot.
func (e *Engine) AddConnection(ctx context.Context, sourceID string, rel Relationship, seed models.Profile, creatorID string) (*MutationResult, error) {
	var result *MutationResult
	err := e.store.RunTransaction(ctx, func(tx *repository.Tx) error {
		source, err := tx.Read(sourceID)
		if err != nil {
			return err
		}

		switch rel {
		case RelationshipParent:
			result, err = e.addParent(tx, source, seed, creatorID)
		case RelationshipSibling:
			result, err = e.addSibling(tx, source, seed, creatorID)
		case RelationshipSpouse:
			result, err = e.addSpouse(tx, source, seed, creatorID)
		case RelationshipChild:
			result, err = e.addChild(tx, source, seed, creatorID)
		default:
			err = fmt.Errorf("%w: %v", ErrUnknownRelationship, rel)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// addParent creates both members of a new parent pair above the source. The
// requested profile becomes one parent; the other is synthesized with the
// opposite gender. Rejected once the source has any parents: a person gets at
// most one parent pair through this engine.
func (e *Engine) addParent(tx *repository.Tx, source *models.Person, seed models.Profile, creatorID string) (*MutationResult, error) {
	if source.HasParents() {
		return nil, ErrParentsAlreadySet
	}

	parent := e.newPerson(seed, creatorID)
	partnerSeed := models.Profile{Gender: models.OppositeGender(seed.Gender)}
	partner := e.newPerson(partnerSeed, creatorID)

	parent.Spouses = []string{partner.ID}
	partner.Spouses = []string{parent.ID}
	parent.Children = []string{source.ID}
	partner.Children = []string{source.ID}
	source.Parents = []string{parent.ID, partner.ID}

	if err := tx.Create(parent); err != nil {
		return nil, err
	}
	if err := tx.Create(partner); err != nil {
		return nil, err
	}
	if err := tx.Update(source); err != nil {
		return nil, err
	}

	return &MutationResult{
		NewPersonID: parent.ID,
		Affected:    []models.Person{*parent, *partner, *source},
	}, nil
}

// addSibling attaches a new child to the source's parent pair, synthesizing
// the pair first if the source has none. An existing pair is reused as-is; a
// pair where either member is missing is corruption and aborts the
// transaction.
func (e *Engine) addSibling(tx *repository.Tx, source *models.Person, seed models.Profile, creatorID string) (*MutationResult, error) {
	sibling := e.newPerson(seed, creatorID)

	if !source.HasParents() {
		parentA := e.newPerson(models.Profile{}, creatorID)
		parentB := e.newPerson(models.Profile{}, creatorID)
		parentA.Spouses = []string{parentB.ID}
		parentB.Spouses = []string{parentA.ID}
		parentA.Children = []string{source.ID, sibling.ID}
		parentB.Children = []string{source.ID, sibling.ID}

		source.Parents = []string{parentA.ID, parentB.ID}
		sibling.Parents = []string{parentA.ID, parentB.ID}

		if err := tx.Create(parentA); err != nil {
			return nil, err
		}
		if err := tx.Create(parentB); err != nil {
			return nil, err
		}
		if err := tx.Create(sibling); err != nil {
			return nil, err
		}
		if err := tx.Update(source); err != nil {
			return nil, err
		}

		return &MutationResult{
			NewPersonID: sibling.ID,
			Affected:    []models.Person{*parentA, *parentB, *sibling, *source},
		}, nil
	}

	parents, err := tx.ReadMany(source.Parents)
	if err != nil {
		return nil, err
	}
	if len(parents) != 2 {
		return nil, &IntegrityError{
			PersonID: source.ID,
			Detail:   fmt.Sprintf("recorded parent pair resolves to %d records, want 2", len(parents)),
		}
	}

	sibling.Parents = append([]string{}, source.Parents...)
	parents[0].AddChild(sibling.ID)
	parents[1].AddChild(sibling.ID)

	if err := tx.Create(sibling); err != nil {
		return nil, err
	}
	if err := tx.Update(&parents[0]); err != nil {
		return nil, err
	}
	if err := tx.Update(&parents[1]); err != nil {
		return nil, err
	}

	return &MutationResult{
		NewPersonID: sibling.ID,
		Affected:    []models.Person{*sibling, parents[0], parents[1]},
	}, nil
}

// addSpouse links the new person and the source as mutual spouses. Only a
// first marriage can be recorded through this engine.
func (e *Engine) addSpouse(tx *repository.Tx, source *models.Person, seed models.Profile, creatorID string) (*MutationResult, error) {
	if source.FirstSpouse() != "" {
		return nil, ErrSpouseAlreadySet
	}

	spouse := e.newPerson(seed, creatorID)
	spouse.Spouses = []string{source.ID}
	source.Spouses = []string{spouse.ID}

	if err := tx.Create(spouse); err != nil {
		return nil, err
	}
	if err := tx.Update(source); err != nil {
		return nil, err
	}

	return &MutationResult{
		NewPersonID: spouse.ID,
		Affected:    []models.Person{*spouse, *source},
	}, nil
}

// addChild creates a child of the source and the source's spouse, synthesizing
// a spouse of the opposite gender if the source is unmarried.
func (e *Engine) addChild(tx *repository.Tx, source *models.Person, seed models.Profile, creatorID string) (*MutationResult, error) {
	child := e.newPerson(seed, creatorID)

	var spouse *models.Person
	spouseIsNew := false
	if spouseID := source.FirstSpouse(); spouseID != "" {
		existing, err := tx.Read(spouseID)
		if err != nil {
			if errors.Is(err, repository.ErrPersonNotFound) {
				return nil, &IntegrityError{
					PersonID: source.ID,
					Detail:   fmt.Sprintf("recorded spouse %s does not exist", spouseID),
				}
			}
			return nil, err
		}
		spouse = existing
	} else {
		spouse = e.newPerson(models.Profile{Gender: models.OppositeGender(source.Profile.Gender)}, creatorID)
		spouse.Spouses = []string{source.ID}
		source.Spouses = []string{spouse.ID}
		spouseIsNew = true
	}

	child.Parents = []string{source.ID, spouse.ID}
	source.AddChild(child.ID)
	spouse.AddChild(child.ID)

	if err := tx.Create(child); err != nil {
		return nil, err
	}
	if spouseIsNew {
		if err := tx.Create(spouse); err != nil {
			return nil, err
		}
	} else {
		if err := tx.Update(spouse); err != nil {
			return nil, err
		}
	}
	if err := tx.Update(source); err != nil {
		return nil, err
	}

	return &MutationResult{
		NewPersonID: child.ID,
		Affected:    []models.Person{*child, *spouse, *source},
	}, nil
}

// DeletePerson removes a leaf person and repairs the back-references of the
// neighbors that pointed at them. Deletion is only permitted for a person
// connected to the graph through exactly one side (a parent pair or a spouse),
// with no descendants, and not claimed as an account's own identity. Returns
// the repaired neighbor records.
func (e *Engine) DeletePerson(ctx context.Context, id string) ([]models.Person, error) {
	var repaired []models.Person
	err := e.store.RunTransaction(ctx, func(tx *repository.Tx) error {
		repaired = repaired[:0]

		person, err := tx.Read(id)
		if err != nil {
			return err
		}
		if person.IsOwnedBySelf() {
			return ErrDeleteSelfOwned
		}
		if len(person.Children) > 0 {
			return ErrDeleteHasChildren
		}
		if len(person.Parents) > 0 && len(person.Spouses) > 0 {
			return ErrDeleteDualLinked
		}

		switch {
		case len(person.Parents) > 0:
			parents, err := tx.ReadMany(person.Parents)
			if err != nil {
				return err
			}
			if len(parents) != 2 {
				return &IntegrityError{
					PersonID: person.ID,
					Detail:   fmt.Sprintf("recorded parent pair resolves to %d records, want 2", len(parents)),
				}
			}
			for i := range parents {
				parents[i].RemoveChild(person.ID)
				if err := tx.Update(&parents[i]); err != nil {
					return err
				}
				repaired = append(repaired, parents[i])
			}
		case len(person.Spouses) > 0:
			spouses, err := tx.ReadMany(person.Spouses)
			if err != nil {
				return err
			}
			if len(spouses) != len(person.Spouses) {
				return &IntegrityError{
					PersonID: person.ID,
					Detail:   "recorded spouse does not exist",
				}
			}
			for i := range spouses {
				spouses[i].RemoveSpouse(person.ID)
				if err := tx.Update(&spouses[i]); err != nil {
					return err
				}
				repaired = append(repaired, spouses[i])
			}
		}

		return tx.Delete(person.ID)
	})
	if err != nil {
		return nil, err
	}
	return repaired, nil
}

// ClaimOwnership marks a person as claimed by the given account. The unowned
// check runs inside the same transaction as the write, so two concurrent
// claims cannot both succeed.
func (e *Engine) ClaimOwnership(ctx context.Context, personID, accountID string) (*models.Person, error) {
	var claimed *models.Person
	err := e.store.RunTransaction(ctx, func(tx *repository.Tx) error {
		person, err := tx.Read(personID)
		if err != nil {
			return err
		}
		if person.OwnedBy != nil {
			return ErrPersonAlreadyClaimed
		}

		person.OwnedBy = &accountID
		ownedAt := e.now().Unix()
		person.OwnedAt = &ownedAt
		if err := tx.Update(person); err != nil {
			return err
		}
		claimed = person
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// UpdateProfile merges a partial profile into the stored one; fields absent
// from the delta keep their prior values. The previous profile is returned
// alongside the updated record so the caller can release storage keys the
// update made unreferenced.
func (e *Engine) UpdateProfile(ctx context.Context, id string, delta models.ProfileDelta) (*models.Person, models.Profile, error) {
	var (
		updated  *models.Person
		previous models.Profile
	)
	err := e.store.RunTransaction(ctx, func(tx *repository.Tx) error {
		person, err := tx.Read(id)
		if err != nil {
			return err
		}
		previous = person.Profile
		person.Profile = delta.ApplyTo(person.Profile)
		if err := tx.Update(person); err != nil {
			return err
		}
		updated = person
		return nil
	})
	if err != nil {
		return nil, models.Profile{}, err
	}
	return updated, previous, nil
}
