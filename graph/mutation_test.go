package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kinship-app/kinshipbackend/models"
	"github.com/kinship-app/kinshipbackend/repository"
)

func TestCreateRoot(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria", LastName: "Costa"})
	require.NoError(t, err)

	got := mustGet(t, store, root.ID)
	assert.Equal(t, models.AddedByRoot, got.AddedBy)
	assert.Empty(t, got.Parents)
	assert.Empty(t, got.Spouses)
	assert.Empty(t, got.Children)
	require.NotNil(t, got.OwnedBy)
	assert.Equal(t, got.ID, *got.OwnedBy)
	assert.NotNil(t, got.OwnedAt)
}

func TestAddParentCreatesLinkedPair(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)

	result, err := engine.AddConnection(ctx, root.ID, RelationshipParent, models.Profile{FirstName: "Jorge", Gender: models.GenderMale}, "acct-1")
	require.NoError(t, err)
	require.Len(t, result.Affected, 3)

	source := mustGet(t, store, root.ID)
	require.Len(t, source.Parents, 2)

	parent := mustGet(t, store, result.NewPersonID)
	assert.Equal(t, "Jorge", parent.Profile.FirstName)
	assert.Equal(t, "acct-1", parent.AddedBy)

	partnerID := source.Parents[1]
	if partnerID == parent.ID {
		partnerID = source.Parents[0]
	}
	partner := mustGet(t, store, partnerID)
	assert.Equal(t, models.GenderFemale, partner.Profile.Gender)

	// referential symmetry: both parents list the source as a child and each
	// other as spouses
	assert.Contains(t, parent.Children, source.ID)
	assert.Contains(t, partner.Children, source.ID)
	assert.Equal(t, []string{partner.ID}, parent.Spouses)
	assert.Equal(t, []string{parent.ID}, partner.Spouses)
}

func TestAddParentRejectedWhenParentsExist(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)
	_, err = engine.AddConnection(ctx, root.ID, RelationshipParent, models.Profile{FirstName: "Jorge"}, "acct-1")
	require.NoError(t, err)

	before := countPeople(t, store)
	_, err = engine.AddConnection(ctx, root.ID, RelationshipParent, models.Profile{FirstName: "Imposter"}, "acct-1")
	assert.ErrorIs(t, err, ErrParentsAlreadySet)
	assert.True(t, IsInvariantViolation(err))
	assert.Equal(t, before, countPeople(t, store), "rejected mutation must not create records")
}

func TestAddSpouseLinksMutually(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)

	result, err := engine.AddConnection(ctx, root.ID, RelationshipSpouse, models.Profile{FirstName: "Paulo"}, "acct-1")
	require.NoError(t, err)

	source := mustGet(t, store, root.ID)
	spouse := mustGet(t, store, result.NewPersonID)
	assert.Equal(t, []string{spouse.ID}, source.Spouses)
	assert.Equal(t, []string{source.ID}, spouse.Spouses)
	assert.Empty(t, spouse.Parents)
	assert.Empty(t, spouse.Children)
}

func TestAddSpouseRejectedWhenSpouseExists(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)
	_, err = engine.AddConnection(ctx, root.ID, RelationshipSpouse, models.Profile{FirstName: "Paulo"}, "acct-1")
	require.NoError(t, err)

	before := countPeople(t, store)
	_, err = engine.AddConnection(ctx, root.ID, RelationshipSpouse, models.Profile{FirstName: "Rival"}, "acct-1")
	assert.ErrorIs(t, err, ErrSpouseAlreadySet)
	assert.Equal(t, before, countPeople(t, store))
}

func TestAddSiblingReusesExistingParents(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)
	_, err = engine.AddConnection(ctx, root.ID, RelationshipParent, models.Profile{FirstName: "Jorge"}, "acct-1")
	require.NoError(t, err)

	source := mustGet(t, store, root.ID)
	p1Before := mustGet(t, store, source.Parents[0])
	p2Before := mustGet(t, store, source.Parents[1])
	before := countPeople(t, store)

	result, err := engine.AddConnection(ctx, root.ID, RelationshipSibling, models.Profile{FirstName: "Ana"}, "acct-1")
	require.NoError(t, err)

	assert.Equal(t, before+1, countPeople(t, store), "must not create new parent records")

	sibling := mustGet(t, store, result.NewPersonID)
	assert.Equal(t, source.Parents, sibling.Parents)

	p1 := mustGet(t, store, source.Parents[0])
	p2 := mustGet(t, store, source.Parents[1])
	assert.Len(t, p1.Children, len(p1Before.Children)+1)
	assert.Len(t, p2.Children, len(p2Before.Children)+1)
	assert.Contains(t, p1.Children, sibling.ID)
	assert.Contains(t, p2.Children, sibling.ID)

	// the source itself is untouched by this case
	after := mustGet(t, store, root.ID)
	assert.Equal(t, source.Version, after.Version)
}

func TestAddSiblingCreatesParentPair(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)

	result, err := engine.AddConnection(ctx, root.ID, RelationshipSibling, models.Profile{FirstName: "Ana"}, "acct-1")
	require.NoError(t, err)
	require.Len(t, result.Affected, 4)

	source := mustGet(t, store, root.ID)
	sibling := mustGet(t, store, result.NewPersonID)
	require.Len(t, source.Parents, 2)
	assert.Equal(t, source.Parents, sibling.Parents)

	parentA := mustGet(t, store, source.Parents[0])
	parentB := mustGet(t, store, source.Parents[1])
	assert.Equal(t, []string{parentB.ID}, parentA.Spouses)
	assert.Equal(t, []string{parentA.ID}, parentB.Spouses)
	assert.ElementsMatch(t, []string{source.ID, sibling.ID}, parentA.Children)
	assert.ElementsMatch(t, []string{source.ID, sibling.ID}, parentB.Children)
}

func TestAddSiblingWithCorruptParentPair(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	// source references a parent pair where one record is gone
	insertPerson(t, store, &models.Person{ID: "p-exists", Children: []string{"source"}})
	insertPerson(t, store, &models.Person{ID: "source", Parents: []string{"p-exists", "p-gone"}})

	_, err := engine.AddConnection(ctx, "source", RelationshipSibling, models.Profile{FirstName: "Ana"}, "acct-1")
	require.Error(t, err)
	assert.True(t, IsIntegrityError(err))
}

func TestAddChildSynthesizesSpouse(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria", Gender: models.GenderFemale})
	require.NoError(t, err)

	result, err := engine.AddConnection(ctx, root.ID, RelationshipChild, models.Profile{FirstName: "Luis"}, "acct-1")
	require.NoError(t, err)

	source := mustGet(t, store, root.ID)
	child := mustGet(t, store, result.NewPersonID)

	require.Len(t, source.Spouses, 1)
	spouse := mustGet(t, store, source.Spouses[0])
	assert.Equal(t, models.GenderMale, spouse.Profile.Gender)
	assert.Equal(t, []string{root.ID}, spouse.Spouses)

	assert.ElementsMatch(t, []string{source.ID, spouse.ID}, child.Parents)
	assert.Contains(t, source.Children, child.ID)
	assert.Contains(t, spouse.Children, child.ID)
}

func TestAddChildUsesExistingSpouse(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)
	spouseResult, err := engine.AddConnection(ctx, root.ID, RelationshipSpouse, models.Profile{FirstName: "Paulo"}, "acct-1")
	require.NoError(t, err)

	before := countPeople(t, store)
	result, err := engine.AddConnection(ctx, root.ID, RelationshipChild, models.Profile{FirstName: "Luis"}, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, before+1, countPeople(t, store), "must not synthesize a second spouse")

	child := mustGet(t, store, result.NewPersonID)
	assert.ElementsMatch(t, []string{root.ID, spouseResult.NewPersonID}, child.Parents)

	spouse := mustGet(t, store, spouseResult.NewPersonID)
	assert.Contains(t, spouse.Children, child.ID)
}

func TestDeleteLeafRepairsParents(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)
	result, err := engine.AddConnection(ctx, root.ID, RelationshipChild, models.Profile{FirstName: "Luis"}, "acct-1")
	require.NoError(t, err)
	childID := result.NewPersonID

	repaired, err := engine.DeletePerson(ctx, childID)
	require.NoError(t, err)
	require.Len(t, repaired, 2)

	source := mustGet(t, store, root.ID)
	assert.NotContains(t, source.Children, childID)
	spouse := mustGet(t, store, source.Spouses[0])
	assert.NotContains(t, spouse.Children, childID)

	_, err = store.Get(ctx, childID)
	assert.ErrorIs(t, err, repository.ErrPersonNotFound)
}

func TestDeleteLeafRepairsSpouse(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)
	result, err := engine.AddConnection(ctx, root.ID, RelationshipSpouse, models.Profile{FirstName: "Paulo"}, "acct-1")
	require.NoError(t, err)

	repaired, err := engine.DeletePerson(ctx, result.NewPersonID)
	require.NoError(t, err)
	require.Len(t, repaired, 1)

	source := mustGet(t, store, root.ID)
	assert.Empty(t, source.Spouses)
}

func TestDeleteBlockedByChildren(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)
	_, err = engine.AddConnection(ctx, root.ID, RelationshipChild, models.Profile{FirstName: "Luis"}, "acct-1")
	require.NoError(t, err)

	// the synthesized spouse has a child and only one structural side, so the
	// children precondition is what rejects it
	source := mustGet(t, store, root.ID)
	spouseID := source.Spouses[0]
	preImage := mustGet(t, store, spouseID)

	_, err = engine.DeletePerson(ctx, spouseID)
	assert.ErrorIs(t, err, ErrDeleteHasChildren)

	after := mustGet(t, store, spouseID)
	assert.Equal(t, preImage, after, "store must be unchanged after a rejected delete")
}

func TestDeleteBlockedByDualLinks(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)
	siblingResult, err := engine.AddConnection(ctx, root.ID, RelationshipSibling, models.Profile{FirstName: "Ana"}, "acct-1")
	require.NoError(t, err)
	_, err = engine.AddConnection(ctx, siblingResult.NewPersonID, RelationshipSpouse, models.Profile{FirstName: "Rui"}, "acct-1")
	require.NoError(t, err)

	_, err = engine.DeletePerson(ctx, siblingResult.NewPersonID)
	assert.ErrorIs(t, err, ErrDeleteDualLinked)
}

func TestDeleteBlockedBySelfOwnership(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)

	_, err = engine.DeletePerson(ctx, root.ID)
	assert.ErrorIs(t, err, ErrDeleteSelfOwned)
}

func TestDeleteNotFound(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.DeletePerson(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrPersonNotFound)
}

func TestClaimOwnership(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)
	result, err := engine.AddConnection(ctx, root.ID, RelationshipSpouse, models.Profile{FirstName: "Paulo"}, "acct-1")
	require.NoError(t, err)

	claimed, err := engine.ClaimOwnership(ctx, result.NewPersonID, "acct-2")
	require.NoError(t, err)
	require.NotNil(t, claimed.OwnedBy)
	assert.Equal(t, "acct-2", *claimed.OwnedBy)
	assert.NotNil(t, claimed.OwnedAt)

	got := mustGet(t, store, result.NewPersonID)
	assert.Equal(t, "acct-2", *got.OwnedBy)

	// a second claim loses, even for the same account
	_, err = engine.ClaimOwnership(ctx, result.NewPersonID, "acct-3")
	assert.ErrorIs(t, err, ErrPersonAlreadyClaimed)
}

func TestUpdateProfileMergesDelta(t *testing.T) {
	engine, store := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria", LastName: "Costa", Occupation: "nurse"})
	require.NoError(t, err)

	occupation := "professor"
	photo := "media/abc123.jpg"
	updated, previous, err := engine.UpdateProfile(ctx, root.ID, models.ProfileDelta{
		Occupation: &occupation,
		PhotoKey:   &photo,
	})
	require.NoError(t, err)

	assert.Equal(t, "nurse", previous.Occupation)
	assert.Equal(t, "", previous.PhotoKey)
	assert.Equal(t, "professor", updated.Profile.Occupation)
	assert.Equal(t, "media/abc123.jpg", updated.Profile.PhotoKey)
	assert.Equal(t, "Maria", updated.Profile.FirstName, "fields absent from the delta keep prior values")

	// applying the same delta twice yields the same stored profile
	again, _, err := engine.UpdateProfile(ctx, root.ID, models.ProfileDelta{
		Occupation: &occupation,
		PhotoKey:   &photo,
	})
	require.NoError(t, err)
	assert.Equal(t, updated.Profile, again.Profile)

	got := mustGet(t, store, root.ID)
	assert.Equal(t, "professor", got.Profile.Occupation)
}

func TestAddConnectionUnknownRelationship(t *testing.T) {
	engine, _ := newTestEngine(t)
	ctx := context.Background()

	root, err := engine.CreateRoot(ctx, models.Profile{FirstName: "Maria"})
	require.NoError(t, err)

	_, err = engine.AddConnection(ctx, root.ID, Relationship(42), models.Profile{}, "acct-1")
	assert.ErrorIs(t, err, ErrUnknownRelationship)
}

func TestAddConnectionSourceNotFound(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.AddConnection(context.Background(), "missing", RelationshipSpouse, models.Profile{}, "acct-1")
	assert.ErrorIs(t, err, repository.ErrPersonNotFound)
}
