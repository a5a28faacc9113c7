package models

import (
	"fmt"
)

// AddedByRoot is the sentinel creator id for seed people that start a new tree.
const AddedByRoot = "root"

// Gender values stored on a profile. Unknown is the zero value.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderUnknown = ""
)

// OppositeGender returns the partner gender used when synthesizing the second
// member of a parent pair or a missing spouse.
func OppositeGender(gender string) string {
	switch gender {
	case GenderMale:
		return GenderFemale
	case GenderFemale:
		return GenderMale
	default:
		return GenderUnknown
	}
}

// Person represents a node in the family graph using GORM.
// It corresponds to the 'people' table.
//
// Relationship lists hold opaque person ids. Parents has length 0 or exactly 2,
// Children has set semantics, and Spouses accumulates over time but only the
// first entry is structural for the mutation engine.
type Person struct {
	ID       string   `gorm:"primaryKey" json:"id"`
	Parents  []string `gorm:"serializer:json" json:"parents"`
	Spouses  []string `gorm:"serializer:json" json:"spouses"`
	Children []string `gorm:"serializer:json" json:"children"`

	AddedBy   string  `gorm:"not null;index" json:"added_by"`
	OwnedBy   *string `gorm:"index" json:"owned_by,omitempty"`
	OwnedAt   *int64  `json:"owned_at,omitempty"` // Unix timestamp
	CreatedAt int64   `gorm:"not null" json:"created_at"`

	// Version backs the store's optimistic concurrency control; it is bumped on
	// every conditional write and never exposed to clients.
	Version int64 `gorm:"not null;default:1" json:"-"`

	Profile Profile `gorm:"embedded;embeddedPrefix:profile_" json:"profile"`
}

// TableName explicitly sets the table name for GORM.
func (Person) TableName() string {
	return "people"
}

// Profile holds the display fields of a person. Pure data: the graph engines
// never inspect it beyond passing it through.
type Profile struct {
	FirstName   string   `json:"first_name"`
	MiddleName  string   `json:"middle_name,omitempty"`
	LastName    string   `json:"last_name"`
	Gender      string   `json:"gender,omitempty"`
	PhotoKey    string   `json:"photo_key,omitempty"`
	GalleryKeys []string `gorm:"serializer:json" json:"gallery_keys,omitempty"`
	BirthDate   *string  `json:"birth_date,omitempty"`
	DeathDate   *string  `json:"death_date,omitempty"`
	BirthPlace  string   `json:"birth_place,omitempty"`
	Occupation  string   `json:"occupation,omitempty"`
	Hobbies     []string `gorm:"serializer:json" json:"hobbies,omitempty"`
}

// ProfileDelta is a partial profile update. Nil fields keep their stored value.
type ProfileDelta struct {
	FirstName   *string   `json:"first_name,omitempty"`
	MiddleName  *string   `json:"middle_name,omitempty"`
	LastName    *string   `json:"last_name,omitempty"`
	Gender      *string   `json:"gender,omitempty"`
	PhotoKey    *string   `json:"photo_key,omitempty"`
	GalleryKeys *[]string `json:"gallery_keys,omitempty"`
	BirthDate   *string   `json:"birth_date,omitempty"`
	DeathDate   *string   `json:"death_date,omitempty"`
	BirthPlace  *string   `json:"birth_place,omitempty"`
	Occupation  *string   `json:"occupation,omitempty"`
	Hobbies     *[]string `json:"hobbies,omitempty"`
}

// ApplyTo merges the delta into profile, returning the merged copy.
func (d ProfileDelta) ApplyTo(profile Profile) Profile {
	if d.FirstName != nil {
		profile.FirstName = *d.FirstName
	}
	if d.MiddleName != nil {
		profile.MiddleName = *d.MiddleName
	}
	if d.LastName != nil {
		profile.LastName = *d.LastName
	}
	if d.Gender != nil {
		profile.Gender = *d.Gender
	}
	if d.PhotoKey != nil {
		profile.PhotoKey = *d.PhotoKey
	}
	if d.GalleryKeys != nil {
		profile.GalleryKeys = *d.GalleryKeys
	}
	if d.BirthDate != nil {
		profile.BirthDate = d.BirthDate
	}
	if d.DeathDate != nil {
		profile.DeathDate = d.DeathDate
	}
	if d.BirthPlace != nil {
		profile.BirthPlace = *d.BirthPlace
	}
	if d.Occupation != nil {
		profile.Occupation = *d.Occupation
	}
	if d.Hobbies != nil {
		profile.Hobbies = *d.Hobbies
	}
	return profile
}

// Validate checks the structural shape of a stored record. Records that fail
// are treated as missing in batch reads and as hard errors on single reads.
func (p *Person) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("person has empty id")
	}
	if p.AddedBy == "" {
		return fmt.Errorf("person %s has empty added_by", p.ID)
	}
	if len(p.Parents) != 0 && len(p.Parents) != 2 {
		return fmt.Errorf("person %s has %d parents, want 0 or 2", p.ID, len(p.Parents))
	}
	for _, parentID := range p.Parents {
		if parentID == "" {
			return fmt.Errorf("person %s has an empty parent reference", p.ID)
		}
	}
	return nil
}

// HasParents reports whether a parent pair has been recorded.
func (p *Person) HasParents() bool {
	return len(p.Parents) > 0
}

// FirstSpouse returns the structural spouse id, or "" if unmarried.
func (p *Person) FirstSpouse() string {
	if len(p.Spouses) == 0 {
		return ""
	}
	return p.Spouses[0]
}

// IsOwnedBySelf reports whether the person has been claimed as the owner's own
// identity. Such people are protected from deletion.
func (p *Person) IsOwnedBySelf() bool {
	return p.OwnedBy != nil && *p.OwnedBy == p.ID
}

// AddChild appends a child id, keeping set semantics.
func (p *Person) AddChild(id string) {
	for _, existing := range p.Children {
		if existing == id {
			return
		}
	}
	p.Children = append(p.Children, id)
}

// RemoveChild drops a child id if present.
func (p *Person) RemoveChild(id string) {
	p.Children = removeID(p.Children, id)
}

// RemoveSpouse drops a spouse id if present.
func (p *Person) RemoveSpouse(id string) {
	p.Spouses = removeID(p.Spouses, id)
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}
