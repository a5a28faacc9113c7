package graph

import "fmt"

// Relationship is the closed set of connection kinds AddConnection accepts.
type Relationship int

const (
	RelationshipParent Relationship = iota
	RelationshipSibling
	RelationshipSpouse
	RelationshipChild
)

// ParseRelationship converts the wire form of a relationship kind.
func ParseRelationship(s string) (Relationship, error) {
	switch s {
	case "parent":
		return RelationshipParent, nil
	case "sibling":
		return RelationshipSibling, nil
	case "spouse":
		return RelationshipSpouse, nil
	case "child":
		return RelationshipChild, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRelationship, s)
	}
}

func (r Relationship) String() string {
	switch r {
	case RelationshipParent:
		return "parent"
	case RelationshipSibling:
		return "sibling"
	case RelationshipSpouse:
		return "spouse"
	case RelationshipChild:
		return "child"
	default:
		return fmt.Sprintf("Relationship(%d)", int(r))
	}
}
