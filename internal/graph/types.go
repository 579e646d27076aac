package graph

import (
	"time"
)

// EntityType is the fixed internal entity type set. Source NER labels are
// mapped onto it by the census.
type EntityType string

const (
	EntityPerson EntityType = "PERSON"
	EntityPlace  EntityType = "PLACE"
	EntityOrg    EntityType = "ORG"
	EntityDate   EntityType = "DATE"
	EntityTime   EntityType = "TIME"
	EntityEvent  EntityType = "EVENT"
	EntityObject EntityType = "OBJECT"
	EntityMisc   EntityType = "MISC" // Fallback for unknown labels
)

// Predicate names a relation between two entities.
type Predicate string

const (
	// Kinship
	PredParentOf  Predicate = "parent_of"
	PredChildOf   Predicate = "child_of"
	PredMarriedTo Predicate = "married_to"
	PredSpouseOf  Predicate = "spouse_of"
	PredSiblingOf Predicate = "sibling_of"

	// Life events
	PredBornIn  Predicate = "born_in"
	PredDiedIn  Predicate = "died_in"
	PredBornOn  Predicate = "born_on"
	PredDiedOn  Predicate = "died_on"
	PredLivesIn Predicate = "lives_in"

	// Affiliation
	PredMemberOf Predicate = "member_of"
	PredRules    Predicate = "rules"
	PredEnemyOf  Predicate = "enemy_of"
	PredFriendOf Predicate = "friend_of"
)

// Relation is a (subject, predicate, object) triple over entity ids.
type Relation struct {
	Subject   string    `json:"subject" yaml:"subject"`
	Predicate Predicate `json:"predicate" yaml:"predicate"`
	Object    string    `json:"object" yaml:"object"`
}

// EntityRecord is the persisted form of an entity. Attributes carry at least
// mention_count and first_position.
type EntityRecord struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       EntityType     `json:"type"`
	Aliases    []string       `json:"aliases,omitempty"`
	DocumentID string         `json:"document_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Attribute keys written by the pipeline.
const (
	AttrMentionCount  = "mention_count"
	AttrFirstPosition = "first_position"
	AttrCentrality    = "centrality"
)

// IntAttr reads an integer attribute, tolerating the float64 values that come
// back from JSON decoding.
func (r *EntityRecord) IntAttr(key string) (int, bool) {
	switch v := r.Attributes[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// FloatAttr reads a float attribute.
func (r *EntityRecord) FloatAttr(key string) (float64, bool) {
	switch v := r.Attributes[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
