package location

import "strings"

const (
	// RootID is the id of the synthetic node that parents every top-level
	// location. It is never persisted.
	RootID   = "all"
	RootName = "ALL"

	ErrProcessLocationsMessage = "Failed to process location data."
)

// Levels of the location hierarchy. Deeper nodes are allowed and simply get
// larger levels.
const (
	LevelAll = iota
	LevelCountry
	LevelSubregion1
	LevelSubregion2
	LevelSubregion3
)

type Location struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Code     string  `json:"code,omitempty" yaml:"code,omitempty"`
	ParentID *string `json:"parentId,omitempty" yaml:"parentId,omitempty"`
}

type RequirementType string

const (
	RequirementField    RequirementType = "field"
	RequirementDocument RequirementType = "document"
	RequirementForm     RequirementType = "form"
)

func IsValidRequirementType(t RequirementType) bool {
	switch t {
	case RequirementField, RequirementDocument, RequirementForm:
		return true
	default:
		return false
	}
}

type Requirement struct {
	ID           string          `json:"id" yaml:"id"`
	Name         string          `json:"name" yaml:"name"`
	Type         RequirementType `json:"type" yaml:"type"`
	DisplayOrder *int            `json:"displayOrder,omitempty" yaml:"displayOrder,omitempty"`
}

// Node is one entry of a built hierarchy.
type Node struct {
	ID       string
	Name     string
	ParentID string
	Level    int
	Children []*Node
}

func (n *Node) HasChildren() bool {
	return n != nil && len(n.Children) > 0
}

// DisplayName is the default name derivation: name, then code, then id.
func DisplayName(loc Location) (string, error) {
	if name := strings.TrimSpace(loc.Name); name != "" {
		return name, nil
	}
	if code := strings.TrimSpace(loc.Code); code != "" {
		return code, nil
	}
	return loc.ID, nil
}

func parentOf(loc Location) string {
	if loc.ParentID == nil {
		return ""
	}
	return strings.TrimSpace(*loc.ParentID)
}
