package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jbonatakis/reqmatrix/internal/fsutil"
	"github.com/jbonatakis/reqmatrix/internal/location"
)

const (
	DefaultCatalogFilename = "reqmatrix.catalog.json"
	SchemaVersion          = 1
)

var ErrCatalogNotFound = errors.New("catalog file not found")

// Catalog is the input data of the matrix: locations, requirements and the
// services that select among them. Location entries may be nil or malformed;
// the hierarchy builder skips them.
type Catalog struct {
	SchemaVersion int                     `json:"schemaVersion" yaml:"schemaVersion"`
	Locations     []*location.Location    `json:"locations" yaml:"locations"`
	Requirements  []*location.Requirement `json:"requirements" yaml:"requirements"`
	Services      []Service               `json:"services" yaml:"services"`
}

type Service struct {
	ID           string   `json:"id" yaml:"id"`
	Name         string   `json:"name" yaml:"name"`
	Requirements []string `json:"requirements,omitempty" yaml:"requirements,omitempty"`
}

func Load(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Catalog{}, ErrCatalogNotFound
		}
		return Catalog{}, fmt.Errorf("read catalog file %s: %w", path, err)
	}
	c, err := Decode(b, formatFor(path))
	if err != nil {
		return Catalog{}, fmt.Errorf("parse catalog file %s: %w", path, err)
	}
	return c, nil
}

type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

func Decode(b []byte, format Format) (Catalog, error) {
	var c Catalog
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return Catalog{}, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(b))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&c); err != nil {
			return Catalog{}, err
		}
		// Ensure there's nothing but whitespace after the object.
		if err := dec.Decode(&struct{}{}); err != io.EOF {
			if err == nil {
				return Catalog{}, errors.New("trailing JSON values")
			}
			return Catalog{}, fmt.Errorf("trailing data: %w", err)
		}
	}
	if c.SchemaVersion != 0 && c.SchemaVersion != SchemaVersion {
		return Catalog{}, fmt.Errorf("unsupported schemaVersion %d (expected %d)", c.SchemaVersion, SchemaVersion)
	}
	return c, nil
}

func Save(path string, c Catalog) error {
	if c.SchemaVersion == 0 {
		c.SchemaVersion = SchemaVersion
	}
	var (
		b   []byte
		err error
	)
	if formatFor(path) == FormatYAML {
		b, err = yaml.Marshal(c)
	} else {
		b, err = json.MarshalIndent(c, "", "  ")
		b = append(b, '\n')
	}
	if err != nil {
		return fmt.Errorf("marshal catalog: %w", err)
	}
	return fsutil.AtomicWriteFile(path, b, 0o644)
}

// Hierarchy builds the location tree for the catalog.
func (c Catalog) Hierarchy() *location.Hierarchy {
	return location.Build(c.Locations)
}

func (c Catalog) Service(id string) (Service, bool) {
	for _, s := range c.Services {
		if s.ID == id {
			return s, true
		}
	}
	return Service{}, false
}

// RequirementsFor returns the service's requirements in presentation order:
// displayOrder (unset last), then name, then id. A service that lists no
// requirements uses the whole catalog.
func (c Catalog) RequirementsFor(serviceID string) []location.Requirement {
	svc, _ := c.Service(serviceID)
	wanted := map[string]bool{}
	for _, id := range svc.Requirements {
		wanted[id] = true
	}

	out := make([]location.Requirement, 0, len(c.Requirements))
	seen := map[string]bool{}
	for _, r := range c.Requirements {
		if r == nil || r.ID == "" || seen[r.ID] {
			continue
		}
		if len(wanted) > 0 && !wanted[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, *r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if (a.DisplayOrder == nil) != (b.DisplayOrder == nil) {
			return a.DisplayOrder != nil
		}
		if a.DisplayOrder != nil && *a.DisplayOrder != *b.DisplayOrder {
			return *a.DisplayOrder < *b.DisplayOrder
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.ID < b.ID
	})
	return out
}

// RequirementIDs lists the ids RequirementsFor returns, in the same order.
func (c Catalog) RequirementIDs(serviceID string) []string {
	reqs := c.RequirementsFor(serviceID)
	out := make([]string, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, r.ID)
	}
	return out
}

// AllRequirementIDs lists every requirement id in the catalog, in file
// order. Stored keys may name requirements a service no longer lists.
func (c Catalog) AllRequirementIDs() []string {
	out := make([]string, 0, len(c.Requirements))
	seen := map[string]bool{}
	for _, r := range c.Requirements {
		if r == nil || r.ID == "" || seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		out = append(out, r.ID)
	}
	return out
}

// Validate reports catalog problems: location structure, requirement ids and
// types, and service references.
func (c Catalog) Validate() []location.ValidationError {
	errs := location.Validate(c.Locations)

	reqIDs := map[string]bool{}
	for i, r := range c.Requirements {
		path := fmt.Sprintf("$.requirements[%d]", i)
		if r == nil {
			errs = append(errs, location.ValidationError{Path: path, Message: "null entry"})
			continue
		}
		if r.ID == "" {
			errs = append(errs, location.ValidationError{Path: path + ".id", Message: "required"})
			continue
		}
		if reqIDs[r.ID] {
			errs = append(errs, location.ValidationError{Path: path + ".id", Message: fmt.Sprintf("duplicate id %q", r.ID)})
		}
		reqIDs[r.ID] = true
		if !location.IsValidRequirementType(r.Type) {
			errs = append(errs, location.ValidationError{Path: path + ".type", Message: fmt.Sprintf("invalid type %q", r.Type)})
		}
	}

	serviceIDs := map[string]bool{}
	for i, s := range c.Services {
		path := fmt.Sprintf("$.services[%d]", i)
		if s.ID == "" {
			errs = append(errs, location.ValidationError{Path: path + ".id", Message: "required"})
			continue
		}
		if serviceIDs[s.ID] {
			errs = append(errs, location.ValidationError{Path: path + ".id", Message: fmt.Sprintf("duplicate id %q", s.ID)})
		}
		serviceIDs[s.ID] = true
		for j, reqID := range s.Requirements {
			if !reqIDs[reqID] {
				errs = append(errs, location.ValidationError{
					Path:    fmt.Sprintf("%s.requirements[%d]", path, j),
					Message: fmt.Sprintf("unknown requirement id %q", reqID),
				})
			}
		}
	}
	return errs
}

// Example returns a small catalog used by `reqmatrix init`.
func Example() Catalog {
	parent := func(id string) *string { return &id }
	order := func(n int) *int { return &n }
	return Catalog{
		SchemaVersion: SchemaVersion,
		Locations: []*location.Location{
			{ID: "usa", Name: "United States", Code: "US"},
			{ID: "usa-ca", Name: "California", Code: "CA", ParentID: parent("usa")},
			{ID: "usa-ca-la", Name: "Los Angeles County", ParentID: parent("usa-ca")},
			{ID: "usa-tx", Name: "Texas", Code: "TX", ParentID: parent("usa")},
			{ID: "can", Name: "Canada", Code: "CA"},
			{ID: "can-on", Name: "Ontario", Code: "ON", ParentID: parent("can")},
		},
		Requirements: []*location.Requirement{
			{ID: "ssn", Name: "Social Security Number", Type: location.RequirementField, DisplayOrder: order(1)},
			{ID: "dob", Name: "Date of Birth", Type: location.RequirementField, DisplayOrder: order(2)},
			{ID: "consent", Name: "Signed Consent", Type: location.RequirementDocument, DisplayOrder: order(3)},
			{ID: "fcra", Name: "FCRA Disclosure", Type: location.RequirementForm},
		},
		Services: []Service{
			{ID: "criminal", Name: "Criminal Record Search", Requirements: []string{"ssn", "dob", "consent"}},
			{ID: "employment", Name: "Employment Verification"},
		},
	}
}
