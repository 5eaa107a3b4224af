// Package rules holds the static reference data of the game: which
// attribute backs each skill, talent descriptions, the rulebook weapon
// list, backstories and the starting roster used by seeding.
package rules

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mcoot/charsheet/internal/model"
)

const (
	catalogFile = "catalog.yaml"
	rosterFile  = "roster.yaml"
)

//go:embed data/*.yaml
var embeddedFS embed.FS

// AttributeDef describes one core attribute
type AttributeDef struct {
	Name  model.Attribute `yaml:"name" json:"name"`
	Label string          `yaml:"label" json:"label"`
}

// SkillDef maps a skill to the attribute that backs it
type SkillDef struct {
	Name      string          `yaml:"name" json:"name"`
	Attribute model.Attribute `yaml:"attribute" json:"attribute"`
}

// Catalog is the lookup data for one campaign
type Catalog struct {
	Attributes  []AttributeDef               `yaml:"attributes" json:"attributes"`
	Skills      []SkillDef                   `yaml:"skills" json:"skills"`
	Talents     map[string]string            `yaml:"talents" json:"talents"`
	Weapons     []model.Weapon               `yaml:"weapons" json:"weapons"`
	Backstories map[model.CharacterID]string `yaml:"backstories" json:"backstories"`
	Roster      []*model.Character           `yaml:"-" json:"-"`

	skillAttr map[string]model.Attribute
}

// Default loads the catalog compiled into the binary
func Default() (*Catalog, error) {
	sub, err := fs.Sub(embeddedFS, "data")
	if err != nil {
		return nil, fmt.Errorf("open embedded catalog: %w", err)
	}
	return LoadFromFS(sub)
}

// MustDefault is Default for package initialisation and tests
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadDir loads catalog.yaml and roster.yaml from a directory on disk
func LoadDir(dir string) (*Catalog, error) {
	return LoadFromFS(os.DirFS(dir))
}

// LoadFromFS loads the catalog and roster files from the provided filesystem
func LoadFromFS(fsys fs.FS) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, catalogFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", catalogFile, err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", catalogFile, err)
	}

	rosterData, err := fs.ReadFile(fsys, rosterFile)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rosterFile, err)
	}
	if err := yaml.Unmarshal(rosterData, &c.Roster); err != nil {
		return nil, fmt.Errorf("parse %s: %w", rosterFile, err)
	}
	for _, ch := range c.Roster {
		if err := ch.Validate(); err != nil {
			return nil, fmt.Errorf("roster character %q: %w", ch.ID, err)
		}
	}
	return c, nil
}

// Parse decodes a catalog document. The roster is left empty.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.index()
	return &c, nil
}

// New builds a catalog from skill definitions alone
func New(skills []SkillDef) *Catalog {
	c := &Catalog{Skills: skills}
	for _, a := range model.Attributes {
		c.Attributes = append(c.Attributes, AttributeDef{Name: a})
	}
	c.index()
	return c
}

// Validate checks that every skill names a known attribute and every
// rulebook weapon has a combat skill
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Skills))
	for _, s := range c.Skills {
		if s.Name == "" {
			return fmt.Errorf("skill with empty name")
		}
		if seen[s.Name] {
			return fmt.Errorf("skill %q defined twice", s.Name)
		}
		seen[s.Name] = true
		if !slices.Contains(model.Attributes, s.Attribute) {
			return fmt.Errorf("skill %q: %w %q", s.Name, model.ErrUnknownAttribute, s.Attribute)
		}
	}
	for _, w := range c.Weapons {
		if w.Skill != model.SkillRangedCombat && w.Skill != model.SkillCloseCombat {
			return fmt.Errorf("weapon %q: unknown combat skill %q", w.Name, w.Skill)
		}
	}
	return nil
}

func (c *Catalog) index() {
	c.skillAttr = make(map[string]model.Attribute, len(c.Skills))
	for _, s := range c.Skills {
		c.skillAttr[s.Name] = s.Attribute
	}
}

// AttributeOf returns the attribute backing a skill.
// ok is false for skills the catalog does not know.
func (c *Catalog) AttributeOf(skill string) (model.Attribute, bool) {
	a, ok := c.skillAttr[skill]
	return a, ok
}

// SkillsFor lists the skills of one attribute in catalog order
func (c *Catalog) SkillsFor(attr model.Attribute) []SkillDef {
	var out []SkillDef
	for _, s := range c.Skills {
		if s.Attribute == attr {
			out = append(out, s)
		}
	}
	return out
}

// TalentDescription returns the rules text for a talent, "" if unknown
func (c *Catalog) TalentDescription(name string) string {
	return c.Talents[name]
}

// Backstory returns the flavour text for a roster character
func (c *Catalog) Backstory(id model.CharacterID) string {
	return c.Backstories[id]
}

// Weapon looks up a rulebook weapon by name
func (c *Catalog) Weapon(name string) (model.Weapon, bool) {
	for _, w := range c.Weapons {
		if w.Name == name {
			return w, true
		}
	}
	return model.Weapon{}, false
}

// AvailableWeapons lists the rulebook weapons the character does not hold yet
func (c *Catalog) AvailableWeapons(ch *model.Character) []model.Weapon {
	out := make([]model.Weapon, 0, len(c.Weapons))
	for _, w := range c.Weapons {
		if !ch.HasWeapon(w.Name) {
			out = append(out, w)
		}
	}
	return out
}

// InitialRoster returns fresh copies of the starting characters
func (c *Catalog) InitialRoster() []*model.Character {
	out := make([]*model.Character, 0, len(c.Roster))
	for _, ch := range c.Roster {
		out = append(out, ch.Clone())
	}
	return out
}
