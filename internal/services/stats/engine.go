package stats

import (
	"sort"

	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/rules"
)

// FullAutoPoolBonus and FullAutoStressBonus apply while full auto is active
const (
	FullAutoPoolBonus   = 2
	FullAutoStressBonus = 1
)

// Engine computes dice pool and stress dice sizes for a character
type Engine struct {
	catalog *rules.Catalog
}

// New creates a new Engine backed by the given catalog
func New(catalog *rules.Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Catalog returns the catalog the engine reads skill mappings from
func (e *Engine) Catalog() *rules.Catalog {
	return e.catalog
}

// BasePool is the backing attribute plus the trained skill level.
// A skill missing from the catalog contributes no attribute dice.
func (e *Engine) BasePool(c *model.Character, skill string) int {
	pool := c.SkillLevel(skill)
	if attr, ok := e.catalog.AttributeOf(skill); ok {
		pool += c.Attribute(attr)
	}
	return nonNegative(pool)
}

// WeaponPool adds the weapon bonus, plus the full auto bonus when the
// weapon supports it and the toggle is on
func (e *Engine) WeaponPool(c *model.Character, w model.Weapon, fullAuto bool) int {
	pool := e.BasePool(c, string(w.Skill)) + w.Bonus
	if fullAutoActive(w, fullAuto) {
		pool += FullAutoPoolBonus
	}
	return nonNegative(pool)
}

// SkillStress is the stress dice rolled with a plain skill roll
func (e *Engine) SkillStress(c *model.Character) int {
	if c.Android {
		return 0
	}
	return nonNegative(c.Stress)
}

// WeaponStress is the stress dice rolled with a weapon
func (e *Engine) WeaponStress(c *model.Character, w model.Weapon, fullAuto bool) int {
	stress := e.SkillStress(c)
	if fullAutoActive(w, fullAuto) {
		stress += FullAutoStressBonus
	}
	return stress
}

func fullAutoActive(w model.Weapon, requested bool) bool {
	return requested && w.FullAuto
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// WeaponLine is one weapon roll under its combat skill
type WeaponLine struct {
	Weapon     model.Weapon `json:"weapon"`
	FullAuto   bool         `json:"full_auto"`
	Pool       int          `json:"pool"`
	StressDice int          `json:"stress_dice"`
}

// SkillLine is one skill roll
type SkillLine struct {
	Name       string       `json:"name"`
	Level      int          `json:"level"`
	Pool       int          `json:"pool"`
	StressDice int          `json:"stress_dice"`
	Weapons    []WeaponLine `json:"weapons,omitempty"`
}

// AttributeBlock groups the skills backed by one attribute
type AttributeBlock struct {
	Attribute model.Attribute `json:"attribute"`
	Label     string          `json:"label"`
	Value     int             `json:"value"`
	Skills    []SkillLine     `json:"skills"`
}

// Sheet is the derived view of a character
type Sheet struct {
	CharacterID model.CharacterID `json:"character_id"`
	Name        string            `json:"name"`
	Android     bool              `json:"android"`
	Health      int               `json:"health"`
	MaxHealth   int               `json:"max_health"`
	Stress      int               `json:"stress"`
	Attributes  []AttributeBlock  `json:"attributes"`

	// Unlisted holds trained skills the catalog has no mapping for
	Unlisted []SkillLine `json:"unlisted,omitempty"`
}

// Sheet derives every pool on the character. Weapons named in fullAuto
// are rolled with full auto active.
func (e *Engine) Sheet(c *model.Character, fullAuto map[string]bool) *Sheet {
	out := &Sheet{
		CharacterID: c.ID,
		Name:        c.Name,
		Android:     c.Android,
		Health:      c.Health,
		MaxHealth:   c.MaxHealth,
		Stress:      e.SkillStress(c),
	}

	for _, def := range e.catalog.Attributes {
		block := AttributeBlock{
			Attribute: def.Name,
			Label:     def.Label,
			Value:     c.Attribute(def.Name),
			Skills:    []SkillLine{},
		}
		for _, skill := range e.catalog.SkillsFor(def.Name) {
			block.Skills = append(block.Skills, e.skillLine(c, skill.Name, fullAuto))
		}
		out.Attributes = append(out.Attributes, block)
	}

	var unlisted []string
	for name := range c.Skills {
		if _, ok := e.catalog.AttributeOf(name); !ok {
			unlisted = append(unlisted, name)
		}
	}
	sort.Strings(unlisted)
	for _, name := range unlisted {
		out.Unlisted = append(out.Unlisted, e.skillLine(c, name, fullAuto))
	}

	return out
}

func (e *Engine) skillLine(c *model.Character, skill string, fullAuto map[string]bool) SkillLine {
	line := SkillLine{
		Name:       skill,
		Level:      c.SkillLevel(skill),
		Pool:       e.BasePool(c, skill),
		StressDice: e.SkillStress(c),
	}
	for _, w := range c.Weapons {
		if string(w.Skill) != skill {
			continue
		}
		active := fullAutoActive(w, fullAuto[w.Name])
		line.Weapons = append(line.Weapons, WeaponLine{
			Weapon:     w,
			FullAuto:   active,
			Pool:       e.WeaponPool(c, w, active),
			StressDice: e.WeaponStress(c, w, active),
		})
	}
	return line
}
