package model

import (
	"fmt"
	"slices"
	"strings"
)

// CharacterID is the stable key of a character record
type CharacterID string

// MaxStress is the length of the stress track
const MaxStress = 10

// Attribute names one of the four core attributes
type Attribute string

const (
	AttrStrength Attribute = "strength"
	AttrAgility  Attribute = "agility"
	AttrWits     Attribute = "wits"
	AttrEmpathy  Attribute = "empathy"
)

// Attributes lists the core attributes in sheet order
var Attributes = []Attribute{AttrStrength, AttrAgility, AttrWits, AttrEmpathy}

// ParseAttribute returns the attribute with the given name
func ParseAttribute(s string) (Attribute, error) {
	a := Attribute(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Attributes, a) {
		return "", fmt.Errorf("%w: %q", ErrUnknownAttribute, s)
	}
	return a, nil
}

// CombatSkill is the skill a weapon is rolled with
type CombatSkill string

const (
	SkillRangedCombat CombatSkill = "Ranged Combat"
	SkillCloseCombat  CombatSkill = "Close Combat"
)

// Weapon is a weapon carried by exactly one character.
// Its name also appears once in the owning character's gear.
type Weapon struct {
	Name     string      `json:"name" yaml:"name"`
	Bonus    int         `json:"bonus" yaml:"bonus"`
	Damage   int         `json:"damage" yaml:"damage"`
	Range    string      `json:"range" yaml:"range"`
	FullAuto bool        `json:"fullAuto" yaml:"fullAuto"`
	Skill    CombatSkill `json:"skill" yaml:"skill"`
}

// Character is one player character and the unit of synchronization
type Character struct {
	ID          CharacterID `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	FullName    string      `json:"fullName" yaml:"fullName"`
	Rank        string      `json:"rank" yaml:"rank"`
	Career      string      `json:"career" yaml:"career"`
	Age         int         `json:"age" yaml:"age"`
	Personality string      `json:"personality" yaml:"personality"`

	Strength int `json:"strength" yaml:"strength"`
	Agility  int `json:"agility" yaml:"agility"`
	Wits     int `json:"wits" yaml:"wits"`
	Empathy  int `json:"empathy" yaml:"empathy"`

	Health    int `json:"health" yaml:"health"`
	MaxHealth int `json:"maxHealth" yaml:"maxHealth"`
	Stress    int `json:"stress" yaml:"stress"`

	Skills map[string]int `json:"skills" yaml:"skills"`

	Talent1       string `json:"talent1" yaml:"talent1"`
	Talent2       string `json:"talent2" yaml:"talent2"`
	Buddy         string `json:"buddy" yaml:"buddy"`
	Rival         string `json:"rival" yaml:"rival"`
	SignatureItem string `json:"signatureItem" yaml:"signatureItem"`

	Gear             []string `json:"gear" yaml:"gear"`
	Weapons          []Weapon `json:"weapons" yaml:"weapons"`
	Armor            string   `json:"armor" yaml:"armor"`
	ArmorRating      int      `json:"armorRating" yaml:"armorRating"`
	Encumbrance      int      `json:"encumbrance" yaml:"encumbrance"`
	CriticalInjuries []string `json:"criticalInjuries" yaml:"criticalInjuries"`

	AssignedUserID *UserID `json:"assignedUserId" yaml:"assignedUserId"`
	Disabled       bool    `json:"disabled" yaml:"disabled"`
	Android        bool    `json:"android" yaml:"android"`
}

// Attribute returns the value of the given attribute, or 0 for an unknown one
func (c *Character) Attribute(a Attribute) int {
	switch a {
	case AttrStrength:
		return c.Strength
	case AttrAgility:
		return c.Agility
	case AttrWits:
		return c.Wits
	case AttrEmpathy:
		return c.Empathy
	default:
		return 0
	}
}

// SetAttribute assigns the raw attribute value without re-deriving vitals
func (c *Character) SetAttribute(a Attribute, v int) error {
	switch a {
	case AttrStrength:
		c.Strength = v
	case AttrAgility:
		c.Agility = v
	case AttrWits:
		c.Wits = v
	case AttrEmpathy:
		c.Empathy = v
	default:
		return fmt.Errorf("%w: %q", ErrUnknownAttribute, a)
	}
	return nil
}

// SkillLevel returns the trained level of a skill, 0 when untrained
func (c *Character) SkillLevel(skill string) int {
	return c.Skills[skill]
}

// IsAssigned reports whether any user holds the character
func (c *Character) IsAssigned() bool {
	return c.AssignedUserID != nil
}

// IsAssignedTo reports whether the given user holds the character
func (c *Character) IsAssignedTo(uid UserID) bool {
	return c.AssignedUserID != nil && *c.AssignedUserID == uid
}

// IsAvailable reports whether a player may claim the character
func (c *Character) IsAvailable() bool {
	return !c.IsAssigned() && !c.Disabled
}

// HasWeapon reports whether a weapon with the given name is held
func (c *Character) HasWeapon(name string) bool {
	for _, w := range c.Weapons {
		if w.Name == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy. Nil slices and maps stay nil.
func (c *Character) Clone() *Character {
	if c == nil {
		return nil
	}
	out := *c
	if c.Skills != nil {
		out.Skills = make(map[string]int, len(c.Skills))
		for k, v := range c.Skills {
			out.Skills[k] = v
		}
	}
	out.Gear = slices.Clone(c.Gear)
	out.Weapons = slices.Clone(c.Weapons)
	out.CriticalInjuries = slices.Clone(c.CriticalInjuries)
	if c.AssignedUserID != nil {
		uid := *c.AssignedUserID
		out.AssignedUserID = &uid
	}
	return &out
}

// Validate reports the first broken record invariant
func (c *Character) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: missing id", ErrInvalidCharacter)
	}
	for _, a := range Attributes {
		if c.Attribute(a) < 0 {
			return fmt.Errorf("%w: %s is negative", ErrInvalidCharacter, a)
		}
	}
	if c.MaxHealth != c.Strength {
		return fmt.Errorf("%w: maxHealth %d does not match strength %d", ErrInvalidCharacter, c.MaxHealth, c.Strength)
	}
	if c.Health < 0 || c.Health > c.MaxHealth {
		return fmt.Errorf("%w: health %d outside [0, %d]", ErrInvalidCharacter, c.Health, c.MaxHealth)
	}
	if c.Stress < 0 || c.Stress > MaxStress {
		return fmt.Errorf("%w: stress %d outside [0, %d]", ErrInvalidCharacter, c.Stress, MaxStress)
	}
	for skill, level := range c.Skills {
		if level < 0 {
			return fmt.Errorf("%w: skill %q is negative", ErrInvalidCharacter, skill)
		}
	}
	if c.ArmorRating < 0 {
		return fmt.Errorf("%w: armorRating is negative", ErrInvalidCharacter)
	}
	seen := make(map[string]bool, len(c.Weapons))
	for _, w := range c.Weapons {
		if seen[w.Name] {
			return fmt.Errorf("%w: weapon %q listed twice", ErrInvalidCharacter, w.Name)
		}
		seen[w.Name] = true
		n := 0
		for _, g := range c.Gear {
			if g == w.Name {
				n++
			}
		}
		if n != 1 {
			return fmt.Errorf("%w: weapon %q appears %d times in gear", ErrInvalidCharacter, w.Name, n)
		}
	}
	return nil
}

// SortCharactersByName orders characters by name, then id
func SortCharactersByName(chars []*Character) {
	slices.SortFunc(chars, func(a, b *Character) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(string(a.ID), string(b.ID))
	})
}
