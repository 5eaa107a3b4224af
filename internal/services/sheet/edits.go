// Package sheet holds the edit intents that turn one character record
// into the next. Every intent works on a copy and keeps the record's
// invariants: maxHealth tracks strength, vitals stay on their tracks and
// each weapon is listed once in gear.
package sheet

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mcoot/charsheet/internal/model"
)

// Edit kinds, as sent by API clients
const (
	KindSetAttribute   = "set_attribute"
	KindToggleHealth   = "toggle_health"
	KindToggleStress   = "toggle_stress"
	KindAddInjury      = "add_injury"
	KindRemoveInjury   = "remove_injury"
	KindAddGear        = "add_gear"
	KindRemoveGear     = "remove_gear"
	KindAddWeapon      = "add_weapon"
	KindRemoveWeapon   = "remove_weapon"
	KindSetArmor       = "set_armor"
	KindSetEncumbrance = "set_encumbrance"
	KindSetSkill       = "set_skill"
	KindSetDetails     = "set_details"
)

// Edit is one change to a character record.
// Apply never modifies its argument.
type Edit interface {
	Kind() string
	Apply(c *model.Character) (*model.Character, error)
}

var (
	_ Edit = SetAttribute{}
	_ Edit = ToggleHealth{}
	_ Edit = ToggleStress{}
	_ Edit = AddInjury{}
	_ Edit = RemoveInjury{}
	_ Edit = AddGear{}
	_ Edit = RemoveGear{}
	_ Edit = AddWeapon{}
	_ Edit = RemoveWeapon{}
	_ Edit = SetArmor{}
	_ Edit = SetEncumbrance{}
	_ Edit = SetSkill{}
	_ Edit = SetDetails{}
)

// SetAttribute changes one core attribute. Changing strength also moves
// maxHealth and pulls health down to the new maximum.
type SetAttribute struct {
	Attribute model.Attribute `json:"attribute"`
	Value     int             `json:"value"`
}

func (e SetAttribute) Kind() string { return KindSetAttribute }

func (e SetAttribute) Apply(c *model.Character) (*model.Character, error) {
	if e.Value < 0 {
		return nil, fmt.Errorf("%w: %s = %d", model.ErrNegativeValue, e.Attribute, e.Value)
	}
	next := c.Clone()
	if err := next.SetAttribute(e.Attribute, e.Value); err != nil {
		return nil, err
	}
	if e.Attribute == model.AttrStrength {
		next.MaxHealth = e.Value
		next.Health = min(next.Health, e.Value)
	}
	return next, nil
}

// ToggleHealth moves the health boundary to the clicked box
type ToggleHealth struct {
	Index int `json:"index"`
}

func (e ToggleHealth) Kind() string { return KindToggleHealth }

func (e ToggleHealth) Apply(c *model.Character) (*model.Character, error) {
	health, err := toggleTrack(c.Health, c.MaxHealth, e.Index)
	if err != nil {
		return nil, err
	}
	next := c.Clone()
	next.Health = health
	return next, nil
}

// ToggleStress moves the stress boundary to the clicked box
type ToggleStress struct {
	Index int `json:"index"`
}

func (e ToggleStress) Kind() string { return KindToggleStress }

func (e ToggleStress) Apply(c *model.Character) (*model.Character, error) {
	if c.Android {
		return nil, model.ErrAndroidStress
	}
	stress, err := toggleTrack(c.Stress, model.MaxStress, e.Index)
	if err != nil {
		return nil, err
	}
	next := c.Clone()
	next.Stress = stress
	return next, nil
}

// toggleTrack marks an empty box and everything below it, or clears a
// filled box and everything above it
func toggleTrack(current, length, index int) (int, error) {
	if index < 0 || index >= length {
		return 0, fmt.Errorf("%w: %d not in [0, %d)", model.ErrIndexOutOfRange, index, length)
	}
	if index >= current {
		return index + 1, nil
	}
	return index, nil
}

// AddInjury records a critical injury
type AddInjury struct {
	Text string `json:"text"`
}

func (e AddInjury) Kind() string { return KindAddInjury }

func (e AddInjury) Apply(c *model.Character) (*model.Character, error) {
	text, err := nonEmpty(e.Text)
	if err != nil {
		return nil, err
	}
	next := c.Clone()
	next.CriticalInjuries = append(next.CriticalInjuries, text)
	return next, nil
}

// RemoveInjury drops a critical injury. Out of range is a no-op.
type RemoveInjury struct {
	Index int `json:"index"`
}

func (e RemoveInjury) Kind() string { return KindRemoveInjury }

func (e RemoveInjury) Apply(c *model.Character) (*model.Character, error) {
	next := c.Clone()
	next.CriticalInjuries = removeAt(next.CriticalInjuries, e.Index)
	return next, nil
}

// AddGear adds a plain gear item. Weapon names are listed by AddWeapon,
// so a held weapon's name is rejected.
type AddGear struct {
	Text string `json:"text"`
}

func (e AddGear) Kind() string { return KindAddGear }

func (e AddGear) Apply(c *model.Character) (*model.Character, error) {
	text, err := nonEmpty(e.Text)
	if err != nil {
		return nil, err
	}
	if c.HasWeapon(text) {
		return nil, fmt.Errorf("%w: %s", model.ErrDuplicateWeapon, text)
	}
	next := c.Clone()
	next.Gear = append(next.Gear, text)
	return next, nil
}

// RemoveGear drops a plain gear entry. Out of range is a no-op. The entry
// backing a held weapon only goes through RemoveWeapon.
type RemoveGear struct {
	Index int `json:"index"`
}

func (e RemoveGear) Kind() string { return KindRemoveGear }

func (e RemoveGear) Apply(c *model.Character) (*model.Character, error) {
	if e.Index >= 0 && e.Index < len(c.Gear) && c.HasWeapon(c.Gear[e.Index]) {
		return nil, fmt.Errorf("%w: %s", model.ErrWeaponGear, c.Gear[e.Index])
	}
	next := c.Clone()
	next.Gear = removeAt(next.Gear, e.Index)
	return next, nil
}

// AddWeapon arms the character and lists the weapon in gear
type AddWeapon struct {
	Weapon model.Weapon `json:"weapon"`
}

func (e AddWeapon) Kind() string { return KindAddWeapon }

func (e AddWeapon) Apply(c *model.Character) (*model.Character, error) {
	w := e.Weapon
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return nil, model.ErrEmptyText
	}
	if c.HasWeapon(w.Name) {
		return nil, fmt.Errorf("%w: %s", model.ErrDuplicateWeapon, w.Name)
	}
	next := c.Clone()
	next.Weapons = append(next.Weapons, w)
	next.Gear = append(next.Gear, w.Name)
	return next, nil
}

// RemoveWeapon drops a weapon and the first gear entry with its name.
// Out of range is a no-op.
type RemoveWeapon struct {
	Index int `json:"index"`
}

func (e RemoveWeapon) Kind() string { return KindRemoveWeapon }

func (e RemoveWeapon) Apply(c *model.Character) (*model.Character, error) {
	next := c.Clone()
	if e.Index < 0 || e.Index >= len(next.Weapons) {
		return next, nil
	}
	name := next.Weapons[e.Index].Name
	next.Weapons = removeAt(next.Weapons, e.Index)
	if i := slices.Index(next.Gear, name); i >= 0 {
		next.Gear = removeAt(next.Gear, i)
	}
	return next, nil
}

// SetArmor replaces the worn armor
type SetArmor struct {
	Name   string `json:"name"`
	Rating int    `json:"rating"`
}

func (e SetArmor) Kind() string { return KindSetArmor }

func (e SetArmor) Apply(c *model.Character) (*model.Character, error) {
	if e.Rating < 0 {
		return nil, fmt.Errorf("%w: armor rating %d", model.ErrNegativeValue, e.Rating)
	}
	next := c.Clone()
	next.Armor = strings.TrimSpace(e.Name)
	next.ArmorRating = e.Rating
	return next, nil
}

// SetEncumbrance records the carried load
type SetEncumbrance struct {
	Value int `json:"value"`
}

func (e SetEncumbrance) Kind() string { return KindSetEncumbrance }

func (e SetEncumbrance) Apply(c *model.Character) (*model.Character, error) {
	next := c.Clone()
	next.Encumbrance = e.Value
	return next, nil
}

// SetSkill sets a skill level. Level 0 removes the entry.
type SetSkill struct {
	Skill string `json:"skill"`
	Level int    `json:"level"`
}

func (e SetSkill) Kind() string { return KindSetSkill }

func (e SetSkill) Apply(c *model.Character) (*model.Character, error) {
	skill, err := nonEmpty(e.Skill)
	if err != nil {
		return nil, err
	}
	if e.Level < 0 {
		return nil, fmt.Errorf("%w: %s = %d", model.ErrNegativeValue, skill, e.Level)
	}
	next := c.Clone()
	if e.Level == 0 {
		delete(next.Skills, skill)
		return next, nil
	}
	if next.Skills == nil {
		next.Skills = make(map[string]int)
	}
	next.Skills[skill] = e.Level
	return next, nil
}

// SetDetails updates free-text fields. Nil fields are left alone and an
// empty buddy or rival means none.
type SetDetails struct {
	Buddy         *string `json:"buddy,omitempty"`
	Rival         *string `json:"rival,omitempty"`
	Personality   *string `json:"personality,omitempty"`
	SignatureItem *string `json:"signatureItem,omitempty"`
}

func (e SetDetails) Kind() string { return KindSetDetails }

func (e SetDetails) Apply(c *model.Character) (*model.Character, error) {
	next := c.Clone()
	setTrimmed(&next.Buddy, e.Buddy)
	setTrimmed(&next.Rival, e.Rival)
	setTrimmed(&next.Personality, e.Personality)
	setTrimmed(&next.SignatureItem, e.SignatureItem)
	return next, nil
}

func setTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func nonEmpty(text string) (string, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return "", model.ErrEmptyText
	}
	return t, nil
}

func removeAt[T any](s []T, i int) []T {
	if i < 0 || i >= len(s) {
		return s
	}
	return slices.Delete(s, i, i+1)
}
