package rules

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/charsheet/internal/model"
)

func TestDefaultCatalogLoads(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Len(t, c.Attributes, 4)
	assert.Len(t, c.Skills, 12)
	assert.NotEmpty(t, c.Talents)
	assert.NotEmpty(t, c.Weapons)
	assert.Len(t, c.Roster, 7)
}

func TestDefaultSkillMapping(t *testing.T) {
	c := MustDefault()

	tests := []struct {
		skill string
		want  model.Attribute
	}{
		{"Heavy Machinery", model.AttrStrength},
		{"Close Combat", model.AttrStrength},
		{"Ranged Combat", model.AttrAgility},
		{"Piloting", model.AttrAgility},
		{"Comtech", model.AttrWits},
		{"Medical Aid", model.AttrEmpathy},
	}
	for _, tt := range tests {
		t.Run(tt.skill, func(t *testing.T) {
			got, ok := c.AttributeOf(tt.skill)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := c.AttributeOf("Xenobiology")
	assert.False(t, ok)
}

func TestSkillsForKeepsCatalogOrder(t *testing.T) {
	c := MustDefault()

	skills := c.SkillsFor(model.AttrWits)
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Observation", "Survival", "Comtech"}, names)
}

func TestRosterIsConsistent(t *testing.T) {
	c := MustDefault()

	ids := map[model.CharacterID]bool{}
	for _, ch := range c.Roster {
		assert.NoError(t, ch.Validate(), ch.ID)
		assert.Nil(t, ch.AssignedUserID, ch.ID)
		assert.False(t, ids[ch.ID], "duplicate id %s", ch.ID)
		ids[ch.ID] = true
		assert.NotEmpty(t, c.Backstory(ch.ID), ch.ID)
		assert.NotEmpty(t, c.TalentDescription(ch.Talent1), ch.Talent1)
		assert.NotEmpty(t, c.TalentDescription(ch.Talent2), ch.Talent2)
	}
}

func TestInitialRosterReturnsCopies(t *testing.T) {
	c := MustDefault()

	first := c.InitialRoster()
	first[0].Strength = 99
	first[0].Gear = append(first[0].Gear, "extra")

	second := c.InitialRoster()
	assert.NotEqual(t, 99, second[0].Strength)
	assert.NotContains(t, second[0].Gear, "extra")
}

func TestAvailableWeaponsExcludesHeld(t *testing.T) {
	c := MustDefault()
	ch := &model.Character{
		Weapons: []model.Weapon{{Name: "M41A Pulse Rifle"}},
	}

	for _, w := range c.AvailableWeapons(ch) {
		assert.NotEqual(t, "M41A Pulse Rifle", w.Name)
	}
	assert.Len(t, c.AvailableWeapons(ch), len(c.Weapons)-1)
}

func TestParseRejectsUnknownAttribute(t *testing.T) {
	_, err := Parse([]byte("skills:\n  - name: Juggling\n    attribute: charm\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnknownAttribute)
}

func TestLoadFromFSRejectsInconsistentRoster(t *testing.T) {
	fsys := fstest.MapFS{
		"catalog.yaml": {Data: []byte("skills:\n  - name: Stamina\n    attribute: strength\n")},
		"roster.yaml":  {Data: []byte("- id: broken\n  strength: 3\n  maxHealth: 4\n  health: 1\n")},
	}

	_, err := LoadFromFS(fsys)
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrInvalidCharacter)
}

func TestNewBuildsLookup(t *testing.T) {
	c := New([]SkillDef{{Name: "Close Combat", Attribute: model.AttrAgility}})

	a, ok := c.AttributeOf("Close Combat")
	require.True(t, ok)
	assert.Equal(t, model.AttrAgility, a)
}
