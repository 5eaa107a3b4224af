package stats

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/rules"
)

type EngineSuite struct {
	suite.Suite
	engine *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.engine = New(rules.MustDefault())
}

func (s *EngineSuite) marine() *model.Character {
	return &model.Character{
		ID:        "silva",
		Name:      "Silva",
		Strength:  4,
		Agility:   5,
		Wits:      3,
		Empathy:   2,
		Health:    4,
		MaxHealth: 4,
		Stress:    3,
		Skills:    map[string]int{"Ranged Combat": 3, "Close Combat": 2, "Juggling": 2},
		Gear:      []string{"M41A Pulse Rifle", "Stun Baton"},
		Weapons: []model.Weapon{
			{Name: "M41A Pulse Rifle", Bonus: 1, Damage: 2, Range: "Long", FullAuto: true, Skill: model.SkillRangedCombat},
			{Name: "Stun Baton", Bonus: 1, Damage: 1, Range: "Engaged", Skill: model.SkillCloseCombat},
		},
	}
}

// BasePool tests

func (s *EngineSuite) TestBasePoolIsAttributePlusLevel() {
	c := s.marine()

	s.Equal(5+3, s.engine.BasePool(c, "Ranged Combat"))
	s.Equal(4+2, s.engine.BasePool(c, "Close Combat"))
}

func (s *EngineSuite) TestBasePoolUntrainedSkillIsAttributeOnly() {
	c := s.marine()

	s.Equal(3, s.engine.BasePool(c, "Observation"))
	s.Equal(2, s.engine.BasePool(c, "Medical Aid"))
}

func (s *EngineSuite) TestBasePoolUnknownSkillHasNoAttribute() {
	c := s.marine()

	s.Equal(2, s.engine.BasePool(c, "Juggling"))
	s.Equal(0, s.engine.BasePool(c, "Xenobiology"))
}

func (s *EngineSuite) TestBasePoolMatchesFormulaForEveryKnownSkill() {
	c := s.marine()
	cat := s.engine.Catalog()

	for _, skill := range cat.Skills {
		s.Equal(c.Attribute(skill.Attribute)+c.SkillLevel(skill.Name), s.engine.BasePool(c, skill.Name), skill.Name)
	}
}

func (s *EngineSuite) TestBasePoolNeverNegative() {
	c := s.marine()
	c.Skills["Stamina"] = -10

	s.Equal(0, s.engine.BasePool(c, "Stamina"))
}

// WeaponPool tests

func (s *EngineSuite) TestWeaponPoolAddsBonus() {
	c := s.marine()

	s.Equal(5+3+1, s.engine.WeaponPool(c, c.Weapons[0], false))
	s.Equal(4+2+1, s.engine.WeaponPool(c, c.Weapons[1], false))
}

func (s *EngineSuite) TestWeaponPoolFullAuto() {
	c := s.marine()

	s.Equal(5+3+1+2, s.engine.WeaponPool(c, c.Weapons[0], true))
}

func (s *EngineSuite) TestWeaponPoolIgnoresFullAutoOnSingleShotWeapon() {
	c := s.marine()

	s.Equal(4+2+1, s.engine.WeaponPool(c, c.Weapons[1], true))
}

func (s *EngineSuite) TestWeaponPoolNegativeBonusClampsAtZero() {
	c := &model.Character{}
	w := model.Weapon{Name: "Broken rifle", Bonus: -3, Skill: model.SkillRangedCombat}

	s.Equal(0, s.engine.WeaponPool(c, w, false))
}

func (s *EngineSuite) TestWeaponPoolCloseCombatOnAgility() {
	engine := New(rules.New([]rules.SkillDef{
		{Name: "Close Combat", Attribute: model.AttrAgility},
	}))
	c := &model.Character{Agility: 3, Skills: map[string]int{"Close Combat": 2}}
	w := model.Weapon{Name: "Knife", Bonus: 1, FullAuto: false, Skill: model.SkillCloseCombat}

	s.Equal(6, engine.WeaponPool(c, w, false))
}

// Stress tests

func (s *EngineSuite) TestSkillStressIsCurrentStress() {
	c := s.marine()

	s.Equal(3, s.engine.SkillStress(c))
}

func (s *EngineSuite) TestAndroidHasNoStressDice() {
	c := s.marine()
	c.Android = true

	s.Equal(0, s.engine.SkillStress(c))
	s.Equal(0, s.engine.WeaponStress(c, c.Weapons[1], false))
}

func (s *EngineSuite) TestWeaponStressFullAuto() {
	c := s.marine()

	s.Equal(3, s.engine.WeaponStress(c, c.Weapons[0], false))
	s.Equal(4, s.engine.WeaponStress(c, c.Weapons[0], true))
	s.Equal(3, s.engine.WeaponStress(c, c.Weapons[1], true))
}

// Sheet tests

func (s *EngineSuite) TestSheetGroupsSkillsByAttribute() {
	c := s.marine()

	sheet := s.engine.Sheet(c, nil)

	s.Require().Len(sheet.Attributes, 4)
	s.Equal(model.AttrStrength, sheet.Attributes[0].Attribute)
	s.Equal("STR", sheet.Attributes[0].Label)
	s.Equal(4, sheet.Attributes[0].Value)
	s.Len(sheet.Attributes[0].Skills, 3)
	s.Equal(3, sheet.Stress)
}

func (s *EngineSuite) TestSheetAttachesWeaponsToTheirSkill() {
	c := s.marine()

	sheet := s.engine.Sheet(c, map[string]bool{"M41A Pulse Rifle": true})

	ranged := s.findSkill(sheet, "Ranged Combat")
	s.Require().Len(ranged.Weapons, 1)
	s.True(ranged.Weapons[0].FullAuto)
	s.Equal(11, ranged.Weapons[0].Pool)
	s.Equal(4, ranged.Weapons[0].StressDice)

	melee := s.findSkill(sheet, "Close Combat")
	s.Require().Len(melee.Weapons, 1)
	s.Equal("Stun Baton", melee.Weapons[0].Weapon.Name)
	s.Equal(7, melee.Weapons[0].Pool)
}

func (s *EngineSuite) TestSheetReportsUnlistedSkills() {
	c := s.marine()

	sheet := s.engine.Sheet(c, nil)

	s.Require().Len(sheet.Unlisted, 1)
	s.Equal("Juggling", sheet.Unlisted[0].Name)
	s.Equal(2, sheet.Unlisted[0].Pool)
}

func (s *EngineSuite) findSkill(sheet *Sheet, name string) SkillLine {
	for _, block := range sheet.Attributes {
		for _, line := range block.Skills {
			if line.Name == name {
				return line
			}
		}
	}
	s.FailNow("skill not on sheet", name)
	return SkillLine{}
}
