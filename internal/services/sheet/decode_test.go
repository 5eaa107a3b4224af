package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/charsheet/internal/model"
)

func TestDecodeKnownKinds(t *testing.T) {
	tests := []struct {
		kind string
		body string
		want Edit
	}{
		{KindSetAttribute, `{"attribute":"strength","value":5}`, SetAttribute{Attribute: model.AttrStrength, Value: 5}},
		{KindToggleHealth, `{"index":2}`, ToggleHealth{Index: 2}},
		{KindToggleStress, `{"index":0}`, ToggleStress{Index: 0}},
		{KindAddInjury, `{"text":"Concussion"}`, AddInjury{Text: "Concussion"}},
		{KindRemoveGear, `{"index":1}`, RemoveGear{Index: 1}},
		{KindAddWeapon, `{"weapon":{"name":"Stun Baton","bonus":1,"skill":"Close Combat"}}`,
			AddWeapon{Weapon: model.Weapon{Name: "Stun Baton", Bonus: 1, Skill: model.SkillCloseCombat}}},
		{KindSetEncumbrance, ``, SetEncumbrance{}},
	}
	for _, tt := range tests {
		t.Run(tt.kind, func(t *testing.T) {
			got, err := Decode(tt.kind, []byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.kind, got.Kind())
		})
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	_, err := Decode("roll_dice", []byte(`{}`))
	assert.ErrorIs(t, err, model.ErrUnknownEdit)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := Decode(KindToggleHealth, []byte(`{"index":1,"box":2}`))
	assert.Error(t, err)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	edit := SetSkill{Skill: "Comtech", Level: 3}

	data, err := Encode(edit)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"set_skill","skill":"Comtech","level":3}`, string(data))

	got, err := DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, edit, got)
}
