package sheet

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mcoot/charsheet/internal/model"
)

// Envelope is the wire form of an edit: its kind plus the intent fields
type Envelope struct {
	Kind string `json:"kind"`
}

// Decode turns a JSON payload into the edit named by kind.
// Unknown fields are rejected.
func Decode(kind string, data []byte) (Edit, error) {
	var edit Edit
	var err error
	switch kind {
	case KindSetAttribute:
		edit, err = decodeInto[SetAttribute](data)
	case KindToggleHealth:
		edit, err = decodeInto[ToggleHealth](data)
	case KindToggleStress:
		edit, err = decodeInto[ToggleStress](data)
	case KindAddInjury:
		edit, err = decodeInto[AddInjury](data)
	case KindRemoveInjury:
		edit, err = decodeInto[RemoveInjury](data)
	case KindAddGear:
		edit, err = decodeInto[AddGear](data)
	case KindRemoveGear:
		edit, err = decodeInto[RemoveGear](data)
	case KindAddWeapon:
		edit, err = decodeInto[AddWeapon](data)
	case KindRemoveWeapon:
		edit, err = decodeInto[RemoveWeapon](data)
	case KindSetArmor:
		edit, err = decodeInto[SetArmor](data)
	case KindSetEncumbrance:
		edit, err = decodeInto[SetEncumbrance](data)
	case KindSetSkill:
		edit, err = decodeInto[SetSkill](data)
	case KindSetDetails:
		edit, err = decodeInto[SetDetails](data)
	default:
		return nil, fmt.Errorf("%w: %q", model.ErrUnknownEdit, kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return edit, nil
}

// DecodeEnvelope decodes a payload that carries its own kind field
func DecodeEnvelope(data []byte) (Edit, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode edit: %w", err)
	}
	return Decode(env.Kind, stripKind(data))
}

// Encode produces the wire form of an edit, kind included
func Encode(edit Edit) ([]byte, error) {
	body, err := json.Marshal(edit)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(edit.Kind())
	fields["kind"] = kind
	return json.Marshal(fields)
}

func decodeInto[T Edit](data []byte) (Edit, error) {
	var v T
	if len(bytes.TrimSpace(data)) == 0 {
		return v, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func stripKind(data []byte) []byte {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return data
	}
	delete(fields, "kind")
	out, err := json.Marshal(fields)
	if err != nil {
		return data
	}
	return out
}
