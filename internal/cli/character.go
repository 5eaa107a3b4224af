package cli

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/charsheet/internal/services/sheet"
)

func newCharacterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "character",
		Aliases: []string{"char"},
		Short:   "View, claim and edit characters",
	}

	cmd.AddCommand(newCharacterListCmd())
	cmd.AddCommand(newCharacterShowCmd())
	cmd.AddCommand(newCharacterSheetCmd())
	cmd.AddCommand(newCharacterEditCmd())
	cmd.AddCommand(newCharacterClaimCmd())

	return cmd
}

func newCharacterListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the characters you can see",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result CharacterList

			if err := client.Get("/api/v1/characters", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newCharacterShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a character record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Character

			if err := client.Get(characterPath(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newCharacterSheetCmd() *cobra.Command {
	var auto []string

	cmd := &cobra.Command{
		Use:   "sheet <id>",
		Short: "Show a character's dice pools",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := characterPath(args[0]) + "/sheet"
			if len(auto) > 0 {
				path += "?" + url.Values{"auto": {strings.Join(auto, ",")}}.Encode()
			}

			var result Sheet
			if err := client.Get(path, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&auto, "auto", nil, "Weapons to roll with full auto")

	return cmd
}

func newCharacterEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <id> <kind> [field=value ...]",
		Short: "Apply an edit to a character",
		Long: `Apply one edit to a character. Fields are given as field=value pairs;
numbers and JSON objects are sent as such, anything else as a string.

Examples:
  charsheet character edit mason toggle_health index=1
  charsheet character edit mason set_attribute attribute=strength value=4
  charsheet character edit mason add_gear text="Flashlight"
  charsheet character edit mason set_skill skill="Mobility" level=2
  charsheet character edit mason add_weapon 'weapon={"name":"Knife","bonus":1,"damage":1,"range":"Engaged","skill":"Close Combat"}'

Kinds: ` + strings.Join(editKinds, ", "),
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := buildEdit(args[1], args[2:])
			if err != nil {
				return err
			}

			var result Character
			if err := client.Post(characterPath(args[0])+"/edits", body, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	return cmd
}

func newCharacterClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <id>",
		Short: "Claim an unassigned character",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Character

			if err := client.Post(characterPath(args[0])+"/claim", nil, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

var editKinds = []string{
	sheet.KindSetAttribute,
	sheet.KindToggleHealth,
	sheet.KindToggleStress,
	sheet.KindAddInjury,
	sheet.KindRemoveInjury,
	sheet.KindAddGear,
	sheet.KindRemoveGear,
	sheet.KindAddWeapon,
	sheet.KindRemoveWeapon,
	sheet.KindSetArmor,
	sheet.KindSetEncumbrance,
	sheet.KindSetSkill,
	sheet.KindSetDetails,
}

// buildEdit turns field=value pairs into the wire form of an edit.
// The edit is decoded locally first so typos fail before any request.
func buildEdit(kind string, pairs []string) (json.RawMessage, error) {
	fields := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q: want field=value", pair)
		}
		fields[key] = parseFieldValue(value)
	}

	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	edit, err := sheet.Decode(kind, data)
	if err != nil {
		return nil, err
	}
	return sheet.Encode(edit)
}

func parseFieldValue(value string) any {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	if strings.HasPrefix(value, "{") || strings.HasPrefix(value, "[") {
		var raw json.RawMessage
		if json.Unmarshal([]byte(value), &raw) == nil {
			return raw
		}
	}
	return value
}

func characterPath(id string) string {
	return "/api/v1/characters/" + url.PathEscape(id)
}
