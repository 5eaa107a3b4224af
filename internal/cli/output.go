package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == OutputJSON {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == OutputJSON {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		red.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == OutputJSON {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
	} else {
		green.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case User:
		o.printUser(v)
	case []User:
		o.printUsers(v)
	case AuthResult:
		o.printAuthResult(v)
	case Me:
		o.printMe(v)
	case Character:
		o.printCharacter(v)
	case CharacterList:
		o.printCharacterList(v)
	case Sheet:
		o.printSheet(v)
	case Catalog:
		o.printCatalog(v)
	case SeedResult:
		green.Fprintf(o.w, "Seeded %d characters\n", v.Seeded)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// User response type (matches API)
type User struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	IsGuest     bool    `json:"is_guest"`
}

// AuthResult combines user and token
type AuthResult struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
	ExpiresAt    string `json:"expires_at"`
}

// Viewer is the caller's resolved access state
type Viewer struct {
	State       string  `json:"state"`
	UserID      string  `json:"userId,omitempty"`
	CharacterID *string `json:"characterId,omitempty"`
}

// Me is the signed-in user and their access state
type Me struct {
	User   User   `json:"user"`
	Viewer Viewer `json:"viewer"`
}

// Weapon response type
type Weapon struct {
	Name     string `json:"name"`
	Bonus    int    `json:"bonus"`
	Damage   int    `json:"damage"`
	Range    string `json:"range"`
	FullAuto bool   `json:"fullAuto"`
	Skill    string `json:"skill"`
}

// Character response type
type Character struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	FullName         string         `json:"fullName"`
	Rank             string         `json:"rank"`
	Career           string         `json:"career"`
	Age              int            `json:"age"`
	Personality      string         `json:"personality"`
	Strength         int            `json:"strength"`
	Agility          int            `json:"agility"`
	Wits             int            `json:"wits"`
	Empathy          int            `json:"empathy"`
	Health           int            `json:"health"`
	MaxHealth        int            `json:"maxHealth"`
	Stress           int            `json:"stress"`
	Skills           map[string]int `json:"skills"`
	Talent1          string         `json:"talent1"`
	Talent2          string         `json:"talent2"`
	Buddy            string         `json:"buddy"`
	Rival            string         `json:"rival"`
	SignatureItem    string         `json:"signatureItem"`
	Gear             []string       `json:"gear"`
	Weapons          []Weapon       `json:"weapons"`
	Armor            string         `json:"armor"`
	ArmorRating      int            `json:"armorRating"`
	Encumbrance      int            `json:"encumbrance"`
	CriticalInjuries []string       `json:"criticalInjuries"`
	AssignedUserID   *string        `json:"assignedUserId"`
	Disabled         bool           `json:"disabled"`
	Android          bool           `json:"android"`
}

// CharacterList response type
type CharacterList struct {
	Characters []Character `json:"characters"`
}

// WeaponLine is a weapon roll in a sheet
type WeaponLine struct {
	Weapon     Weapon `json:"weapon"`
	FullAuto   bool   `json:"full_auto"`
	Pool       int    `json:"pool"`
	StressDice int    `json:"stress_dice"`
}

// SkillLine is a skill roll in a sheet
type SkillLine struct {
	Name       string       `json:"name"`
	Level      int          `json:"level"`
	Pool       int          `json:"pool"`
	StressDice int          `json:"stress_dice"`
	Weapons    []WeaponLine `json:"weapons,omitempty"`
}

// AttributeBlock groups skills under an attribute
type AttributeBlock struct {
	Attribute string      `json:"attribute"`
	Label     string      `json:"label"`
	Value     int         `json:"value"`
	Skills    []SkillLine `json:"skills"`
}

// Sheet is the derived dice pools of a character
type Sheet struct {
	CharacterID string           `json:"character_id"`
	Name        string           `json:"name"`
	Android     bool             `json:"android"`
	Health      int              `json:"health"`
	MaxHealth   int              `json:"max_health"`
	Stress      int              `json:"stress"`
	Attributes  []AttributeBlock `json:"attributes"`
	Unlisted    []SkillLine      `json:"unlisted,omitempty"`
}

// Catalog response type
type Catalog struct {
	Attributes []struct {
		Name  string `json:"name"`
		Label string `json:"label"`
	} `json:"attributes"`
	Skills []struct {
		Name      string `json:"name"`
		Attribute string `json:"attribute"`
	} `json:"skills"`
	Talents     map[string]string `json:"talents"`
	Weapons     []Weapon          `json:"weapons"`
	Backstories map[string]string `json:"backstories"`
}

// SeedResult response type
type SeedResult struct {
	Seeded int `json:"seeded"`
}

// HealthResult response type
type HealthResult struct {
	Status      string `json:"status"`
	Storage     string `json:"storage"`
	Characters  int    `json:"characters"`
	LiveClients int    `json:"live_clients"`
}

func (o *Output) printUser(u User) {
	guestStr := "no"
	if u.IsGuest {
		guestStr = "yes"
	}
	fmt.Fprintf(o.w, "User: %s (%s)\n", bold.Sprint(u.Label), u.ID)
	fmt.Fprintf(o.w, "Guest: %s\n", guestStr)
}

func (o *Output) printUsers(users []User) {
	if len(users) == 0 {
		faint.Fprintln(o.w, "No users")
		return
	}
	for _, u := range users {
		guest := ""
		if u.IsGuest {
			guest = faint.Sprint(" [guest]")
		}
		fmt.Fprintf(o.w, "  %s  %s%s\n", cyan.Sprint(u.ID), u.Label, guest)
	}
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printUser(a.User)
	fmt.Fprintf(o.w, "Token: %s\n", a.SessionToken)
}

func (o *Output) printMe(m Me) {
	o.printUser(m.User)
	fmt.Fprintf(o.w, "Access: %s\n", stateColor(m.Viewer.State).Sprint(m.Viewer.State))
	if m.Viewer.CharacterID != nil {
		fmt.Fprintf(o.w, "Character: %s\n", *m.Viewer.CharacterID)
	}
}

func stateColor(state string) *color.Color {
	switch state {
	case "gm":
		return yellow
	case "player_claimed":
		return green
	case "unauthenticated":
		return red
	default:
		return cyan
	}
}

func (o *Output) printCharacterList(l CharacterList) {
	if len(l.Characters) == 0 {
		faint.Fprintln(o.w, "No characters")
		return
	}
	for _, c := range l.Characters {
		status := green.Sprint("available")
		switch {
		case c.Disabled:
			status = faint.Sprint("disabled")
		case c.AssignedUserID != nil:
			status = yellow.Sprintf("claimed by %s", *c.AssignedUserID)
		}
		fmt.Fprintf(o.w, "  %-10s %-12s %-20s %s\n", cyan.Sprint(c.ID), bold.Sprint(c.Name), c.Career, status)
	}
}

func (o *Output) printCharacter(c Character) {
	fmt.Fprintf(o.w, "%s  %s\n", bold.Sprint(c.Name), faint.Sprintf("(%s)", c.ID))
	if c.FullName != "" {
		fmt.Fprintf(o.w, "%s, %s, age %d\n", c.FullName, c.Rank, c.Age)
	}
	fmt.Fprintf(o.w, "Career: %s\n", c.Career)
	if c.Android {
		cyan.Fprintln(o.w, "Android")
	}
	fmt.Fprintf(o.w, "STR %d  AGI %d  WIT %d  EMP %d\n", c.Strength, c.Agility, c.Wits, c.Empathy)
	fmt.Fprintf(o.w, "Health: %s\n", track(c.Health, c.MaxHealth, green))
	if !c.Android {
		fmt.Fprintf(o.w, "Stress: %s\n", track(c.Stress, 10, yellow))
	}

	if len(c.Skills) > 0 {
		names := make([]string, 0, len(c.Skills))
		for name := range c.Skills {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(o.w, "Skills:")
		for _, name := range names {
			fmt.Fprintf(o.w, "  %-18s %d\n", name, c.Skills[name])
		}
	}

	fmt.Fprintf(o.w, "Talents: %s\n", joinNonEmpty(c.Talent1, c.Talent2))
	if c.Buddy != "" || c.Rival != "" {
		fmt.Fprintf(o.w, "Buddy: %s  Rival: %s\n", c.Buddy, c.Rival)
	}
	if c.SignatureItem != "" {
		fmt.Fprintf(o.w, "Signature item: %s\n", c.SignatureItem)
	}
	if c.Armor != "" {
		fmt.Fprintf(o.w, "Armor: %s (%d)\n", c.Armor, c.ArmorRating)
	}
	fmt.Fprintf(o.w, "Encumbrance: %d\n", c.Encumbrance)

	if len(c.Gear) > 0 {
		fmt.Fprintln(o.w, "Gear:")
		for i, g := range c.Gear {
			fmt.Fprintf(o.w, "  %d. %s\n", i, g)
		}
	}
	if len(c.CriticalInjuries) > 0 {
		red.Fprintln(o.w, "Critical injuries:")
		for i, inj := range c.CriticalInjuries {
			fmt.Fprintf(o.w, "  %d. %s\n", i, inj)
		}
	}
	if c.Disabled {
		faint.Fprintln(o.w, "This character is disabled")
	}
}

func (o *Output) printSheet(s Sheet) {
	fmt.Fprintf(o.w, "%s  health %s", bold.Sprint(s.Name), track(s.Health, s.MaxHealth, green))
	if !s.Android {
		fmt.Fprintf(o.w, "  stress dice %s", yellow.Sprint(s.Stress))
	}
	fmt.Fprintln(o.w)

	for _, block := range s.Attributes {
		fmt.Fprintf(o.w, "\n%s %d\n", cyan.Sprint(strings.ToUpper(block.Label)), block.Value)
		for _, skill := range block.Skills {
			o.printSkillLine(skill)
		}
	}
	if len(s.Unlisted) > 0 {
		fmt.Fprintf(o.w, "\n%s\n", cyan.Sprint("OTHER"))
		for _, skill := range s.Unlisted {
			o.printSkillLine(skill)
		}
	}
}

func (o *Output) printSkillLine(s SkillLine) {
	fmt.Fprintf(o.w, "  %-18s lvl %d  pool %s%s\n", s.Name, s.Level, bold.Sprint(s.Pool), stressSuffix(s.StressDice))
	for _, w := range s.Weapons {
		auto := ""
		if w.FullAuto {
			auto = yellow.Sprint(" [full auto]")
		}
		fmt.Fprintf(o.w, "    %-20s pool %s%s%s\n", w.Weapon.Name, bold.Sprint(w.Pool), stressSuffix(w.StressDice), auto)
	}
}

func stressSuffix(n int) string {
	if n == 0 {
		return ""
	}
	return yellow.Sprintf(" +%d stress", n)
}

func (o *Output) printCatalog(c Catalog) {
	fmt.Fprintln(o.w, bold.Sprint("Skills:"))
	for _, s := range c.Skills {
		fmt.Fprintf(o.w, "  %-18s %s\n", s.Name, faint.Sprint(s.Attribute))
	}

	fmt.Fprintln(o.w, bold.Sprint("Weapons:"))
	for _, w := range c.Weapons {
		auto := ""
		if w.FullAuto {
			auto = " full auto"
		}
		fmt.Fprintf(o.w, "  %-22s +%d dmg %d %s (%s)%s\n", w.Name, w.Bonus, w.Damage, w.Range, w.Skill, auto)
	}

	names := make([]string, 0, len(c.Talents))
	for name := range c.Talents {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Fprintln(o.w, bold.Sprint("Talents:"))
	for _, name := range names {
		fmt.Fprintf(o.w, "  %s: %s\n", cyan.Sprint(name), c.Talents[name])
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	status := green.Sprint(h.Status)
	if h.Status != "ok" {
		status = red.Sprint(h.Status)
	}
	fmt.Fprintf(o.w, "Status: %s\n", status)
	if h.Storage != "" {
		fmt.Fprintf(o.w, "Storage: %s (%d characters)\n", h.Storage, h.Characters)
		fmt.Fprintf(o.w, "Live clients: %d\n", h.LiveClients)
	}
}

// track renders a box track such as [###..]
func track(current, length int, c *color.Color) string {
	if length <= 0 {
		return fmt.Sprintf("%d", current)
	}
	filled := min(max(current, 0), length)
	return "[" + c.Sprint(strings.Repeat("#", filled)) + strings.Repeat(".", length-filled) + fmt.Sprintf("] %d/%d", current, length)
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ", ")
}
