package domain

import "strings"

type Character struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ColorTheme string `json:"colorTheme,omitempty"`
	AvatarURL  string `json:"avatarUrl,omitempty"`
	ChzzkURL   string `json:"chzzkUrl,omitempty"`

	YoutubeChannelID string `json:"youtubeChannelId,omitempty"`
	YoutubeReplayURL string `json:"youtubeReplayUrl,omitempty"`

	// Comma-separated weekday codes, e.g. "MON,THU". nil means the character
	// has no configuration and the baseline applies; an empty string means
	// "no regular days off" and must NOT fall back to the baseline.
	RegularHoliday *string `json:"regularHoliday,omitempty"`
	// HH:MM default start time. nil falls back to the baseline.
	DefaultTime *string `json:"defaultTime,omitempty"`
	// Total order key; nil sorts last.
	SortOrder *int32 `json:"sortOrder,omitempty"`

	ColorBg     string `json:"colorBg,omitempty"`
	ColorBorder string `json:"colorBorder,omitempty"`
}

// HasConfig reports whether the payload carries any permanent configuration
// field. Mirrors the save boundary's "editing a week may also edit the
// member" behavior.
func (c *Character) HasConfig() bool {
	return c.YoutubeChannelID != "" ||
		c.YoutubeReplayURL != "" ||
		c.RegularHoliday != nil ||
		c.DefaultTime != nil ||
		c.SortOrder != nil ||
		c.ColorBg != "" ||
		c.ColorBorder != ""
}

// RegularHolidaySet splits the configured holiday string into a set of
// weekday codes. The second return value distinguishes "configured empty"
// from "not configured at all".
func (c *Character) RegularHolidaySet() (map[string]bool, bool) {
	if c.RegularHoliday == nil {
		return nil, false
	}
	set := make(map[string]bool)
	for _, d := range strings.Split(*c.RegularHoliday, ",") {
		d = strings.TrimSpace(d)
		if d != "" {
			set[d] = true
		}
	}
	return set, true
}

// CharacterBaseline is the data-driven default configuration for one
// character, consulted only when the character row itself carries no value.
type CharacterBaseline struct {
	CharacterID string   `json:"characterId"`
	DefaultTime string   `json:"defaultTime"`
	OffDays     []string `json:"offDays"`
}

// LegacyCharacterOrder is the historical display order, used as the sort
// tie-break when sortOrder does not decide.
var LegacyCharacterOrder = []string{
	"varessa", "cherii", "nemu", "maroka", "mirai", "aella", "ruvi", "iriya",
}
