package utils

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

// Accepts 24:00, which some characters use as "midnight start".
var timePattern = regexp.MustCompile(`^(([01][0-9]|2[0-3]):[0-5][0-9]|24:00)$`)

func ValidTimeOfDay(value string) bool {
	return timePattern.MatchString(value)
}

// ValidateWeeklySchedule checks a submitted week beyond what struct tags can
// express: day codes, item types, time formats and duplicate characters.
// Empty item types are normalized to stream in place.
func ValidateWeeklySchedule(ws *domain.WeeklySchedule) error {
	if ws.WeekRange == "" {
		return errors.New("weekRange is required")
	}

	seen := make(map[string]bool)
	for i := range ws.Characters {
		ch := &ws.Characters[i]
		if ch.ID == "" {
			return fmt.Errorf("character at index %d has no id", i)
		}
		if seen[ch.ID] {
			return fmt.Errorf("duplicate character id %q", ch.ID)
		}
		seen[ch.ID] = true

		if ch.DefaultTime != nil && *ch.DefaultTime != "" && !ValidTimeOfDay(*ch.DefaultTime) {
			return fmt.Errorf("character %q has an invalid default time %q", ch.ID, *ch.DefaultTime)
		}
		if holidays, ok := ch.RegularHolidaySet(); ok {
			for day := range holidays {
				if !domain.IsWeekday(day) {
					return fmt.Errorf("character %q has an invalid holiday day code %q", ch.ID, day)
				}
			}
		}

		for day, item := range ch.Schedule {
			if !domain.IsWeekday(day) {
				return fmt.Errorf("character %q has an invalid day code %q", ch.ID, day)
			}
			if item.Type == "" {
				item.Type = domain.ItemTypeStream
				ch.Schedule[day] = item
			}
			if !item.Type.Valid() {
				return fmt.Errorf("character %q has an invalid item type %q on %s", ch.ID, item.Type, day)
			}
			if item.Time != "" && !ValidTimeOfDay(item.Time) {
				return fmt.Errorf("character %q has an invalid time %q on %s", ch.ID, item.Time, day)
			}
		}
	}

	return nil
}
