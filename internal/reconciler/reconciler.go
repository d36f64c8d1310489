// Package reconciler merges per-character defaults with persisted per-day
// overrides into one complete week view. It is pure: storage access happens
// in the caller, reconciliation itself only transforms data.
package reconciler

import (
	"sort"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

// sortOrderSentinel places characters without a sort order at the end.
const sortOrderSentinel = 9999

// fallbackBaseline applies when neither a baseline row nor character
// configuration exists for an id.
var fallbackBaseline = domain.CharacterBaseline{DefaultTime: "00:00"}

// Overrides maps characterID -> weekday code -> persisted cell.
type Overrides map[string]map[string]domain.ScheduleItem

// OverridesFromItems folds a flat list of persisted item rows into the
// lookup shape BuildWeek consumes. Rows with unknown weekday codes are
// dropped.
func OverridesFromItems(items []ItemRow) Overrides {
	overrides := make(Overrides)
	for _, row := range items {
		if !domain.IsWeekday(row.Day) {
			continue
		}
		if overrides[row.CharacterID] == nil {
			overrides[row.CharacterID] = make(map[string]domain.ScheduleItem)
		}
		overrides[row.CharacterID][row.Day] = row.Item
	}
	return overrides
}

// ItemRow is one persisted override cell, decoupled from the repository's
// row type so this package stays storage-free.
type ItemRow struct {
	CharacterID string
	Day         string
	Item        domain.ScheduleItem
}

// BuildWeek produces the complete week view for weekRange. Every character
// ends up with exactly 7 entries: synthesized defaults from baseline and
// configuration, then persisted overrides replacing whole cells. Precedence,
// lowest to highest: baseline < character configuration < persisted item.
func BuildWeek(weekRange string, roster []*domain.Character, baselines map[string]domain.CharacterBaseline, overrides Overrides) *domain.WeeklySchedule {
	characters := make([]domain.CharacterSchedule, 0, len(roster))

	for _, char := range roster {
		baseline, ok := baselines[char.ID]
		if !ok {
			baseline = fallbackBaseline
		}

		defaultTime := baseline.DefaultTime
		if char.DefaultTime != nil && *char.DefaultTime != "" {
			defaultTime = *char.DefaultTime
		}

		// A configured holiday set wins even when empty: empty means "no
		// regular days off", only an absent configuration falls back to the
		// baseline's off days.
		holidaySet, configured := char.RegularHolidaySet()
		isOff := func(day string) bool {
			if configured {
				return holidaySet[day]
			}
			for _, d := range baseline.OffDays {
				if d == day {
					return true
				}
			}
			return false
		}

		schedule := make(map[string]domain.ScheduleItem, len(domain.Weekdays))
		for _, day := range domain.Weekdays {
			if isOff(day) {
				schedule[day] = domain.OffItem()
			} else {
				schedule[day] = domain.ScheduleItem{Time: defaultTime, Content: "", Type: domain.ItemTypeStream}
			}
		}

		// Overrides replace the synthesized cell wholesale, no field merge.
		for day, item := range overrides[char.ID] {
			schedule[day] = item
		}

		characters = append(characters, domain.CharacterSchedule{
			Character: *char,
			Schedule:  schedule,
		})
	}

	sortCharacters(characters)

	return &domain.WeeklySchedule{
		WeekRange:  weekRange,
		Characters: characters,
	}
}

func sortKey(c *domain.CharacterSchedule) int32 {
	if c.SortOrder != nil {
		return *c.SortOrder
	}
	return sortOrderSentinel
}

func legacyIndex(id string) int {
	for i, legacy := range domain.LegacyCharacterOrder {
		if legacy == id {
			return i
		}
	}
	return -1
}

// sortCharacters orders by sortOrder ascending; ties fall back to the legacy
// name order when both ids appear in it, otherwise input order is kept.
func sortCharacters(characters []domain.CharacterSchedule) {
	sort.SliceStable(characters, func(i, j int) bool {
		oi, oj := sortKey(&characters[i]), sortKey(&characters[j])
		if oi != oj {
			return oi < oj
		}
		li, lj := legacyIndex(characters[i].ID), legacyIndex(characters[j].ID)
		if li != -1 && lj != -1 {
			return li < lj
		}
		return false
	})
}
