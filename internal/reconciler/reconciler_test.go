package reconciler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

func strPtr(s string) *string { return &s }

func int32Ptr(i int32) *int32 { return &i }

func baselines() map[string]domain.CharacterBaseline {
	return map[string]domain.CharacterBaseline{
		"varessa": {CharacterID: "varessa", DefaultTime: "08:00", OffDays: []string{domain.DayThu, domain.DaySun}},
		"nemu":    {CharacterID: "nemu", DefaultTime: "12:00", OffDays: []string{domain.DayMon, domain.DayThu}},
	}
}

func TestBuildWeek_EveryCharacterHasSevenDays(t *testing.T) {
	roster := []*domain.Character{
		{ID: "varessa", Name: "바레사"},
		{ID: "unknown", Name: "신인"},
	}

	week := BuildWeek("01.05 - 01.11", roster, baselines(), nil)

	require.Len(t, week.Characters, 2)
	for _, ch := range week.Characters {
		assert.Len(t, ch.Schedule, 7, "character %s must have all 7 days", ch.ID)
		for _, day := range domain.Weekdays {
			assert.Contains(t, ch.Schedule, day)
		}
	}
}

func TestBuildWeek_BaselineFillsDefaults(t *testing.T) {
	roster := []*domain.Character{{ID: "varessa", Name: "바레사"}}

	week := BuildWeek("01.05 - 01.11", roster, baselines(), nil)

	schedule := week.Characters[0].Schedule
	assert.Equal(t, domain.OffItem(), schedule[domain.DayThu])
	assert.Equal(t, domain.OffItem(), schedule[domain.DaySun])
	assert.Equal(t, "08:00", schedule[domain.DayMon].Time)
	assert.Equal(t, domain.ItemTypeStream, schedule[domain.DayMon].Type)
}

func TestBuildWeek_UnknownCharacterGetsFallback(t *testing.T) {
	roster := []*domain.Character{{ID: "newbie", Name: "신인"}}

	week := BuildWeek("01.05 - 01.11", roster, baselines(), nil)

	schedule := week.Characters[0].Schedule
	for _, day := range domain.Weekdays {
		assert.Equal(t, "00:00", schedule[day].Time)
		assert.Equal(t, domain.ItemTypeStream, schedule[day].Type)
	}
}

func TestBuildWeek_ConfigurationBeatsBaseline(t *testing.T) {
	roster := []*domain.Character{{
		ID:             "varessa",
		Name:           "바레사",
		DefaultTime:    strPtr("20:00"),
		RegularHoliday: strPtr(domain.DayMon),
	}}

	week := BuildWeek("01.05 - 01.11", roster, baselines(), nil)

	schedule := week.Characters[0].Schedule
	assert.Equal(t, domain.OffItem(), schedule[domain.DayMon])
	// The baseline's off days no longer apply once a holiday is configured.
	assert.Equal(t, "20:00", schedule[domain.DayThu].Time)
	assert.Equal(t, "20:00", schedule[domain.DaySun].Time)
}

func TestBuildWeek_EmptyHolidayMeansNoDaysOff(t *testing.T) {
	roster := []*domain.Character{{
		ID:             "varessa",
		Name:           "바레사",
		RegularHoliday: strPtr(""),
	}}

	week := BuildWeek("01.05 - 01.11", roster, baselines(), nil)

	for _, day := range domain.Weekdays {
		assert.Equal(t, domain.ItemTypeStream, week.Characters[0].Schedule[day].Type,
			"configured-empty holiday must not fall back to the baseline off days")
	}
}

func TestBuildWeek_OverrideBeatsSynthesizedOffDay(t *testing.T) {
	roster := []*domain.Character{{
		ID:             "varessa",
		Name:           "바레사",
		RegularHoliday: strPtr(domain.DayMon),
	}}
	overrides := OverridesFromItems([]ItemRow{
		{CharacterID: "varessa", Day: domain.DayMon, Item: domain.ScheduleItem{Time: "21:00", Content: "특별 방송", Type: domain.ItemTypeStream}},
	})

	week := BuildWeek("01.05 - 01.11", roster, baselines(), overrides)

	item := week.Characters[0].Schedule[domain.DayMon]
	assert.Equal(t, domain.ItemTypeStream, item.Type)
	assert.Equal(t, "21:00", item.Time)
	assert.Equal(t, "특별 방송", item.Content)
}

func TestBuildWeek_OverrideReplacesWholeCell(t *testing.T) {
	roster := []*domain.Character{{ID: "varessa", Name: "바레사"}}
	overrides := OverridesFromItems([]ItemRow{
		{CharacterID: "varessa", Day: domain.DayMon, Item: domain.ScheduleItem{Type: domain.ItemTypeOff, Content: domain.OffContent}},
	})

	week := BuildWeek("01.05 - 01.11", roster, baselines(), overrides)

	item := week.Characters[0].Schedule[domain.DayMon]
	assert.Equal(t, domain.ItemTypeOff, item.Type)
	assert.Empty(t, item.Time, "no field merge with the synthesized default")
}

func TestOverridesFromItems_DropsUnknownDays(t *testing.T) {
	overrides := OverridesFromItems([]ItemRow{
		{CharacterID: "varessa", Day: "FOO", Item: domain.ScheduleItem{Type: domain.ItemTypeStream}},
		{CharacterID: "varessa", Day: domain.DayTue, Item: domain.ScheduleItem{Type: domain.ItemTypeStream}},
	})

	require.Contains(t, overrides, "varessa")
	assert.Len(t, overrides["varessa"], 1)
}

func TestSortCharacters_ExplicitOrderWins(t *testing.T) {
	roster := []*domain.Character{
		{ID: "iriya", SortOrder: int32Ptr(1)},
		{ID: "varessa", SortOrder: int32Ptr(2)},
	}

	week := BuildWeek("01.05 - 01.11", roster, nil, nil)

	assert.Equal(t, "iriya", week.Characters[0].ID)
	assert.Equal(t, "varessa", week.Characters[1].ID)
}

func TestSortCharacters_MissingOrderSortsLast(t *testing.T) {
	roster := []*domain.Character{
		{ID: "newbie"},
		{ID: "ruvi", SortOrder: int32Ptr(3)},
	}

	week := BuildWeek("01.05 - 01.11", roster, nil, nil)

	assert.Equal(t, "ruvi", week.Characters[0].ID)
	assert.Equal(t, "newbie", week.Characters[1].ID)
}

func TestSortCharacters_LegacyOrderBreaksTies(t *testing.T) {
	// Input deliberately reversed relative to the legacy order.
	roster := []*domain.Character{
		{ID: "iriya"},
		{ID: "nemu"},
		{ID: "varessa"},
	}

	week := BuildWeek("01.05 - 01.11", roster, nil, nil)

	assert.Equal(t, "varessa", week.Characters[0].ID)
	assert.Equal(t, "nemu", week.Characters[1].ID)
	assert.Equal(t, "iriya", week.Characters[2].ID)
}

func TestSortCharacters_UnknownTiesKeepInputOrder(t *testing.T) {
	roster := []*domain.Character{
		{ID: "zeta"},
		{ID: "alpha"},
	}

	week := BuildWeek("01.05 - 01.11", roster, nil, nil)

	assert.Equal(t, "zeta", week.Characters[0].ID)
	assert.Equal(t, "alpha", week.Characters[1].ID)
}
