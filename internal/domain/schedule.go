package domain

import "strings"

// Weekday codes, fixed 7-element domain. Order matters: it is the render
// order of a week and the iteration order of reconciliation.
const (
	DayMon = "MON"
	DayTue = "TUE"
	DayWed = "WED"
	DayThu = "THU"
	DayFri = "FRI"
	DaySat = "SAT"
	DaySun = "SUN"
)

var Weekdays = []string{DayMon, DayTue, DayWed, DayThu, DayFri, DaySat, DaySun}

func IsWeekday(code string) bool {
	for _, d := range Weekdays {
		if d == code {
			return true
		}
	}
	return false
}

type ScheduleItemType string

const (
	ItemTypeStream ScheduleItemType = "stream"
	ItemTypeCollab ScheduleItemType = "collab"
	ItemTypeOff    ScheduleItemType = "off"
)

// Valid reports whether t is a known item type. Collab subtypes
// (collab_maivi, collab_hanavi, ...) are valid as a family.
func (t ScheduleItemType) Valid() bool {
	switch t {
	case ItemTypeStream, ItemTypeCollab, ItemTypeOff:
		return true
	}
	return strings.HasPrefix(string(t), "collab_")
}

// OffContent is the placeholder content of a day-off cell.
const OffContent = "휴방"

// UnknownWeekRange is the label used when no week identity is available.
const UnknownWeekRange = "날짜 미정"

type ScheduleItem struct {
	Time     string           `json:"time"`
	Content  string           `json:"content"`
	Type     ScheduleItemType `json:"type"`
	VideoURL string           `json:"videoUrl,omitempty"`
}

// OffItem returns the synthesized placeholder for a non-broadcast day.
func OffItem() ScheduleItem {
	return ScheduleItem{Time: "", Content: OffContent, Type: ItemTypeOff}
}

type CharacterSchedule struct {
	Character
	// Keyed by weekday code. Complete (all 7 days) after reconciliation.
	Schedule map[string]ScheduleItem `json:"schedule"`
}

type WeeklySchedule struct {
	// Label of the form "MM.DD - MM.DD"; the natural key of a week record.
	WeekRange  string              `json:"weekRange"`
	Characters []CharacterSchedule `json:"characters"`
}
