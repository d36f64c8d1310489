package sheets

import (
	"strings"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

// Sheet sections. A `#`-prefixed marker row switches the current section and
// resets the header map; the row after a marker is usually a header row.
const (
	sectionMetadata   = "METADATA"
	sectionCharacters = "CHARACTERS"
	sectionSchedules  = "SCHEDULES"
)

// ParseRows turns the raw grid into a WeeklySchedule. The grid is maintained
// by hand, so the parser is lenient: rows it cannot interpret are skipped,
// missing cells become day-off placeholders, and the result is always
// non-nil.
func ParseRows(rows [][]string) *domain.WeeklySchedule {
	weekRange := ""
	var characters []domain.CharacterSchedule
	scheduleRows := make(map[string][]string)

	section := ""
	headerMap := make(map[string]int)

	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		first := strings.TrimSpace(row[0])

		if strings.HasPrefix(first, "#") {
			switch {
			case strings.Contains(first, sectionMetadata):
				section = sectionMetadata
			case strings.Contains(first, sectionCharacters):
				section = sectionCharacters
			case strings.Contains(first, sectionSchedules):
				section = sectionSchedules
			}
			headerMap = make(map[string]int)
			continue
		}

		switch section {
		case sectionMetadata:
			if first == "Key" {
				continue
			}
			if first == "weekRange" && len(row) > 1 {
				weekRange = strings.TrimSpace(row[1])
			}
		case sectionCharacters:
			if first == "ID" {
				for i, col := range row {
					headerMap[strings.TrimSpace(col)] = i
				}
				continue
			}
			id := cellAt(row, headerMap, "ID")
			if id == "" {
				continue
			}
			characters = append(characters, domain.CharacterSchedule{
				Character: domain.Character{
					ID:         id,
					Name:       cellAt(row, headerMap, "Name"),
					ColorTheme: themeOrDefault(cellAt(row, headerMap, "Theme")),
					AvatarURL:  cellAt(row, headerMap, "Avatar URL"),
					ChzzkURL:   cellAt(row, headerMap, "Chzzk URL"),
				},
				Schedule: make(map[string]domain.ScheduleItem),
			})
		case sectionSchedules:
			if first == "ID" {
				for i, col := range row {
					headerMap[strings.TrimSpace(col)] = i
				}
				continue
			}
			id := cellAt(row, headerMap, "ID")
			if id == "" {
				continue
			}
			scheduleRows[id] = row
		}
	}

	// Merge. The SCHEDULES header map is still live here: SCHEDULES is the
	// last section of the sheet layout.
	for i := range characters {
		ch := &characters[i]
		scheduleRow := scheduleRows[ch.ID]
		for _, day := range domain.Weekdays {
			col, ok := headerMap[day]
			if scheduleRow != nil && ok && col < len(scheduleRow) && strings.TrimSpace(scheduleRow[col]) != "" {
				ch.Schedule[day] = ParseCell(scheduleRow[col])
			} else {
				ch.Schedule[day] = domain.OffItem()
			}
		}
	}

	if weekRange == "" {
		weekRange = domain.UnknownWeekRange
	}
	return &domain.WeeklySchedule{
		WeekRange:  weekRange,
		Characters: characters,
	}
}

// ParseCell interprets one schedule cell of the form `time|content|type`.
// An empty cell or the literal OFF sentinel is a day off.
func ParseCell(value string) domain.ScheduleItem {
	value = strings.TrimSpace(value)
	if value == "" || value == "OFF" {
		return domain.OffItem()
	}

	parts := strings.Split(value, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	item := domain.ScheduleItem{Type: domain.ItemTypeStream}
	if len(parts) > 0 {
		item.Time = parts[0]
	}
	if len(parts) > 1 {
		item.Content = parts[1]
	}
	if len(parts) > 2 && parts[2] != "" {
		switch typeStr := strings.ToLower(parts[2]); {
		case typeStr == "off":
			item.Type = domain.ItemTypeOff
		case strings.HasPrefix(typeStr, "collab_"):
			// Subtypes carry styling downstream, keep them intact.
			item.Type = domain.ScheduleItemType(typeStr)
		case strings.Contains(typeStr, "collab"):
			item.Type = domain.ItemTypeCollab
		}
	}

	return item
}

func cellAt(row []string, headerMap map[string]int, name string) string {
	i, ok := headerMap[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func themeOrDefault(theme string) string {
	if theme == "" {
		return "varessa"
	}
	return theme
}
