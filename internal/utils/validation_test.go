package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

func validWeek() *domain.WeeklySchedule {
	return &domain.WeeklySchedule{
		WeekRange: "01.05 - 01.11",
		Characters: []domain.CharacterSchedule{
			{
				Character: domain.Character{ID: "varessa", Name: "바레사"},
				Schedule: map[string]domain.ScheduleItem{
					domain.DayMon: {Time: "08:00", Content: "모닝 방송", Type: domain.ItemTypeStream},
					domain.DayTue: {Type: domain.ItemTypeOff, Content: domain.OffContent},
				},
			},
		},
	}
}

func TestValidateWeeklySchedule_Valid(t *testing.T) {
	assert.NoError(t, ValidateWeeklySchedule(validWeek()))
}

func TestValidateWeeklySchedule_RequiresWeekRange(t *testing.T) {
	ws := validWeek()
	ws.WeekRange = ""
	assert.Error(t, ValidateWeeklySchedule(ws))
}

func TestValidateWeeklySchedule_RejectsDuplicateCharacters(t *testing.T) {
	ws := validWeek()
	ws.Characters = append(ws.Characters, ws.Characters[0])
	assert.ErrorContains(t, ValidateWeeklySchedule(ws), "duplicate")
}

func TestValidateWeeklySchedule_RejectsUnknownDayCode(t *testing.T) {
	ws := validWeek()
	ws.Characters[0].Schedule["MONDAY"] = domain.ScheduleItem{Type: domain.ItemTypeStream}
	assert.Error(t, ValidateWeeklySchedule(ws))
}

func TestValidateWeeklySchedule_RejectsBadItemType(t *testing.T) {
	ws := validWeek()
	ws.Characters[0].Schedule[domain.DayWed] = domain.ScheduleItem{Type: "video"}
	assert.Error(t, ValidateWeeklySchedule(ws))
}

func TestValidateWeeklySchedule_AcceptsCollabSubtypes(t *testing.T) {
	ws := validWeek()
	ws.Characters[0].Schedule[domain.DayWed] = domain.ScheduleItem{Time: "19:00", Type: "collab_hanavi"}
	assert.NoError(t, ValidateWeeklySchedule(ws))
}

func TestValidateWeeklySchedule_NormalizesEmptyType(t *testing.T) {
	ws := validWeek()
	ws.Characters[0].Schedule[domain.DayWed] = domain.ScheduleItem{Time: "19:00"}

	require.NoError(t, ValidateWeeklySchedule(ws))
	assert.Equal(t, domain.ItemTypeStream, ws.Characters[0].Schedule[domain.DayWed].Type)
}

func TestValidateWeeklySchedule_RejectsBadTimes(t *testing.T) {
	ws := validWeek()
	ws.Characters[0].Schedule[domain.DayWed] = domain.ScheduleItem{Time: "25:00", Type: domain.ItemTypeStream}
	assert.Error(t, ValidateWeeklySchedule(ws))
}

func TestValidateWeeklySchedule_ChecksHolidayCodes(t *testing.T) {
	ws := validWeek()
	holiday := "MON,FUNDAY"
	ws.Characters[0].RegularHoliday = &holiday
	assert.Error(t, ValidateWeeklySchedule(ws))
}

func TestValidTimeOfDay(t *testing.T) {
	assert.True(t, ValidTimeOfDay("00:00"))
	assert.True(t, ValidTimeOfDay("08:30"))
	assert.True(t, ValidTimeOfDay("23:59"))
	// Midnight-start characters use 24:00.
	assert.True(t, ValidTimeOfDay("24:00"))

	assert.False(t, ValidTimeOfDay("24:01"))
	assert.False(t, ValidTimeOfDay("8:00"))
	assert.False(t, ValidTimeOfDay("abc"))
	assert.False(t, ValidTimeOfDay(""))
}
