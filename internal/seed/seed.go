// Package seed loads the initial roster, the baseline defaults and one
// member account per character into an empty database.
package seed

import (
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/C4NU/hanavi-schedule/internal/domain"
	"github.com/C4NU/hanavi-schedule/internal/repository"
	"github.com/C4NU/hanavi-schedule/internal/utils"
)

// LegacyBaselines is the historical in-code default table. It exists only to
// seed the character_baselines rows; at runtime the database rows are the
// source of truth.
var LegacyBaselines = map[string]domain.CharacterBaseline{
	"varessa": {CharacterID: "varessa", DefaultTime: "08:00", OffDays: []string{domain.DayThu, domain.DaySun}},
	"cherii":  {CharacterID: "cherii", DefaultTime: "10:00", OffDays: []string{}},
	"nemu":    {CharacterID: "nemu", DefaultTime: "12:00", OffDays: []string{domain.DayMon, domain.DayThu}},
	"maroka":  {CharacterID: "maroka", DefaultTime: "14:00", OffDays: []string{domain.DayTue, domain.DaySat}},
	"mirai":   {CharacterID: "mirai", DefaultTime: "15:00", OffDays: []string{domain.DayMon, domain.DayThu}},
	"aella":   {CharacterID: "aella", DefaultTime: "17:00", OffDays: []string{}},
	"ruvi":    {CharacterID: "ruvi", DefaultTime: "19:00", OffDays: []string{domain.DayWed, domain.DaySun}},
	"iriya":   {CharacterID: "iriya", DefaultTime: "24:00", OffDays: []string{domain.DayTue, domain.DaySat}},
}

var rosterNames = map[string]string{
	"varessa": "바레사",
	"cherii":  "체리",
	"nemu":    "네무",
	"maroka":  "마로카",
	"mirai":   "미라이",
	"aella":   "아엘라",
	"ruvi":    "루비",
	"iriya":   "이리야",
}

// Roster returns the initial characters in legacy display order, with sort
// orders already assigned.
func Roster() []*domain.Character {
	characters := make([]*domain.Character, 0, len(domain.LegacyCharacterOrder))
	for i, id := range domain.LegacyCharacterOrder {
		order := int32(i + 1)
		characters = append(characters, &domain.Character{
			ID:         id,
			Name:       rosterNames[id],
			ColorTheme: id,
			SortOrder:  &order,
		})
	}
	return characters
}

func SeedCharacters(repo *repository.Repository) error {
	for _, c := range Roster() {
		if err := repo.CreateCharacter(c); err != nil {
			return fmt.Errorf("seed character %s: %w", c.ID, err)
		}
		slog.Info("seeded character", "id", c.ID)
	}
	return nil
}

func SeedBaselines(repo *repository.Repository) error {
	for _, id := range domain.LegacyCharacterOrder {
		b := LegacyBaselines[id]
		if err := repo.UpsertBaseline(&b); err != nil {
			return fmt.Errorf("seed baseline %s: %w", id, err)
		}
		slog.Info("seeded baseline", "id", id, "default_time", b.DefaultTime)
	}
	return nil
}

// SeedMemberAccounts creates one member login per character. When password
// is empty each account gets its own random password, printed once so the
// operator can hand them out.
func SeedMemberAccounts(repo *repository.Repository, password string) error {
	for _, id := range domain.LegacyCharacterOrder {
		memberPassword := password
		if memberPassword == "" {
			memberPassword = utils.GenerateRandomPassword(16)
		}

		passwordHash, err := bcrypt.GenerateFromPassword([]byte(memberPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		characterID := id
		account := &domain.Account{
			Username:     id,
			PasswordHash: string(passwordHash),
			Role:         domain.RoleMember,
			CharacterID:  &characterID,
		}
		if err := repo.CreateAccount(account); err != nil {
			return fmt.Errorf("seed account %s: %w", id, err)
		}

		if password == "" {
			slog.Info("seeded member account", "username", id, "password", memberPassword)
		} else {
			slog.Info("seeded member account", "username", id)
		}
	}
	return nil
}
