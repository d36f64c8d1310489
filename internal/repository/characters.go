package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

func scanCharacter(scan func(dest ...any) error) (*domain.Character, error) {
	var c domain.Character
	var colorTheme, avatarURL, chzzkURL, youtubeChannelID, youtubeReplayURL, colorBg, colorBorder sql.NullString
	var regularHoliday, defaultTime sql.NullString
	var sortOrder sql.NullInt32

	dst := []any{
		&c.ID,
		&c.Name,
		&colorTheme,
		&avatarURL,
		&chzzkURL,
		&youtubeChannelID,
		&youtubeReplayURL,
		&regularHoliday,
		&defaultTime,
		&sortOrder,
		&colorBg,
		&colorBorder,
	}
	if err := scan(dst...); err != nil {
		return nil, err
	}

	c.ColorTheme = colorTheme.String
	c.AvatarURL = avatarURL.String
	c.ChzzkURL = chzzkURL.String
	c.YoutubeChannelID = youtubeChannelID.String
	c.YoutubeReplayURL = youtubeReplayURL.String
	c.ColorBg = colorBg.String
	c.ColorBorder = colorBorder.String
	// NULL and empty string are different values here: NULL means "not
	// configured", empty string means "configured to none".
	if regularHoliday.Valid {
		v := regularHoliday.String
		c.RegularHoliday = &v
	}
	if defaultTime.Valid {
		v := defaultTime.String
		c.DefaultTime = &v
	}
	if sortOrder.Valid {
		v := sortOrder.Int32
		c.SortOrder = &v
	}

	return &c, nil
}

const characterColumns = `
	id,
	name,
	color_theme,
	avatar_url,
	chzzk_url,
	youtube_channel_id,
	youtube_replay_url,
	regular_holiday,
	default_time,
	sort_order,
	color_bg,
	color_border
`

func (r *Repository) GetAllCharacters() ([]*domain.Character, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT ` + characterColumns + ` FROM characters ORDER BY id`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	characters := make([]*domain.Character, 0)
	for rows.Next() {
		c, err := scanCharacter(rows.Scan)
		if err != nil {
			return nil, err
		}
		characters = append(characters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return characters, nil
}

func (r *Repository) GetCharacter(id string) (*domain.Character, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT ` + characterColumns + ` FROM characters WHERE id = $1`

	return scanCharacter(r.dbpool.QueryRowContext(ctx, query, id).Scan)
}

// CreateCharacter inserts a new member. When the new member carries a sort
// order, every character at or after that position is shifted up by one in
// the same transaction so the total order stays gap-free.
func (r *Repository) CreateCharacter(c *domain.Character) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if c.SortOrder != nil {
		query := `UPDATE characters SET sort_order = sort_order + 1 WHERE sort_order >= $1`
		if _, err := tx.ExecContext(ctx, query, *c.SortOrder); err != nil {
			return err
		}
	}

	query := `
		INSERT INTO characters (
			id, name, color_theme, avatar_url, chzzk_url,
			youtube_channel_id, youtube_replay_url,
			regular_holiday, default_time, sort_order,
			color_bg, color_border
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	params := []any{
		c.ID,
		c.Name,
		nullString(c.ColorTheme),
		nullString(c.AvatarURL),
		nullString(c.ChzzkURL),
		nullString(c.YoutubeChannelID),
		nullString(c.YoutubeReplayURL),
		c.RegularHoliday,
		c.DefaultTime,
		c.SortOrder,
		nullString(c.ColorBg),
		nullString(c.ColorBorder),
	}
	if _, err := tx.ExecContext(ctx, query, params...); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteCharacter removes a member and shifts the sort orders after the
// removed position down by one.
func (r *Repository) DeleteCharacter(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var sortOrder sql.NullInt32
	if err := tx.QueryRowContext(ctx, `SELECT sort_order FROM characters WHERE id = $1`, id).Scan(&sortOrder); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM characters WHERE id = $1`, id); err != nil {
		return err
	}

	if sortOrder.Valid {
		query := `UPDATE characters SET sort_order = sort_order - 1 WHERE sort_order > $1`
		if _, err := tx.ExecContext(ctx, query, sortOrder.Int32); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetAllBaselines() (map[string]domain.CharacterBaseline, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT character_id, default_time, off_days FROM character_baselines`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	baselines := make(map[string]domain.CharacterBaseline)
	for rows.Next() {
		var b domain.CharacterBaseline
		var offDays sql.NullString
		if err := rows.Scan(&b.CharacterID, &b.DefaultTime, &offDays); err != nil {
			return nil, err
		}
		b.OffDays = splitDays(offDays.String)
		baselines[b.CharacterID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return baselines, nil
}

func (r *Repository) UpsertBaseline(b *domain.CharacterBaseline) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO character_baselines (character_id, default_time, off_days)
		VALUES ($1, $2, $3)
		ON CONFLICT (character_id) DO UPDATE SET
			default_time = EXCLUDED.default_time,
			off_days = EXCLUDED.off_days
	`
	_, err := r.dbpool.ExecContext(ctx, query, b.CharacterID, b.DefaultTime, joinDays(b.OffDays))
	return err
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func splitDays(s string) []string {
	days := make([]string, 0)
	for _, d := range strings.Split(s, ",") {
		d = strings.TrimSpace(d)
		if d != "" {
			days = append(days, d)
		}
	}
	return days
}

func joinDays(days []string) string {
	return strings.Join(days, ",")
}
