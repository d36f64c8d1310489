package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

// WeekRecord is one row of the schedules table.
type WeekRecord struct {
	ID        int64
	WeekRange string
	IsActive  bool
	UpdatedAt time.Time
}

// ScheduleItemRow is one persisted per-day override cell.
type ScheduleItemRow struct {
	CharacterID string
	Day         string
	Item        domain.ScheduleItem
}

func (r *Repository) GetWeekRecord(weekRange string) (*WeekRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT id, week_range, is_active, updated_at FROM schedules WHERE week_range = $1`

	var rec WeekRecord
	if err := r.dbpool.QueryRowContext(ctx, query, weekRange).Scan(&rec.ID, &rec.WeekRange, &rec.IsActive, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	return &rec, nil
}

// GetLatestActiveWeek returns the most recently created active week record,
// used when the read boundary is called without an explicit week key.
func (r *Repository) GetLatestActiveWeek() (*WeekRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, week_range, is_active, updated_at
		FROM schedules
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT 1
	`

	var rec WeekRecord
	if err := r.dbpool.QueryRowContext(ctx, query).Scan(&rec.ID, &rec.WeekRange, &rec.IsActive, &rec.UpdatedAt); err != nil {
		return nil, err
	}

	return &rec, nil
}

func (r *Repository) GetScheduleItems(scheduleID int64) ([]ScheduleItemRow, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT character_id, day, time, content, type, video_url
		FROM schedule_items
		WHERE schedule_id = $1
		ORDER BY character_id, day
	`

	rows, err := r.dbpool.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]ScheduleItemRow, 0)
	for rows.Next() {
		var row ScheduleItemRow
		var itemTime, content, itemType, videoURL sql.NullString
		if err := rows.Scan(&row.CharacterID, &row.Day, &itemTime, &content, &itemType, &videoURL); err != nil {
			return nil, err
		}
		row.Item = domain.ScheduleItem{
			Time:     itemTime.String,
			Content:  content.String,
			Type:     domain.ScheduleItemType(itemType.String),
			VideoURL: videoURL.String,
		}
		if row.Item.Type == "" {
			row.Item.Type = domain.ItemTypeStream
		}
		items = append(items, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

// SaveWeeklySchedule persists a complete week document: the week record, all
// present per-day cells, and the configuration fields carried on each
// character. Everything runs in one transaction; a failure in any step rolls
// back the whole save.
func (r *Repository) SaveWeeklySchedule(ws *domain.WeeklySchedule) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO schedules (week_range, updated_at)
		VALUES ($1, now())
		ON CONFLICT (week_range) DO UPDATE SET updated_at = now()
		RETURNING id
	`
	var scheduleID int64
	if err := tx.QueryRowContext(ctx, query, ws.WeekRange).Scan(&scheduleID); err != nil {
		return err
	}

	itemQuery := `
		INSERT INTO schedule_items (schedule_id, character_id, day, time, content, type, video_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (schedule_id, character_id, day) DO UPDATE SET
			time = EXCLUDED.time,
			content = EXCLUDED.content,
			type = EXCLUDED.type,
			video_url = EXCLUDED.video_url
	`
	configQuery := `
		UPDATE characters SET
			youtube_channel_id = COALESCE($2, youtube_channel_id),
			youtube_replay_url = COALESCE($3, youtube_replay_url),
			regular_holiday = COALESCE($4, regular_holiday),
			default_time = COALESCE($5, default_time),
			sort_order = COALESCE($6, sort_order),
			color_bg = COALESCE($7, color_bg),
			color_border = COALESCE($8, color_border)
		WHERE id = $1
	`

	for _, char := range ws.Characters {
		for _, day := range domain.Weekdays {
			item, ok := char.Schedule[day]
			if !ok {
				continue
			}
			itemType := item.Type
			if itemType == "" {
				itemType = domain.ItemTypeStream
			}
			params := []any{scheduleID, char.ID, day, item.Time, item.Content, string(itemType), nullString(item.VideoURL)}
			if _, err := tx.ExecContext(ctx, itemQuery, params...); err != nil {
				return err
			}
		}

		// Saving a week also updates the character's permanent configuration
		// for every field present in the payload. Absent fields (NULL
		// parameters) keep their stored value; an explicitly empty
		// regularHoliday is a real value and overwrites.
		if !char.HasConfig() {
			continue
		}
		params := []any{
			char.ID,
			nullString(char.YoutubeChannelID),
			nullString(char.YoutubeReplayURL),
			char.RegularHoliday,
			char.DefaultTime,
			char.SortOrder,
			nullString(char.ColorBg),
			nullString(char.ColorBorder),
		}
		if _, err := tx.ExecContext(ctx, configQuery, params...); err != nil {
			return err
		}
	}

	return tx.Commit()
}
