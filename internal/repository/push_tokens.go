package repository

import (
	"context"
	"time"
)

// UpsertPushToken registers a delivery token. The token is its own key, so
// re-registering the same endpoint overwrites instead of duplicating.
func (r *Repository) UpsertPushToken(token string, userAgent string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO push_tokens (token, user_agent, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (token) DO UPDATE SET
			user_agent = EXCLUDED.user_agent,
			updated_at = now()
	`
	_, err := r.dbpool.ExecContext(ctx, query, token, userAgent)
	return err
}

func (r *Repository) GetAllPushTokens() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, `SELECT token FROM push_tokens ORDER BY updated_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tokens := make([]string, 0)
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tokens, nil
}

// DeletePushTokens prunes endpoints the provider reported as permanently
// invalid. One transaction per batch.
func (r *Repository) DeletePushTokens(tokens []string) error {
	if len(tokens) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, token := range tokens {
		if _, err := tx.ExecContext(ctx, `DELETE FROM push_tokens WHERE token = $1`, token); err != nil {
			return err
		}
	}

	return tx.Commit()
}
