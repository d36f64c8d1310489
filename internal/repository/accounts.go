package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/C4NU/hanavi-schedule/internal/domain"
)

func (r *Repository) GetAccountByUsername(username string) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, username, password_hash, role, character_id, created_at
		FROM accounts
		WHERE username = $1
	`

	var a domain.Account
	var characterID sql.NullString
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.Role, &characterID, &a.CreatedAt); err != nil {
		return nil, err
	}
	if characterID.Valid {
		v := characterID.String
		a.CharacterID = &v
	}

	return &a, nil
}

func (r *Repository) CreateAccount(a *domain.Account) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO accounts (username, password_hash, role, character_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	return r.dbpool.QueryRowContext(ctx, query, a.Username, a.PasswordHash, a.Role, a.CharacterID).Scan(&a.ID, &a.CreatedAt)
}
