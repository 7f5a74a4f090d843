package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUnknownSender means the phone number is not in the directory. The caller
// acknowledges the message silently.
var ErrUnknownSender = errors.New("sender not found in directory")

type DirectoryService interface {
	// LookupByPhone resolves a normalized phone string to the directory user
	// and their tenant's plan. Returns ErrUnknownSender when no user matches.
	LookupByPhone(ctx context.Context, phone string) (*DirectoryUser, error)
}

type Directory struct {
	pool *pgxpool.Pool
}

func NewDirectory(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

func (d *Directory) LookupByPhone(ctx context.Context, phone string) (*DirectoryUser, error) {
	var u DirectoryUser
	err := d.pool.QueryRow(ctx, `
		SELECT u.id, u.tenant_id, u.name, u.phone, t.plan
		FROM users u
		JOIN tenants t ON t.id = u.tenant_id
		WHERE u.phone = $1
	`, phone).Scan(&u.ID, &u.TenantID, &u.Name, &u.Phone, &u.Plan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUnknownSender
		}
		return nil, fmt.Errorf("directory lookup: %w", err)
	}
	return &u, nil
}
