package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

type MenuService interface {
	// BuildMenu fetches the tenant's categories, accounts and staff and
	// renders them as the plain-text enumerations the interpreter prompt
	// expects. This is the tenant-isolation enforcement point: everything
	// the model is allowed to reference comes from here.
	BuildMenu(ctx context.Context, tenantID string) (*TenantMenu, error)
}

type MenuBuilder struct {
	pool *pgxpool.Pool
}

func NewMenuBuilder(pool *pgxpool.Pool) *MenuBuilder {
	return &MenuBuilder{pool: pool}
}

func (b *MenuBuilder) BuildMenu(ctx context.Context, tenantID string) (*TenantMenu, error) {
	categories, err := b.categoryLines(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("menu categories: %w", err)
	}
	accounts, err := b.namedLines(ctx, tenantID, "accounts")
	if err != nil {
		return nil, fmt.Errorf("menu accounts: %w", err)
	}
	staff, err := b.namedLines(ctx, tenantID, "staff")
	if err != nil {
		return nil, fmt.Errorf("menu staff: %w", err)
	}

	return &TenantMenu{
		Categories: categories,
		Accounts:   accounts,
		Staff:      staff,
	}, nil
}

func (b *MenuBuilder) categoryLines(ctx context.Context, tenantID string) (string, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT id, name, type FROM categories WHERE tenant_id = $1 ORDER BY name`, tenantID)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var id, name string
		var typ TransactionType
		if err := rows.Scan(&id, &name, &typ); err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("- %s (%s) -> ID: %s", name, typ, id))
	}
	return strings.Join(lines, "\n"), rows.Err()
}

// namedLines renders id/name pairs from a table with only those two relevant
// columns. table is a compile-time constant, never user input.
func (b *MenuBuilder) namedLines(ctx context.Context, tenantID, table string) (string, error) {
	rows, err := b.pool.Query(ctx,
		fmt.Sprintf(`SELECT id, name FROM %s WHERE tenant_id = $1 ORDER BY name`, table), tenantID)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return "", err
		}
		lines = append(lines, fmt.Sprintf("- %s -> ID: %s", name, id))
	}
	return strings.Join(lines, "\n"), rows.Err()
}
