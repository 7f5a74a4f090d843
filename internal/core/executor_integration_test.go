package core_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"treasury-bot/internal/core"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	// Set TEST_DATABASE_URL in your .env or environment to run integration tests.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	schema, err := os.ReadFile(filepath.Join("..", "..", "migrations", "001_init.sql"))
	if err != nil {
		t.Fatalf("Failed to read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatalf("Failed to apply schema: %v", err)
	}

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE transactions, payables, members, staff, accounts, categories, users, tenants CASCADE;

		INSERT INTO tenants (id, name, plan) VALUES
		('tenant-A', 'Igreja Central', 'PRO'),
		('tenant-B', 'Igreja Vizinha', 'PRO');

		INSERT INTO categories (id, tenant_id, name, type) VALUES
		('cat-luz', 'tenant-A', 'Energia Elétrica', 'EXPENSE'),
		('cat-oferta', 'tenant-A', 'Ofertas', 'INCOME'),
		('cat-b', 'tenant-B', 'Energia Elétrica', 'EXPENSE');

		INSERT INTO accounts (id, tenant_id, name, initial_balance) VALUES
		('acc-caixa', 'tenant-A', 'Caixa', 0);
	`)
	if err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

func TestExecutor_CreatePayable(t *testing.T) {
	pool := setupTestDB(t)
	executor := core.NewExecutor(pool)
	ctx := context.Background()

	plan := core.ActionPlan{
		Model:  core.ModelPayable,
		Action: core.ActionCreate,
		Data: map[string]any{
			"description": "Conta de luz",
			"amount":      150.0,
			"dueDate":     "2026-03-10T12:00:00.000Z",
			"categoryId":  "cat-luz",
			"tenantId":    "tenant-B", // must be ignored in favor of the authenticated tenant
		},
	}
	plan.Normalize()

	result, err := executor.Execute(ctx, "tenant-A", plan)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Reply == "" {
		t.Error("expected a non-empty reply")
	}

	var tenantID string
	var isPaid bool
	err = pool.QueryRow(ctx,
		`SELECT tenant_id, is_paid FROM payables WHERE description = 'Conta de luz'`,
	).Scan(&tenantID, &isPaid)
	if err != nil {
		t.Fatalf("payable not inserted: %v", err)
	}
	if tenantID != "tenant-A" {
		t.Errorf("payable written to tenant %q, want tenant-A", tenantID)
	}
	if isPaid {
		t.Error("new payable must start open")
	}
}

func TestExecutor_CreateLedgerEntry(t *testing.T) {
	pool := setupTestDB(t)
	executor := core.NewExecutor(pool)
	ctx := context.Background()

	plan := core.ActionPlan{
		Model:  core.ModelLedgerEntry,
		Action: core.ActionCreate,
		Data: map[string]any{
			"description": "Oferta do culto",
			"amount":      320.5,
			"date":        "2026-02-15T12:00:00.000Z",
			"type":        "INCOME",
			"categoryId":  "cat-oferta",
			"accountId":   "acc-caixa",
			"memberId":    nil, // null values are dropped, not inserted
		},
	}
	plan.Normalize()

	if _, err := executor.Execute(ctx, "tenant-A", plan); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var count int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transactions WHERE tenant_id = 'tenant-A' AND type = 'INCOME'`,
	).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("expected 1 transaction, got %d", count)
	}
}

func TestExecutor_ForeignRelationRejected(t *testing.T) {
	pool := setupTestDB(t)
	executor := core.NewExecutor(pool)
	ctx := context.Background()

	// cat-b belongs to tenant-B: tenant-A must not be able to link it even
	// when the model emits its id.
	plan := core.ActionPlan{
		Model:  core.ModelPayable,
		Action: core.ActionCreate,
		Data: map[string]any{
			"description": "Conta suspeita",
			"amount":      10.0,
			"dueDate":     "2026-03-01T12:00:00.000Z",
			"categoryId":  "cat-b",
		},
	}
	plan.Normalize()

	if _, err := executor.Execute(ctx, "tenant-A", plan); err == nil {
		t.Fatal("expected cross-tenant relation to be rejected")
	}

	var count int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM payables`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("no payable should have been written, found %d", count)
	}
}

func TestExecutor_BulkSettleOverduePayables(t *testing.T) {
	pool := setupTestDB(t)
	executor := core.NewExecutor(pool)
	ctx := context.Background()

	now := time.Date(2026, 2, 15, 12, 0, 0, 0, time.UTC)
	_, err := pool.Exec(ctx, `
		INSERT INTO payables (id, tenant_id, description, amount, due_date, is_paid, category_id) VALUES
		('p1', 'tenant-A', 'Luz janeiro', 150, '2026-01-10T12:00:00Z', FALSE, 'cat-luz'),
		('p2', 'tenant-A', 'Luz fevereiro', 150, '2026-02-10T12:00:00Z', FALSE, 'cat-luz'),
		('p3', 'tenant-A', 'Luz março', 150, '2026-03-10T12:00:00Z', FALSE, 'cat-luz'),
		('p4', 'tenant-B', 'Luz janeiro', 90, '2026-01-10T12:00:00Z', FALSE, 'cat-b')
	`)
	if err != nil {
		t.Fatal(err)
	}

	plan := core.ActionPlan{
		Model:  core.ModelPayable,
		Action: core.ActionUpdateMany,
		Data: map[string]any{
			"isPaid": true,
			"paidAt": now.Format(time.RFC3339),
		},
		Where: map[string]any{
			"isPaid":  false,
			"dueDate": map[string]any{"lte": now.Format(time.RFC3339)},
		},
		SuccessReply: "Contas pagas!",
	}
	plan.Normalize()

	result, err := executor.Execute(ctx, "tenant-A", plan)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result.Affected != 2 {
		t.Errorf("expected 2 settled payables, got %d", result.Affected)
	}
	if !strings.Contains(result.Reply, "(Total processado: 2 itens)") {
		t.Errorf("updateMany reply must carry the affected count, got %q", result.Reply)
	}

	// tenant-B and the not-yet-due payable must be untouched
	var openCount int
	if err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM payables WHERE NOT is_paid`,
	).Scan(&openCount); err != nil {
		t.Fatal(err)
	}
	if openCount != 2 {
		t.Errorf("expected p3 and tenant-B's p4 to stay open, got %d open", openCount)
	}
}

func TestExecutor_FindManyRendersRows(t *testing.T) {
	pool := setupTestDB(t)
	executor := core.NewExecutor(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO payables (id, tenant_id, description, amount, due_date, is_paid, category_id) VALUES
		('p1', 'tenant-A', 'Conta de luz', 150, '2026-03-10T12:00:00Z', FALSE, 'cat-luz')
	`)
	if err != nil {
		t.Fatal(err)
	}

	plan := core.ActionPlan{
		Model:        core.ModelPayable,
		Action:       core.ActionFindMany,
		Where:        map[string]any{"isPaid": false},
		SuccessReply: "Contas em aberto:",
	}
	plan.Normalize()

	result, err := executor.Execute(ctx, "tenant-A", plan)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	for _, want := range []string{"Contas em aberto:", "Conta de luz", "R$ 150,00", "10/03/2026"} {
		if !strings.Contains(result.Reply, want) {
			t.Errorf("find reply missing %q: %q", want, result.Reply)
		}
	}
}

func TestExecutor_FindManyEmptyResult(t *testing.T) {
	pool := setupTestDB(t)
	executor := core.NewExecutor(pool)
	ctx := context.Background()

	plan := core.ActionPlan{
		Model:        core.ModelPayable,
		Action:       core.ActionFindMany,
		Where:        map[string]any{"isPaid": false},
		SuccessReply: "Contas em aberto:",
	}
	plan.Normalize()

	result, err := executor.Execute(ctx, "tenant-A", plan)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !strings.Contains(result.Reply, "Nenhum registro encontrado") {
		t.Errorf("empty result should say so, got %q", result.Reply)
	}
}

func TestExecutor_UnknownModel(t *testing.T) {
	pool := setupTestDB(t)
	executor := core.NewExecutor(pool)

	plan := core.ActionPlan{
		Model:  core.PlanModel("Budget"),
		Action: core.ActionFindMany,
	}
	_, err := executor.Execute(context.Background(), "tenant-A", plan)
	if err == nil {
		t.Fatal("expected unknown target error")
	}
}
