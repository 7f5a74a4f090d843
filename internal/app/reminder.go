package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"treasury-bot/internal/core"

	"github.com/shopspring/decimal"
)

// NotifyDuePayables finds every tenant with open payables due today or
// earlier and sends one summary per tenant to each directory user with a
// phone number.
func (s *chatService) NotifyDuePayables(ctx context.Context) (*ReminderResult, error) {
	// End of today: a payable due later today still counts.
	now := s.now()
	cutoff := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, 0, now.Location())

	tenants, err := s.tenantsWithDuePayables(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	result := &ReminderResult{Details: []ReminderDetail{}}
	for _, tenant := range tenants {
		payables, err := s.duePayables(ctx, tenant.ID, cutoff)
		if err != nil {
			return nil, err
		}
		if len(payables) == 0 {
			continue
		}

		message := buildReminderMessage(tenant.Name, payables)

		recipients, err := s.tenantRecipients(ctx, tenant.ID)
		if err != nil {
			return nil, err
		}
		for _, r := range recipients {
			if err := s.sender.SendText(ctx, r.Phone, message); err != nil {
				log.Printf("reminder: send to %s failed: %v", r.Phone, err)
				result.Details = append(result.Details, ReminderDetail{Tenant: tenant.Name, User: r.Name, Status: "failed"})
				continue
			}
			result.SentCount++
			result.Details = append(result.Details, ReminderDetail{Tenant: tenant.Name, User: r.Name, Status: "sent"})
		}
	}
	return result, nil
}

func (s *chatService) tenantsWithDuePayables(ctx context.Context, cutoff time.Time) ([]core.Tenant, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT t.id, t.name FROM tenants t
		WHERE EXISTS (
			SELECT 1 FROM payables p
			WHERE p.tenant_id = t.id AND NOT p.is_paid AND p.due_date <= $1
		)
		ORDER BY t.name
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("tenants with due payables: %w", err)
	}
	defer rows.Close()

	var tenants []core.Tenant
	for rows.Next() {
		var t core.Tenant
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

func (s *chatService) duePayables(ctx context.Context, tenantID string, cutoff time.Time) ([]core.Payable, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT description, amount, due_date FROM payables
		WHERE tenant_id = $1 AND NOT is_paid AND due_date <= $2
		ORDER BY due_date
	`, tenantID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("due payables: %w", err)
	}
	defer rows.Close()

	var payables []core.Payable
	for rows.Next() {
		var p core.Payable
		if err := rows.Scan(&p.Description, &p.Amount, &p.DueDate); err != nil {
			return nil, err
		}
		payables = append(payables, p)
	}
	return payables, rows.Err()
}

func (s *chatService) tenantRecipients(ctx context.Context, tenantID string) ([]core.DirectoryUser, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT name, phone FROM users
		WHERE tenant_id = $1 AND phone IS NOT NULL AND phone <> ''
	`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant recipients: %w", err)
	}
	defer rows.Close()

	var users []core.DirectoryUser
	for rows.Next() {
		var u core.DirectoryUser
		if err := rows.Scan(&u.Name, &u.Phone); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// buildReminderMessage lists the first three payables plus the total so the
// message stays short no matter how many bills are overdue.
func buildReminderMessage(tenantName string, payables []core.Payable) string {
	total := decimal.Zero
	for _, p := range payables {
		total = total.Add(p.Amount)
	}

	var b strings.Builder
	b.WriteString("🔔 *Alerta de Contas* 🔔\n\n")
	fmt.Fprintf(&b, "Olá! Existem *%d contas* a pagar vencendo hoje ou atrasadas na *%s*.\n\n", len(payables), tenantName)

	shown := payables
	if len(shown) > 3 {
		shown = shown[:3]
	}
	for _, p := range shown {
		fmt.Fprintf(&b, "• %s: %s\n", p.Description, core.FormatBRL(p.Amount))
	}
	if len(payables) > 3 {
		fmt.Fprintf(&b, "... e mais %d contas.\n", len(payables)-3)
	}

	fmt.Fprintf(&b, "\n💰 *Total:* %s", core.FormatBRL(total))
	return b.String()
}
