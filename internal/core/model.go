package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

type TenantPlan string

const (
	PlanFree TenantPlan = "FREE"
	PlanPro  TenantPlan = "PRO"
)

// Tenant is the isolation boundary. Every domain row carries a tenant id and
// no operation may cross it.
type Tenant struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Plan TenantPlan `json:"plan"`
}

// DirectoryUser is a person authorized to talk to the bot, keyed by their
// normalized phone number.
type DirectoryUser struct {
	ID       string     `json:"id"`
	TenantID string     `json:"tenant_id"`
	Name     string     `json:"name"`
	Phone    string     `json:"phone"`
	Plan     TenantPlan `json:"plan"`
}

type Category struct {
	ID       string          `json:"id"`
	TenantID string          `json:"tenant_id"`
	Name     string          `json:"name"`
	Type     TransactionType `json:"type"`
}

// Account is a cash or bank container. It is referenced by ledger entries
// only; payables never point at an account.
type Account struct {
	ID             string          `json:"id"`
	TenantID       string          `json:"tenant_id"`
	Name           string          `json:"name"`
	InitialBalance decimal.Decimal `json:"initial_balance"`
}

type Staff struct {
	ID         string `json:"id"`
	TenantID   string `json:"tenant_id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	IsSalaried bool   `json:"is_salaried"`
	Phone      string `json:"phone,omitempty"`
}

type Member struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone,omitempty"`
}

// LedgerEntry is a dated, categorized income or expense tied to a specific
// account. CategoryID and AccountID are both mandatory.
type LedgerEntry struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	Type        TransactionType `json:"type"`
	CategoryID  string          `json:"category_id"`
	AccountID   string          `json:"account_id"`
	MemberID    *string         `json:"member_id,omitempty"`
}

// Payable is a scheduled future obligation. It has no account relation:
// settling it is a separate workflow that later produces a LedgerEntry.
type Payable struct {
	ID          string          `json:"id"`
	TenantID    string          `json:"tenant_id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     time.Time       `json:"due_date"`
	IsPaid      bool            `json:"is_paid"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`
	CategoryID  string          `json:"category_id"`
	StaffID     *string         `json:"staff_id,omitempty"`
}

// TenantMenu is the bounded enumeration of valid category/account/staff ids
// for one tenant, rendered as plain text. It is injected verbatim into the
// interpreter prompt so the model picks real ids instead of inventing them.
type TenantMenu struct {
	Categories string
	Accounts   string
	Staff      string
}
