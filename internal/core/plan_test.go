package core_test

import (
	"strings"
	"testing"

	"treasury-bot/internal/core"
)

func TestActionPlan_NormalizeFillsReplies(t *testing.T) {
	p := core.ActionPlan{
		Model:  core.ModelPayable,
		Action: core.ActionCreate,
	}
	p.Normalize()

	if p.SuccessReply == "" {
		t.Error("expected a default success reply, got empty")
	}
	if p.ErrorReply == "" {
		t.Error("expected a default error reply, got empty")
	}
	if !strings.Contains(p.SuccessReply, "Conta a pagar") {
		t.Errorf("payable create default should mention the payable, got %q", p.SuccessReply)
	}
}

func TestActionPlan_NormalizeKeepsModelReplies(t *testing.T) {
	p := core.ActionPlan{
		Model:        core.ModelLedgerEntry,
		Action:       core.ActionCreate,
		SuccessReply: "  feito!  ",
	}
	p.Normalize()
	if p.SuccessReply != "feito!" {
		t.Errorf("expected trimmed model reply, got %q", p.SuccessReply)
	}
}

func TestActionPlan_Validate(t *testing.T) {
	tests := []struct {
		name      string
		plan      core.ActionPlan
		expectErr bool
	}{
		{
			name: "valid payable create",
			plan: core.ActionPlan{
				Model:  core.ModelPayable,
				Action: core.ActionCreate,
				Data: map[string]any{
					"description": "Conta de luz",
					"amount":      150.0,
					"dueDate":     "2026-03-10T12:00:00.000Z",
					"categoryId":  "cat-1",
				},
			},
		},
		{
			name: "valid ledger create",
			plan: core.ActionPlan{
				Model:  core.ModelLedgerEntry,
				Action: core.ActionCreate,
				Data: map[string]any{
					"amount":     100.0,
					"date":       "2026-02-10T12:00:00.000Z",
					"type":       "INCOME",
					"categoryId": "cat-1",
					"accountId":  "acc-1",
				},
			},
		},
		{
			name: "missing model",
			plan: core.ActionPlan{
				Action: core.ActionCreate,
				Data:   map[string]any{"name": "Dízimos"},
			},
			expectErr: true,
		},
		{
			name: "missing action",
			plan: core.ActionPlan{
				Model: core.ModelCategory,
				Data:  map[string]any{"name": "Dízimos"},
			},
			expectErr: true,
		},
		{
			name: "unknown model rejected at the boundary",
			plan: core.ActionPlan{
				Model:  core.PlanModel("User"),
				Action: core.ActionFindMany,
			},
			expectErr: true,
		},
		{
			name: "delete-class action rejected",
			plan: core.ActionPlan{
				Model:  core.ModelPayable,
				Action: core.PlanAction("delete"),
				Where:  map[string]any{"description": "luz"},
			},
			expectErr: true,
		},
		{
			name: "ledger create without account",
			plan: core.ActionPlan{
				Model:  core.ModelLedgerEntry,
				Action: core.ActionCreate,
				Data: map[string]any{
					"amount":     100.0,
					"date":       "2026-02-10T12:00:00.000Z",
					"type":       "INCOME",
					"categoryId": "cat-1",
				},
			},
			expectErr: true,
		},
		{
			name: "payable create with account",
			plan: core.ActionPlan{
				Model:  core.ModelPayable,
				Action: core.ActionCreate,
				Data: map[string]any{
					"description": "Aluguel",
					"amount":      900.0,
					"dueDate":     "2026-03-05T12:00:00.000Z",
					"categoryId":  "cat-1",
					"accountId":   "acc-1",
				},
			},
			expectErr: true,
		},
		{
			name: "payable create with null account is fine",
			plan: core.ActionPlan{
				Model:  core.ModelPayable,
				Action: core.ActionCreate,
				Data: map[string]any{
					"description": "Aluguel",
					"amount":      900.0,
					"dueDate":     "2026-03-05T12:00:00.000Z",
					"categoryId":  "cat-1",
					"accountId":   nil,
				},
			},
		},
		{
			name: "updateMany without filter",
			plan: core.ActionPlan{
				Model:  core.ModelPayable,
				Action: core.ActionUpdateMany,
				Data:   map[string]any{"isPaid": true},
			},
			expectErr: true,
		},
		{
			name: "bulk settle",
			plan: core.ActionPlan{
				Model:  core.ModelPayable,
				Action: core.ActionUpdateMany,
				Data:   map[string]any{"isPaid": true, "paidAt": "2026-02-15T12:00:00.000Z"},
				Where:  map[string]any{"isPaid": false},
			},
		},
		{
			name: "find without filter is allowed",
			plan: core.ActionPlan{
				Model:  core.ModelPayable,
				Action: core.ActionFindMany,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.plan.Validate()
			if tt.expectErr && err == nil {
				t.Error("expected validation error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("unexpected validation error: %v", err)
			}
		})
	}
}
