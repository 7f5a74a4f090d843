package core

import (
	"errors"
	"fmt"
	"strings"
)

// PlanModel is the closed set of entities a plan may target. The values match
// the names the interpreter prompt exposes to the model; anything outside
// this set is rejected at the boundary.
type PlanModel string

const (
	ModelLedgerEntry PlanModel = "transaction"
	ModelPayable     PlanModel = "AccountPayable"
	ModelCategory    PlanModel = "Category"
	ModelStaff       PlanModel = "Staff"
	ModelMember      PlanModel = "Member"
)

type PlanAction string

const (
	ActionCreate     PlanAction = "create"
	ActionUpdate     PlanAction = "update"
	ActionUpdateMany PlanAction = "updateMany"
	ActionFindFirst  PlanAction = "findFirst"
	ActionFindMany   PlanAction = "findMany"
)

// ActionPlan is the structured output of the intent interpreter: exactly one
// persistence operation plus the replies to use for either outcome. It lives
// for one chat message and is never stored.
type ActionPlan struct {
	Model        PlanModel      `json:"model" jsonschema_description:"Target entity: transaction, AccountPayable, Category, Staff or Member"`
	Action       PlanAction     `json:"action" jsonschema_description:"One of create, update, updateMany, findFirst, findMany"`
	Data         map[string]any `json:"data,omitempty" jsonschema_description:"Field values for create/update. Relation ids are flat fields like categoryId"`
	Where        map[string]any `json:"where,omitempty" jsonschema_description:"Filter for update/find operations"`
	SuccessReply string         `json:"successReply" jsonschema_description:"Short confirmation message to send the user on success, in their language"`
	ErrorReply   string         `json:"errorReply,omitempty" jsonschema_description:"Short message to send the user if the operation fails"`
}

var planModels = map[PlanModel]bool{
	ModelLedgerEntry: true,
	ModelPayable:     true,
	ModelCategory:    true,
	ModelStaff:       true,
	ModelMember:      true,
}

var planActions = map[PlanAction]bool{
	ActionCreate:     true,
	ActionUpdate:     true,
	ActionUpdateMany: true,
	ActionFindFirst:  true,
	ActionFindMany:   true,
}

// IsFind reports whether the plan is a read operation.
func (p *ActionPlan) IsFind() bool {
	return p.Action == ActionFindFirst || p.Action == ActionFindMany
}

// Normalize cleans up model output and guarantees both replies are non-empty,
// so the executor always has something to send back.
func (p *ActionPlan) Normalize() {
	p.Model = PlanModel(strings.TrimSpace(string(p.Model)))
	p.Action = PlanAction(strings.TrimSpace(string(p.Action)))
	p.SuccessReply = strings.TrimSpace(p.SuccessReply)
	p.ErrorReply = strings.TrimSpace(p.ErrorReply)

	if p.SuccessReply == "" {
		p.SuccessReply = defaultSuccessReply(p.Model, p.Action)
	}
	if p.ErrorReply == "" {
		p.ErrorReply = "❌ Não consegui concluir a operação. Tente novamente."
	}
}

// Validate enforces the plan grammar. The shape invariants guard the two
// entities the model gets wrong most often: a ledger entry must reference
// both a category and an account, and a payable must never reference an
// account (it has no bank relation until it is settled).
func (p *ActionPlan) Validate() error {
	if p.Model == "" {
		return errors.New("plan is missing a target model")
	}
	if p.Action == "" {
		return errors.New("plan is missing an action")
	}
	if !planModels[p.Model] {
		return fmt.Errorf("unknown target model %q", p.Model)
	}
	if !planActions[p.Action] {
		return fmt.Errorf("unsupported action %q", p.Action)
	}

	switch p.Action {
	case ActionCreate:
		if len(p.Data) == 0 {
			return errors.New("create plan has no data")
		}
	case ActionUpdate, ActionUpdateMany:
		if len(p.Data) == 0 {
			return errors.New("update plan has no data")
		}
		if len(p.Where) == 0 {
			return errors.New("update plan has no filter")
		}
	}

	if p.Action == ActionCreate {
		switch p.Model {
		case ModelLedgerEntry:
			if !hasValue(p.Data, "categoryId") || !hasValue(p.Data, "accountId") {
				return errors.New("a ledger entry needs both categoryId and accountId")
			}
		case ModelPayable:
			if hasValue(p.Data, "accountId") {
				return errors.New("a payable must not carry an accountId")
			}
		}
	}

	return nil
}

// hasValue reports whether key is present with a non-null, non-empty value.
func hasValue(m map[string]any, key string) bool {
	v, ok := m[key]
	if !ok || v == nil {
		return false
	}
	if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
		return false
	}
	return true
}

// defaultSuccessReply is a deterministic fallback keyed by model and action,
// used when the model omits successReply.
func defaultSuccessReply(model PlanModel, action PlanAction) string {
	switch action {
	case ActionCreate:
		switch model {
		case ModelPayable:
			return "✅ Conta a pagar registrada."
		case ModelLedgerEntry:
			return "✅ Lançamento registrado."
		default:
			return "✅ Registro criado."
		}
	case ActionUpdate, ActionUpdateMany:
		return "✅ Registros atualizados."
	case ActionFindFirst, ActionFindMany:
		return "🔎 Encontrei o seguinte:"
	default:
		return "✅ Feito."
	}
}
