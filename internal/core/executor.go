package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// ErrUnknownTarget means the plan names an entity outside the permitted set.
var ErrUnknownTarget = errors.New("plan target not found")

type ExecutorService interface {
	// Execute performs exactly one persistence operation for the plan,
	// scoped to tenantID regardless of what the plan claims, and returns
	// the full reply text to send back to the chat user.
	Execute(ctx context.Context, tenantID string, plan ActionPlan) (*ExecutionResult, error)
}

type ExecutionResult struct {
	Reply    string
	Affected int64
}

type fieldKind int

const (
	fieldText fieldKind = iota
	fieldMoney
	fieldDate
	fieldFlag
	fieldTxType
	fieldRelation
)

// fieldSpec maps one flat plan field onto a column. Relation fields carry the
// table used to verify the referenced row belongs to the same tenant, which
// is what keeps a coerced plan from linking another tenant's rows.
type fieldSpec struct {
	column   string
	kind     fieldKind
	relation string
}

type entitySpec struct {
	table    string
	fields   map[string]fieldSpec // accepted data keys
	filters  map[string]fieldSpec // accepted where keys
	required []string             // data keys mandatory on create
	orderBy  string
}

// entities is the closed dispatch table: one arm per permitted plan model.
// Unknown model names fail at the boundary instead of being looked up
// reflectively.
var entities = map[PlanModel]entitySpec{
	ModelLedgerEntry: {
		table: "transactions",
		fields: map[string]fieldSpec{
			"description": {column: "description", kind: fieldText},
			"amount":      {column: "amount", kind: fieldMoney},
			"date":        {column: "date", kind: fieldDate},
			"type":        {column: "type", kind: fieldTxType},
			"categoryId":  {column: "category_id", kind: fieldRelation, relation: "categories"},
			"accountId":   {column: "account_id", kind: fieldRelation, relation: "accounts"},
			"memberId":    {column: "member_id", kind: fieldRelation, relation: "members"},
		},
		filters: map[string]fieldSpec{
			"id":          {column: "id", kind: fieldText},
			"description": {column: "description", kind: fieldText},
			"type":        {column: "type", kind: fieldTxType},
			"date":        {column: "date", kind: fieldDate},
			"categoryId":  {column: "category_id", kind: fieldText},
			"accountId":   {column: "account_id", kind: fieldText},
		},
		required: []string{"amount", "date", "type", "categoryId", "accountId"},
		orderBy:  "date DESC",
	},
	ModelPayable: {
		table: "payables",
		fields: map[string]fieldSpec{
			"description": {column: "description", kind: fieldText},
			"amount":      {column: "amount", kind: fieldMoney},
			"dueDate":     {column: "due_date", kind: fieldDate},
			"isPaid":      {column: "is_paid", kind: fieldFlag},
			"paidAt":      {column: "paid_at", kind: fieldDate},
			"categoryId":  {column: "category_id", kind: fieldRelation, relation: "categories"},
			"staffId":     {column: "staff_id", kind: fieldRelation, relation: "staff"},
		},
		filters: map[string]fieldSpec{
			"id":          {column: "id", kind: fieldText},
			"description": {column: "description", kind: fieldText},
			"isPaid":      {column: "is_paid", kind: fieldFlag},
			"dueDate":     {column: "due_date", kind: fieldDate},
			"categoryId":  {column: "category_id", kind: fieldText},
			"staffId":     {column: "staff_id", kind: fieldText},
		},
		required: []string{"description", "amount", "dueDate", "categoryId"},
		orderBy:  "due_date ASC",
	},
	ModelCategory: {
		table: "categories",
		fields: map[string]fieldSpec{
			"name": {column: "name", kind: fieldText},
			"type": {column: "type", kind: fieldTxType},
		},
		filters: map[string]fieldSpec{
			"id":   {column: "id", kind: fieldText},
			"name": {column: "name", kind: fieldText},
			"type": {column: "type", kind: fieldTxType},
		},
		required: []string{"name", "type"},
		orderBy:  "name ASC",
	},
	ModelStaff: {
		table: "staff",
		fields: map[string]fieldSpec{
			"name":       {column: "name", kind: fieldText},
			"role":       {column: "role", kind: fieldText},
			"isSalaried": {column: "is_salaried", kind: fieldFlag},
			"phone":      {column: "phone", kind: fieldText},
		},
		filters: map[string]fieldSpec{
			"id":   {column: "id", kind: fieldText},
			"name": {column: "name", kind: fieldText},
		},
		required: []string{"name"},
		orderBy:  "name ASC",
	},
	ModelMember: {
		table: "members",
		fields: map[string]fieldSpec{
			"name":  {column: "name", kind: fieldText},
			"phone": {column: "phone", kind: fieldText},
		},
		filters: map[string]fieldSpec{
			"id":   {column: "id", kind: fieldText},
			"name": {column: "name", kind: fieldText},
		},
		required: []string{"name"},
		orderBy:  "name ASC",
	},
}

type Executor struct {
	pool *pgxpool.Pool
}

func NewExecutor(pool *pgxpool.Pool) *Executor {
	return &Executor{pool: pool}
}

func (e *Executor) Execute(ctx context.Context, tenantID string, plan ActionPlan) (*ExecutionResult, error) {
	spec, ok := entities[plan.Model]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, plan.Model)
	}

	switch plan.Action {
	case ActionCreate:
		if err := e.create(ctx, tenantID, spec, plan.Data); err != nil {
			return nil, err
		}
		return &ExecutionResult{Reply: plan.SuccessReply}, nil

	case ActionUpdate, ActionUpdateMany:
		affected, err := e.update(ctx, tenantID, spec, plan.Data, plan.Where)
		if err != nil {
			return nil, err
		}
		reply := plan.SuccessReply
		if plan.Action == ActionUpdateMany {
			reply += fmt.Sprintf("\n\n(Total processado: %d itens)", affected)
		}
		return &ExecutionResult{Reply: reply, Affected: affected}, nil

	case ActionFindFirst, ActionFindMany:
		limit := 50
		if plan.Action == ActionFindFirst {
			limit = 1
		}
		body, err := e.find(ctx, tenantID, plan.Model, spec, plan.Where, limit)
		if err != nil {
			return nil, err
		}
		return &ExecutionResult{Reply: plan.SuccessReply + "\n" + body}, nil

	default:
		return nil, fmt.Errorf("unsupported action %q", plan.Action)
	}
}

// create inserts one row. Plan data keys are walked through the entity's
// field table: null values are dropped, tenantId is ignored in favor of the
// authenticated tenant, relation ids are verified against the tenant's own
// rows, and unknown keys fail closed.
func (e *Executor) create(ctx context.Context, tenantID string, spec entitySpec, data map[string]any) error {
	columns := []string{"id", "tenant_id"}
	values := []any{uuid.NewString(), tenantID}

	for _, key := range sortedKeys(data) {
		value := data[key]
		if value == nil {
			continue
		}
		if key == "tenantId" || key == "id" {
			continue
		}
		fs, ok := spec.fields[key]
		if !ok {
			return fmt.Errorf("field %q is not valid for %s", key, spec.table)
		}
		coerced, err := coerceValue(fs.kind, value)
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		if fs.kind == fieldRelation {
			if err := e.verifyRelation(ctx, tenantID, fs.relation, coerced.(string)); err != nil {
				return fmt.Errorf("field %q: %w", key, err)
			}
		}
		columns = append(columns, fs.column)
		values = append(values, coerced)
	}

	for _, req := range spec.required {
		if !hasValue(data, req) {
			return fmt.Errorf("field %q is required for %s", req, spec.table)
		}
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		spec.table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if _, err := e.pool.Exec(ctx, query, values...); err != nil {
		return fmt.Errorf("insert %s: %w", spec.table, err)
	}
	return nil
}

// update applies data to every row matching where. Multiple matched rows are
// intentional: bulk bill-settlement commands update the whole set.
func (e *Executor) update(ctx context.Context, tenantID string, spec entitySpec, data, where map[string]any) (int64, error) {
	var sets []string
	var args []any

	for _, key := range sortedKeys(data) {
		value := data[key]
		if key == "tenantId" || key == "id" {
			continue
		}
		fs, ok := spec.fields[key]
		if !ok {
			return 0, fmt.Errorf("field %q is not valid for %s", key, spec.table)
		}
		if value == nil {
			sets = append(sets, fmt.Sprintf("%s = NULL", fs.column))
			continue
		}
		coerced, err := coerceValue(fs.kind, value)
		if err != nil {
			return 0, fmt.Errorf("field %q: %w", key, err)
		}
		args = append(args, coerced)
		sets = append(sets, fmt.Sprintf("%s = $%d", fs.column, len(args)))
	}
	if len(sets) == 0 {
		return 0, errors.New("update has nothing to set")
	}

	conditions, args, err := buildWhere(spec, where, tenantID, args)
	if err != nil {
		return 0, err
	}

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		spec.table, strings.Join(sets, ", "), strings.Join(conditions, " AND "))

	tag, err := e.pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", spec.table, err)
	}
	return tag.RowsAffected(), nil
}

func (e *Executor) find(ctx context.Context, tenantID string, model PlanModel, spec entitySpec, where map[string]any, limit int) (string, error) {
	conditions, args, err := buildWhere(spec, where, tenantID, nil)
	if err != nil {
		return "", err
	}

	selectCols := findColumns(model)
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT %d",
		selectCols, spec.table, strings.Join(conditions, " AND "), spec.orderBy, limit)

	rows, err := e.pool.Query(ctx, query, args...)
	if err != nil {
		return "", fmt.Errorf("select %s: %w", spec.table, err)
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		line, err := scanResultLine(model, rows)
		if err != nil {
			return "", fmt.Errorf("scan %s: %w", spec.table, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("select %s: %w", spec.table, err)
	}

	if len(lines) == 0 {
		return emptyResultLine, nil
	}
	return strings.Join(lines, "\n"), nil
}

// verifyRelation confirms the referenced row exists inside the same tenant.
// The plan may claim any id; only the authenticated tenant's rows count.
func (e *Executor) verifyRelation(ctx context.Context, tenantID, table, id string) error {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1 AND tenant_id = $2)", table)
	if err := e.pool.QueryRow(ctx, query, id, tenantID).Scan(&exists); err != nil {
		return fmt.Errorf("verify %s relation: %w", table, err)
	}
	if !exists {
		return fmt.Errorf("%s id %q not found for this tenant", table, id)
	}
	return nil
}

// buildWhere translates the plan's where map into SQL conditions. The tenant
// condition always comes first and always uses the authenticated tenant id;
// a tenantId key inside the plan's where is discarded. Scalar values compare
// with =, operator objects support lte/gte/lt/gt.
func buildWhere(spec entitySpec, where map[string]any, tenantID string, args []any) ([]string, []any, error) {
	args = append(args, tenantID)
	conditions := []string{fmt.Sprintf("tenant_id = $%d", len(args))}

	for _, key := range sortedKeys(where) {
		value := where[key]
		if key == "tenantId" || value == nil {
			continue
		}
		fs, ok := spec.filters[key]
		if !ok {
			return nil, nil, fmt.Errorf("filter %q is not valid for %s", key, spec.table)
		}

		if ops, isMap := value.(map[string]any); isMap {
			for _, op := range sortedKeys(ops) {
				cmp, ok := comparators[op]
				if !ok {
					return nil, nil, fmt.Errorf("filter %q: unsupported operator %q", key, op)
				}
				coerced, err := coerceValue(fs.kind, ops[op])
				if err != nil {
					return nil, nil, fmt.Errorf("filter %q: %w", key, err)
				}
				args = append(args, coerced)
				conditions = append(conditions, fmt.Sprintf("%s %s $%d", fs.column, cmp, len(args)))
			}
			continue
		}

		coerced, err := coerceValue(fs.kind, value)
		if err != nil {
			return nil, nil, fmt.Errorf("filter %q: %w", key, err)
		}
		args = append(args, coerced)
		if fs.kind == fieldText && fs.column == "description" {
			// descriptions are matched loosely so "conta de luz" finds "Conta de Luz (Fev)"
			conditions = append(conditions, fmt.Sprintf("%s ILIKE '%%' || $%d || '%%'", fs.column, len(args)))
		} else {
			conditions = append(conditions, fmt.Sprintf("%s = $%d", fs.column, len(args)))
		}
	}

	return conditions, args, nil
}

var comparators = map[string]string{
	"lte": "<=",
	"gte": ">=",
	"lt":  "<",
	"gt":  ">",
}

// coerceValue converts a JSON-decoded plan value into the Go type the column
// expects. Anything that does not fit fails closed.
func coerceValue(kind fieldKind, value any) (any, error) {
	switch kind {
	case fieldText, fieldRelation:
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, fmt.Errorf("expected a non-empty string, got %T", value)
		}
		return s, nil

	case fieldMoney:
		switch v := value.(type) {
		case float64:
			return decimal.NewFromFloat(v), nil
		case string:
			d, err := decimal.NewFromString(v)
			if err != nil {
				return nil, fmt.Errorf("invalid amount %q", v)
			}
			return d, nil
		default:
			return nil, fmt.Errorf("expected a number, got %T", value)
		}

	case fieldDate:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a date string, got %T", value)
		}
		return parseDate(s)

	case fieldFlag:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected a boolean, got %T", value)
		}
		return b, nil

	case fieldTxType:
		s, _ := value.(string)
		t := TransactionType(strings.ToUpper(strings.TrimSpace(s)))
		if t != Income && t != Expense {
			return nil, fmt.Errorf("invalid transaction type %q", s)
		}
		return t, nil
	}
	return nil, fmt.Errorf("unhandled field kind %d", kind)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// pgxRow is the subset of pgx row scanning the render functions need.
type pgxRow interface {
	Scan(dest ...any) error
}

func findColumns(model PlanModel) string {
	switch model {
	case ModelPayable:
		return "description, amount, due_date, is_paid"
	case ModelLedgerEntry:
		return "description, amount, date, type"
	default:
		return "name"
	}
}

func scanResultLine(model PlanModel, row pgxRow) (string, error) {
	switch model {
	case ModelPayable:
		var p Payable
		if err := row.Scan(&p.Description, &p.Amount, &p.DueDate, &p.IsPaid); err != nil {
			return "", err
		}
		return renderPayableLine(p), nil

	case ModelLedgerEntry:
		var entry LedgerEntry
		var description *string
		if err := row.Scan(&description, &entry.Amount, &entry.Date, &entry.Type); err != nil {
			return "", err
		}
		if description != nil {
			entry.Description = *description
		}
		return renderLedgerLine(entry), nil

	default:
		var name string
		if err := row.Scan(&name); err != nil {
			return "", err
		}
		return renderNamedLine(name), nil
	}
}
