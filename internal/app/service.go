package app

import (
	"context"

	"treasury-bot/internal/core"
)

// InboundMessage is one deduplicated chat message handed over by the webhook
// adapter. Destination is the raw identifier replies go to; Phone is the
// normalized directory lookup key.
type InboundMessage struct {
	MessageID   string
	PushName    string
	Destination string
	Phone       string
	Text        string
}

type HandleStatus string

const (
	// StatusUnauthorized: sender not in the directory. Silently acknowledged.
	StatusUnauthorized HandleStatus = "unauthorized"
	// StatusPlanGated: tenant is not on the premium plan. Fixed upgrade reply.
	StatusPlanGated HandleStatus = "plan_gated"
	// StatusNotUnderstood: interpretation failed. Generic fallback reply.
	StatusNotUnderstood HandleStatus = "not_understood"
	// StatusReplied: the interpreter answered with plain text (refusals,
	// unrecognized commands). No persistence ran.
	StatusReplied HandleStatus = "replied"
	// StatusExecuted: the plan ran and the success reply was sent.
	StatusExecuted HandleStatus = "executed"
	// StatusExecutionFailed: persistence failed. The plan's error reply was sent.
	StatusExecutionFailed HandleStatus = "execution_failed"
)

type HandleResult struct {
	Status HandleStatus
	Reply  string
}

type ReminderDetail struct {
	Tenant string `json:"tenant"`
	User   string `json:"user"`
	Status string `json:"status"`
}

type ReminderResult struct {
	SentCount int              `json:"sent_count"`
	Details   []ReminderDetail `json:"details"`
}

// Stats are running counters for the ops API.
type Stats struct {
	Processed uint64 `json:"processed"`
	Executed  uint64 `json:"executed"`
	Failed    uint64 `json:"failed"`
}

// ApplicationService is the single interface the web adapter calls. It owns
// the whole authorize → interpret → execute → reply pipeline; the adapter
// only does transport work (parsing, filtering, deduplication).
type ApplicationService interface {
	// HandleMessage runs the pipeline for one message. Every message that
	// reaches an authorized sender produces exactly one outbound reply
	// attempt, success or failure. Returned errors are unexpected internal
	// failures only; domain failures resolve into the result status.
	HandleMessage(ctx context.Context, m InboundMessage) (*HandleResult, error)

	// NotifyDuePayables sends each tenant with open, due payables one
	// summary message, delivered to every directory user with a phone.
	NotifyDuePayables(ctx context.Context) (*ReminderResult, error)

	// TenantMenu returns the rendered grounding menu for one tenant, used
	// by the ops API for prompt debugging.
	TenantMenu(ctx context.Context, tenantID string) (*core.TenantMenu, error)

	// Stats returns running pipeline counters.
	Stats() Stats
}
