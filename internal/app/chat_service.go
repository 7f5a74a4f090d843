package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"treasury-bot/internal/ai"
	"treasury-bot/internal/core"
	"treasury-bot/internal/whatsapp"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	upgradeReply       = "Você precisa estar no plano PRO para usar este recurso."
	notUnderstoodReply = "🤔 Não consegui entender esse comando. Tente reformular."
)

type chatService struct {
	pool      *pgxpool.Pool
	directory core.DirectoryService
	menus     core.MenuService
	intents   ai.IntentService
	executor  core.ExecutorService
	sender    whatsapp.Sender
	now       func() time.Time

	processed atomic.Uint64
	executed  atomic.Uint64
	failed    atomic.Uint64
}

// NewChatService constructs the pipeline service behind ApplicationService.
func NewChatService(
	pool *pgxpool.Pool,
	directory core.DirectoryService,
	menus core.MenuService,
	intents ai.IntentService,
	executor core.ExecutorService,
	sender whatsapp.Sender,
) ApplicationService {
	return &chatService{
		pool:      pool,
		directory: directory,
		menus:     menus,
		intents:   intents,
		executor:  executor,
		sender:    sender,
		now:       time.Now,
	}
}

func (s *chatService) HandleMessage(ctx context.Context, m InboundMessage) (*HandleResult, error) {
	s.processed.Add(1)

	user, err := s.directory.LookupByPhone(ctx, m.Phone)
	if err != nil {
		if errors.Is(err, core.ErrUnknownSender) {
			// pushName is logged as a support hint; no reply goes out.
			log.Printf("chat: unknown sender %s (%s)", m.Phone, m.PushName)
			return &HandleResult{Status: StatusUnauthorized}, nil
		}
		return nil, fmt.Errorf("authorize sender: %w", err)
	}

	log.Printf("chat: command from %s (tenant %s): %q", user.Name, user.TenantID, m.Text)

	if user.Plan != core.PlanPro {
		s.reply(ctx, m.Destination, upgradeReply)
		return &HandleResult{Status: StatusPlanGated, Reply: upgradeReply}, nil
	}

	menu, err := s.menus.BuildMenu(ctx, user.TenantID)
	if err != nil {
		return nil, fmt.Errorf("build tenant menu: %w", err)
	}

	interp, err := s.intents.AnalyzeMessage(ctx, m.Text, user.TenantID, *menu, s.now())
	if err != nil {
		log.Printf("chat: interpretation failed: %v", err)
		s.reply(ctx, m.Destination, notUnderstoodReply)
		return &HandleResult{Status: StatusNotUnderstood, Reply: notUnderstoodReply}, nil
	}

	if interp.ReplyText != "" {
		s.reply(ctx, m.Destination, interp.ReplyText)
		return &HandleResult{Status: StatusReplied, Reply: interp.ReplyText}, nil
	}

	plan := interp.Plan
	log.Printf("chat: executing %s.%s for tenant %s", plan.Model, plan.Action, user.TenantID)

	result, err := s.executor.Execute(ctx, user.TenantID, *plan)
	if err != nil {
		s.failed.Add(1)
		log.Printf("chat: execution failed: %v", err)
		s.reply(ctx, m.Destination, plan.ErrorReply)
		return &HandleResult{Status: StatusExecutionFailed, Reply: plan.ErrorReply}, nil
	}

	s.executed.Add(1)
	s.reply(ctx, m.Destination, result.Reply)
	return &HandleResult{Status: StatusExecuted, Reply: result.Reply}, nil
}

func (s *chatService) TenantMenu(ctx context.Context, tenantID string) (*core.TenantMenu, error) {
	return s.menus.BuildMenu(ctx, tenantID)
}

func (s *chatService) Stats() Stats {
	return Stats{
		Processed: s.processed.Load(),
		Executed:  s.executed.Load(),
		Failed:    s.failed.Load(),
	}
}

// reply sends one outbound message. Send failures are logged and swallowed:
// surfacing them would only produce an error about an error, and the gateway
// does not retry sends anyway.
func (s *chatService) reply(ctx context.Context, destination, text string) {
	if err := s.sender.SendText(ctx, destination, text); err != nil {
		log.Printf("chat: reply to %s failed: %v", destination, err)
	}
}
