package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"treasury-bot/internal/core"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// Interpretation is the outcome of analyzing one chat message: either an
// executable plan, or a plain reply (refusals and unrecognized commands).
// Exactly one of the two is set.
type Interpretation struct {
	Plan      *core.ActionPlan
	ReplyText string
}

type IntentService interface {
	// AnalyzeMessage translates free-form chat text into an Interpretation,
	// grounded on the tenant's menu and the caller's current time. Any
	// transport or parse failure is returned as an error; no partial plan
	// ever escapes.
	AnalyzeMessage(ctx context.Context, text, tenantID string, menu core.TenantMenu, now time.Time) (*Interpretation, error)
}

type provider struct {
	client openai.Client
	model  shared.ResponsesModel
}

// Interpreter asks a language model for a constrained action plan. When a
// fallback provider is configured, it transparently serves requests the
// primary cannot; the output contract is identical either way.
type Interpreter struct {
	primary  provider
	fallback *provider
}

const requestTimeout = 60 * time.Second

func NewInterpreter(apiKey string) *Interpreter {
	return &Interpreter{
		primary: provider{
			client: openai.NewClient(
				option.WithAPIKey(apiKey),
				option.WithRequestTimeout(requestTimeout),
			),
			model: shared.ResponsesModel(shared.ChatModelGPT4o),
		},
	}
}

// WithFallback configures a second OpenAI-compatible provider (base URL plus
// model name) used when the primary is unreachable.
func (i *Interpreter) WithFallback(baseURL, apiKey, model string) *Interpreter {
	i.fallback = &provider{
		client: openai.NewClient(
			option.WithAPIKey(apiKey),
			option.WithBaseURL(baseURL),
			option.WithRequestTimeout(requestTimeout),
		),
		model: shared.ResponsesModel(model),
	}
	return i
}

func (i *Interpreter) AnalyzeMessage(ctx context.Context, text, tenantID string, menu core.TenantMenu, now time.Time) (*Interpretation, error) {
	prompt := buildPrompt(text, tenantID, menu, now)

	content, err := i.complete(ctx, i.primary, prompt)
	if err != nil && i.fallback != nil {
		log.Printf("intent: primary provider failed, trying fallback: %v", err)
		content, err = i.complete(ctx, *i.fallback, prompt)
	}
	if err != nil {
		return nil, fmt.Errorf("intent completion: %w", err)
	}

	return decodePlan(content)
}

func (i *Interpreter) complete(ctx context.Context, p provider, prompt string) (string, error) {
	schemaMap, err := planSchema()
	if err != nil {
		return "", err
	}

	params := responses.ResponseNewParams{
		Model: p.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Temperature: param.NewOpt(0.0),
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "action_plan",
					Schema:      schemaMap,
					Description: param.NewOpt("One database action plan, or a plain reply when no action should run"),
				},
			},
		},
	}

	resp, err := p.client.Responses.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("model call: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return "", errors.New("empty response content")
	}
	return content, nil
}

// planEnvelope is the exact JSON shape requested from the model. The reply
// field exists so refusals and unrecognized commands come back as plain text
// instead of a malformed plan.
type planEnvelope struct {
	core.ActionPlan
	Reply string `json:"reply,omitempty" jsonschema_description:"Plain reply when no database operation should run (refused or unrecognized commands). Leave model and action empty in that case"`
}

// decodePlan parses model output into an Interpretation. A reply-only answer
// passes through as text; anything claiming to be a plan must survive
// Normalize and Validate or the whole interpretation fails.
func decodePlan(content string) (*Interpretation, error) {
	var env planEnvelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return nil, fmt.Errorf("parse model output: %w", err)
	}

	if strings.TrimSpace(env.Reply) != "" && env.Model == "" {
		return &Interpretation{ReplyText: strings.TrimSpace(env.Reply)}, nil
	}

	if env.Model == "" || env.Action == "" {
		return nil, errors.New("model output has no target or action")
	}

	plan := env.ActionPlan
	plan.Normalize()
	if err := plan.Validate(); err != nil {
		return nil, fmt.Errorf("invalid plan: %w", err)
	}
	return &Interpretation{Plan: &plan}, nil
}

func planSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: true,
		DoNotReference:            true,
	}
	schemaJSON, err := json.Marshal(reflector.Reflect(planEnvelope{}))
	if err != nil {
		return nil, fmt.Errorf("marshal plan schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("unmarshal plan schema: %w", err)
	}
	return schemaMap, nil
}
