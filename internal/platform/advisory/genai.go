package advisory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"zenpayroll/internal/platform/config"
	"zenpayroll/internal/platform/metrics"
)

// GenAI is the Gemini-backed advisor.
type GenAI struct {
	client        *genai.Client
	model         string
	insightsModel string
	timeout       time.Duration
	metrics       *metrics.Collector
}

// New returns Disabled when no credential is configured.
func New(ctx context.Context, cfg config.Config, collector *metrics.Collector) (Advisor, error) {
	if cfg.AdvisoryAPIKey == "" {
		slog.Info("payroll advisory disabled", "reason", "no API key")
		return Disabled{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.AdvisoryAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAI{
		client:        client,
		model:         cfg.AdvisoryModel,
		insightsModel: cfg.AdvisoryInsightsModel,
		timeout:       cfg.AdvisoryTimeout,
		metrics:       collector,
	}, nil
}

func (g *GenAI) Advise(ctx context.Context, req Request) (Advice, error) {
	prompt, err := advicePrompt(req)
	if err != nil {
		return Advice{}, err
	}
	raw, err := g.generate(ctx, g.model, prompt, adviceSchema)
	if err != nil {
		return Advice{}, err
	}
	return Decode([]byte(raw))
}

func (g *GenAI) Insights(ctx context.Context, summary Summary) ([]Insight, error) {
	prompt, err := insightsPrompt(summary)
	if err != nil {
		return nil, err
	}
	raw, err := g.generate(ctx, g.insightsModel, prompt, insightsSchema)
	if err != nil {
		return nil, err
	}
	return DecodeInsights([]byte(raw))
}

func (g *GenAI) generate(ctx context.Context, model, prompt string, schema *genai.Schema) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	resp, err := g.client.Models.GenerateContent(ctx, model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	g.record(err != nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp.Text(), nil
}

func (g *GenAI) record(failed bool) {
	if g.metrics != nil {
		g.metrics.RecordAdvisory(failed)
	}
}

func advicePrompt(req Request) (string, error) {
	employee, err := json.Marshal(req.Employee)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Explain the tax treatment of this payroll run. The amounts are already calculated; do not recalculate them.
Employee: %s
Overtime Hours: %g at %g per hour
Bonus: %g
Unpaid Leave Days: %g at %g per day
Tax Percent: %g
VAT Percent: %g

Country Context:
- BD: Bangladesh (progressive tax slabs, 10-25%% typically, standard allowances)
- KSA: Saudi Arabia (GOSI contribution 10%% for locals, fixed rules for expats)
- UAE: No income tax, pension for nationals only.

Return a short taxExplanation and, only if an input looks unrealistic or non-compliant, a warning.`,
		employee, req.OvertimeHours, req.OvertimeRate, req.Bonus, req.UnpaidLeaveDays, req.UnpaidLeaveRate, req.TaxPercent, req.VATPercent), nil
}

func insightsPrompt(summary Summary) (string, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Analyze the following payroll data summary and provide 3-4 actionable financial insights for a business owner.
Data: %s

Focus on cost saving opportunities, budget anomalies and compliance risks.
Return a JSON array of objects with type (saving, warning or info), message and action.`, data), nil
}

var adviceSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"taxExplanation": {Type: genai.TypeString},
		"warning":        {Type: genai.TypeString},
	},
	Required: []string{"taxExplanation"},
}

var insightsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"type":    {Type: genai.TypeString},
			"message": {Type: genai.TypeString},
			"action":  {Type: genai.TypeString},
		},
		Required: []string{"type", "message"},
	},
}
