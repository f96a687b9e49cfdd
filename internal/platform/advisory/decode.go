package advisory

import (
	"encoding/json"
	"fmt"
	"strings"
)

// wireAdvice covers both response shapes seen from the model: the short
// {taxExplanation, warning} form and the full breakdown form whose
// explanation sits under breakdown.
type wireAdvice struct {
	TaxExplanation string `json:"taxExplanation"`
	Warning        string `json:"warning"`
	Breakdown      *struct {
		TaxExplanation string `json:"taxExplanation"`
		ComplianceNote string `json:"complianceNote"`
		Warning        string `json:"warning"`
	} `json:"breakdown"`
}

// Decode adapts a raw model response into Advice.
func Decode(raw []byte) (Advice, error) {
	text := strings.TrimSpace(string(raw))
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return Advice{}, fmt.Errorf("%w: empty body", ErrMalformed)
	}

	var wire wireAdvice
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return Advice{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	advice := Advice{TaxExplanation: wire.TaxExplanation, Warning: wire.Warning}
	if b := wire.Breakdown; b != nil {
		if advice.TaxExplanation == "" {
			advice.TaxExplanation = b.TaxExplanation
		}
		if advice.Warning == "" {
			advice.Warning = b.Warning
		}
		if advice.Warning == "" {
			advice.Warning = b.ComplianceNote
		}
	}
	advice.TaxExplanation = strings.TrimSpace(advice.TaxExplanation)
	advice.Warning = strings.TrimSpace(advice.Warning)
	if advice.TaxExplanation == "" {
		return Advice{}, fmt.Errorf("%w: no tax explanation", ErrMalformed)
	}
	return advice, nil
}

// DecodeInsights accepts a bare array or an object wrapping it under
// "insights". Entries without a message are dropped; unknown types become info.
func DecodeInsights(raw []byte) ([]Insight, error) {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, fmt.Errorf("%w: empty body", ErrMalformed)
	}
	var items []Insight
	if strings.HasPrefix(text, "{") {
		var wrapped struct {
			Insights []Insight `json:"insights"`
		}
		if err := json.Unmarshal([]byte(text), &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		items = wrapped.Insights
	} else if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	out := make([]Insight, 0, len(items))
	for _, item := range items {
		item.Message = strings.TrimSpace(item.Message)
		if item.Message == "" {
			continue
		}
		switch item.Type {
		case InsightSaving, InsightWarning, InsightInfo:
		default:
			item.Type = InsightInfo
		}
		out = append(out, item)
	}
	return out, nil
}
