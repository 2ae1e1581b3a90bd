// Package classify decides which track a lead belongs to. The primary path
// asks the completion API for a JSON decision; any failure degrades to a
// deterministic rule-based fallback, so classification itself never fails.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"leadflow/cache"
	"leadflow/lead"
	"leadflow/llm"
)

const (
	// resultTTL bounds how long a classification is memoized per lead.
	resultTTL = time.Hour

	systemPrompt = `You are the Master Coordinator for a dual-track marketing system. Your job is to classify leads as either 'enterprise' or 'smb' track based on the provided data.`

	temperature = 0.1
	maxTokens   = 300
)

// Result is the classification decision applied onto a lead. The AI path and
// the fallback path both produce this shape; only Reasoning distinguishes
// them.
type Result struct {
	Track      lead.Track    `json:"track"`
	Confidence float64       `json:"confidence"`
	Priority   lead.Priority `json:"priority"`
	Reasoning  string        `json:"reasoning"`
}

// Classifier memoizes decisions per lead id and collapses concurrent requests
// for the same lead into one completion call.
type Classifier struct {
	client llm.Client
	cache  *cache.TTL
	group  singleflight.Group
}

func New(client llm.Client, c *cache.TTL) *Classifier {
	if c == nil {
		c = cache.NewTTL()
	}
	return &Classifier{client: client, cache: c}
}

// Classify returns a track decision for the lead. It never returns an error:
// completion failures and unparsable responses fall back to the rule-based
// decision. The caller persists the result; Classify does not touch the
// repository.
func (c *Classifier) Classify(ctx context.Context, d lead.Detail) Result {
	key := "classification:" + d.LeadID

	if cached, ok := c.cache.Get(key); ok {
		if result, ok := cached.(Result); ok {
			return result
		}
	}

	v, _, _ := c.group.Do(key, func() (any, error) {
		result := c.classifyOnce(ctx, d)
		c.cache.Set(key, result, resultTTL)
		return result, nil
	})

	return v.(Result)
}

func (c *Classifier) classifyOnce(ctx context.Context, d lead.Detail) Result {
	text, err := c.client.Complete(ctx, llm.Request{
		System:      systemPrompt,
		User:        buildPrompt(d),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return Fallback(d)
	}

	result, err := parseResult(text)
	if err != nil {
		return Fallback(d)
	}
	return result
}

// buildPrompt renders the lead and the fixed decision rubric. Absent fields
// become explicit placeholders so the prompt stays deterministic.
func buildPrompt(d lead.Detail) string {
	var b strings.Builder

	b.WriteString("Lead Information:\n")
	fmt.Fprintf(&b, "- Company: %s\n", d.CompanyName)
	fmt.Fprintf(&b, "- Industry: %s\n", orPlaceholder(d.Industry, "Unknown"))
	fmt.Fprintf(&b, "- Employees: %s\n", orPlaceholderInt(d.EmployeeCount, "Unknown"))
	fmt.Fprintf(&b, "- Website: %s\n", orPlaceholder(d.Website, "None"))
	fmt.Fprintf(&b, "- Contact: %s %s\n", d.FirstName, d.LastName)
	fmt.Fprintf(&b, "- Title: %s\n", orPlaceholder(d.Title, "Unknown"))
	fmt.Fprintf(&b, "- Email: %s\n", d.Email)
	fmt.Fprintf(&b, "- Notes: %s\n", orPlaceholder(d.Notes, "None"))

	b.WriteString(`
ENTERPRISE TRACK criteria:
- Companies with 50+ employees
- Annual revenue > $5M
- Complex security/compliance requirements
- Long sales cycles acceptable
- High-value potential deals

SMB TRACK criteria:
- Companies with < 50 employees
- Local and regional businesses
- Platform dependency issues
- Quick decision making needed
- Volume-based approach

Respond with JSON: {"track": "enterprise|smb", "confidence": 0.0-1.0, "reasoning": "explanation", "priority": "high|medium|low"}`)

	return b.String()
}

// parseResult decodes the model response, tolerating markdown code fences but
// nothing else. Schema violations are errors so the caller falls back.
func parseResult(text string) (Result, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var result Result
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return Result{}, fmt.Errorf("classify: decode response: %w", err)
	}

	if result.Track != lead.TrackEnterprise && result.Track != lead.TrackSMB {
		return Result{}, fmt.Errorf("classify: unexpected track %q", result.Track)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		return Result{}, fmt.Errorf("classify: confidence %v out of range", result.Confidence)
	}
	switch result.Priority {
	case lead.PriorityLow, lead.PriorityMedium, lead.PriorityHigh:
	default:
		return Result{}, fmt.Errorf("classify: unexpected priority %q", result.Priority)
	}

	return result, nil
}

func orPlaceholder(v *string, placeholder string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return placeholder
	}
	return *v
}

func orPlaceholderInt(v *int, placeholder string) string {
	if v == nil {
		return placeholder
	}
	return fmt.Sprintf("%d", *v)
}
