package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"leadflow/cache"
	"leadflow/lead"
	"leadflow/llm"
)

const (
	// DefaultAction is the first-touch dispatch action.
	DefaultAction = "process_lead"

	// resultTTL bounds how long a dispatch result is reused for an identical
	// (type, lead, action) request.
	resultTTL = 30 * time.Minute

	dispatchTemperature = 0.3
	dispatchMaxTokens   = 1000

	// staticConfidence is a placeholder, not a measured value. Kept constant
	// so downstream consumers do not mistake it for model output.
	staticConfidence = 0.85
)

// Result is the outcome of one successful dispatch.
type Result struct {
	Summary         string
	Analysis        string
	Recommendations []string
	Confidence      float64
	Timestamp       int64 // unix milliseconds
}

// Dispatcher runs one agent against one lead per call: build the prompt,
// invoke the completion API once (no retries at this layer), extract
// recommendations and append exactly one activity record per attempt.
type Dispatcher struct {
	client     llm.Client
	activities ActivityRepository
	cache      *cache.TTL
	logger     *zap.Logger
	now        func() time.Time
}

func NewDispatcher(client llm.Client, activities ActivityRepository, c *cache.TTL, logger *zap.Logger) *Dispatcher {
	if c == nil {
		c = cache.NewTTL()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		client:     client,
		activities: activities,
		cache:      c,
		logger:     logger,
		now:        time.Now,
	}
}

func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Dispatch executes agentType against the lead. Unknown agent types fail fast
// with ErrUnknownType before any external call. Completion failures are
// recorded as an error activity and returned to the caller; there is no
// fallback at this layer.
func (d *Dispatcher) Dispatch(ctx context.Context, agentType Type, detail lead.Detail, action string) (Result, error) {
	cfg, err := Lookup(agentType)
	if err != nil {
		return Result{}, err
	}

	if action == "" {
		action = DefaultAction
	}

	key := fmt.Sprintf("agent:%s:%s:%s", agentType, detail.LeadID, action)
	if cached, ok := d.cache.Get(key); ok {
		if result, ok := cached.(Result); ok {
			return result, nil
		}
	}

	window := NewWindow(cfg.ContextSize)
	window.Add(leadContext(detail))
	window.Add(BuildPrompt(agentType, detail))

	started := d.now()
	analysis, err := d.client.Complete(ctx, llm.Request{
		System:      cfg.SystemPrompt,
		User:        window.Render(),
		Temperature: dispatchTemperature,
		MaxTokens:   dispatchMaxTokens,
	})
	duration := d.now().Sub(started)

	if err != nil {
		d.logActivity(ctx, detail.LeadID, agentType, action,
			fmt.Sprintf("%s failed for %s", agentType, detail.CompanyName),
			map[string]any{"error": err.Error()},
			ActivityError, duration)
		return Result{}, fmt.Errorf("agent: dispatch %s: %w", agentType, err)
	}

	result := Result{
		Summary:         fmt.Sprintf("%s analysis completed for %s", agentType, detail.CompanyName),
		Analysis:        analysis,
		Recommendations: ExtractRecommendations(analysis),
		Confidence:      staticConfidence,
		Timestamp:       d.now().UnixMilli(),
	}

	d.logActivity(ctx, detail.LeadID, agentType, action, result.Summary,
		map[string]any{
			"summary":         result.Summary,
			"analysis":        result.Analysis,
			"recommendations": result.Recommendations,
			"confidence":      result.Confidence,
			"timestamp":       result.Timestamp,
		},
		ActivitySuccess, duration)

	d.cache.Set(key, result, resultTTL)

	return result, nil
}

// logActivity appends the audit record for one attempt. Append failures are
// logged and swallowed so a reporting outage cannot mask a dispatch result.
func (d *Dispatcher) logActivity(ctx context.Context, leadID string, agentType Type, action, description string, output map[string]any, status ActivityStatus, duration time.Duration) {
	_, err := d.activities.Append(ctx, Activity{
		LeadID:       leadID,
		ActivityType: fmt.Sprintf("%s_%s", agentType, action),
		Description:  description,
		OutputData:   output,
		Status:       status,
		DurationMs:   duration.Milliseconds(),
	})
	if err != nil {
		d.logger.Error("append agent activity failed",
			zap.String("lead_id", leadID),
			zap.String("agent_type", string(agentType)),
			zap.Error(err))
	}
}

// leadContext serializes the lead into one context item, mirroring what the
// agent saw at dispatch time in the activity trail.
func leadContext(detail lead.Detail) string {
	payload, err := json.Marshal(map[string]any{
		"lead_id":  detail.LeadID,
		"company":  detail.CompanyName,
		"industry": detail.Industry,
		"website":  detail.Website,
		"contact":  detail.FirstName + " " + detail.LastName,
		"email":    detail.Email,
		"track":    detail.Track,
	})
	if err != nil {
		return ""
	}
	return "Context: " + string(payload)
}
