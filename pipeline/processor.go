// Package pipeline wires intake, classification, dispatch and the sheet
// mirror into the end-to-end lead flow. Each call runs the sequence to
// completion inside the caller's request; there is no background scheduler.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"leadflow/agent"
	"leadflow/classify"
	"leadflow/lead"
)

// LeadStore is the slice of the lead service the processor uses.
type LeadStore interface {
	Create(ctx context.Context, params lead.CreateParams) (lead.Created, error)
	Get(ctx context.Context, leadID string) (lead.Detail, error)
	ApplyClassification(ctx context.Context, leadID string, track lead.Track, priority lead.Priority, confidence float64) (lead.Lead, error)
	AdvanceStatus(ctx context.Context, leadID string, to lead.Status) (lead.Lead, error)
}

// Classifier produces a track decision; by contract it never fails.
type Classifier interface {
	Classify(ctx context.Context, d lead.Detail) classify.Result
}

// Dispatcher runs one agent against one lead.
type Dispatcher interface {
	Dispatch(ctx context.Context, agentType agent.Type, d lead.Detail, action string) (agent.Result, error)
}

// Mirror pushes classification state into the review workbook, best-effort.
type Mirror interface {
	MirrorClassification(ctx context.Context, row int, result classify.Result)
}

// Processor owns the classify-then-dispatch sequence. No transaction spans
// the whole flow: a crash can leave a lead classified but never dispatched,
// which is acceptable because dispatch is an idempotent re-trigger.
type Processor struct {
	leads      LeadStore
	classifier Classifier
	dispatcher Dispatcher
	mirror     Mirror
	logger     *zap.Logger
}

// Outcome reports one completed intake run.
type Outcome struct {
	LeadID         string
	Classification classify.Result
	AgentType      agent.Type
	Dispatch       agent.Result
}

// NewProcessor constructs the pipeline. mirror may be nil to disable sheet
// sync.
func NewProcessor(leads LeadStore, classifier Classifier, dispatcher Dispatcher, mirror Mirror, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		leads:      leads,
		classifier: classifier,
		dispatcher: dispatcher,
		mirror:     mirror,
		logger:     logger,
	}
}

// Process runs the full intake flow: create the lead, classify it, persist
// the decision, dispatch the first-touch agent for the track, and mirror the
// result to the sheet. Validation failures reject before classification;
// dispatch failures return after the classification has been persisted.
func (p *Processor) Process(ctx context.Context, params lead.CreateParams) (Outcome, error) {
	created, err := p.leads.Create(ctx, params)
	if err != nil {
		return Outcome{}, err
	}

	detail, err := p.leads.Get(ctx, created.LeadID)
	if err != nil {
		return Outcome{}, err
	}

	result := p.classifier.Classify(ctx, detail)
	p.logger.Info("lead classified",
		zap.String("lead_id", created.LeadID),
		zap.String("track", string(result.Track)),
		zap.Float64("confidence", result.Confidence))

	if _, err := p.leads.ApplyClassification(ctx, created.LeadID, result.Track, result.Priority, result.Confidence); err != nil {
		return Outcome{}, err
	}
	detail.Track = result.Track
	detail.Status = lead.StatusClassified
	detail.Priority = result.Priority

	agentType, err := agent.ForTrack(result.Track)
	if err != nil {
		return Outcome{}, err
	}

	outcome := Outcome{
		LeadID:         created.LeadID,
		Classification: result,
		AgentType:      agentType,
	}

	dispatchResult, err := p.dispatcher.Dispatch(ctx, agentType, detail, agent.DefaultAction)
	if err != nil {
		p.logger.Error("agent dispatch failed",
			zap.String("lead_id", created.LeadID),
			zap.String("agent_type", string(agentType)),
			zap.Error(err))
		return outcome, fmt.Errorf("pipeline: dispatch: %w", err)
	}
	outcome.Dispatch = dispatchResult

	p.advanceAfterDispatch(ctx, created.LeadID, agentType)

	if p.mirror != nil && detail.SheetRow != nil {
		p.mirror.MirrorClassification(ctx, *detail.SheetRow, result)
	}

	return outcome, nil
}

// Trigger dispatches a specific agent type against an existing lead, serving
// the follow-on actions (content, relationship, local, conversion) that are
// selected by name rather than by track.
func (p *Processor) Trigger(ctx context.Context, agentType agent.Type, leadID, action string) (agent.Result, error) {
	detail, err := p.leads.Get(ctx, leadID)
	if err != nil {
		return agent.Result{}, err
	}

	result, err := p.dispatcher.Dispatch(ctx, agentType, detail, action)
	if err != nil {
		return agent.Result{}, err
	}

	if action == "" || action == agent.DefaultAction {
		p.advanceAfterDispatch(ctx, leadID, agentType)
	}

	return result, nil
}

// advanceAfterDispatch moves the lead out of classified after a successful
// first-touch dispatch. Other agent types do not drive the lifecycle.
func (p *Processor) advanceAfterDispatch(ctx context.Context, leadID string, agentType agent.Type) {
	var next lead.Status
	switch agentType {
	case agent.EnterpriseResearch:
		next = lead.StatusResearched
	case agent.SMBPlatform:
		next = lead.StatusAnalyzed
	default:
		return
	}

	if _, err := p.leads.AdvanceStatus(ctx, leadID, next); err != nil {
		// A re-trigger on an already-advanced lead is not an error worth
		// failing the dispatch over.
		if errors.Is(err, lead.ErrInvalidTransition) {
			return
		}
		p.logger.Warn("status advance failed",
			zap.String("lead_id", leadID),
			zap.String("next", string(next)),
			zap.Error(err))
	}
}
