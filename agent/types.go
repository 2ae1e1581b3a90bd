// Package agent defines the closed set of prompt-templated agents and the
// dispatcher that runs one of them against a lead. Agents carry no runtime
// behavior of their own: each is a system prompt plus a context budget,
// resolved through a lookup table.
package agent

import (
	"errors"
	"fmt"

	"leadflow/lead"
)

// Type names one agent. The set is closed; adding one is a code change.
type Type string

const (
	EnterpriseResearch     Type = "enterprise_research"
	EnterpriseContent      Type = "enterprise_content"
	EnterpriseRelationship Type = "enterprise_relationship"
	SMBPlatform            Type = "smb_platform"
	SMBLocal               Type = "smb_local"
	SMBConversion          Type = "smb_conversion"
)

// ErrUnknownType signals a configuration error: the agent type is not
// registered. Callers must fail fast, before any external call.
var ErrUnknownType = errors.New("agent: unknown agent type")

// Config is the static per-agent configuration, read-only after startup.
type Config struct {
	ContextSize  int
	SystemPrompt string
}

const (
	enterpriseContextSize = 16000
	smbContextSize        = 8000
)

var configs = map[Type]Config{
	EnterpriseResearch: {
		ContextSize: enterpriseContextSize,
		SystemPrompt: `You are the Enterprise Research Specialist for the marketing automation system.

Your expertise includes:
- Deep B2B company intelligence and analysis
- Security posture assessment and vulnerability identification
- Technical infrastructure evaluation
- Compliance gap analysis (SOC2, ISO27001, GDPR, etc.)
- Competitive landscape assessment
- Stakeholder mapping and decision-maker identification

Always provide actionable insights with specific, measurable findings.`,
	},
	EnterpriseContent: {
		ContextSize: enterpriseContextSize,
		SystemPrompt: `You are the Enterprise Content Strategist.

Your expertise includes:
- Technical thought leadership and authority building
- Security and compliance content creation
- Industry-specific case studies and whitepapers
- Executive-level business communications

Create compelling, authoritative content that positions us as the trusted security partner.`,
	},
	EnterpriseRelationship: {
		ContextSize: enterpriseContextSize,
		SystemPrompt: `You are the Enterprise Relationship Manager.

Manage complex B2B relationships, coordinate multi-stakeholder communications,
and orchestrate long-term nurture sequences for high-value enterprise prospects.`,
	},
	SMBPlatform: {
		ContextSize: smbContextSize,
		SystemPrompt: `You are the SMB Platform Analyst.

Analyze platform dependencies, calculate cost savings, and identify quick-win opportunities
for small-medium businesses to reduce platform fees and improve operational efficiency.`,
	},
	SMBLocal: {
		ContextSize: smbContextSize,
		SystemPrompt: `You are the SMB Local Outreach Specialist.

Focus on local market intelligence, community engagement, and region-specific
business opportunities and challenges.`,
	},
	SMBConversion: {
		ContextSize: smbContextSize,
		SystemPrompt: `You are the SMB Conversion Optimizer for rapid small business sales.

Focus on price sensitivity analysis, objection handling, and quick-close
sales processes for volume SMB conversions.`,
	},
}

// Lookup returns the configuration for an agent type, or ErrUnknownType for
// anything outside the registered set.
func Lookup(t Type) (Config, error) {
	cfg, ok := configs[t]
	if !ok {
		return Config{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return cfg, nil
}

// ForTrack resolves the first-touch agent for a classified track. Secondary
// agent types are selected explicitly by action, never by track.
func ForTrack(track lead.Track) (Type, error) {
	switch track {
	case lead.TrackEnterprise:
		return EnterpriseResearch, nil
	case lead.TrackSMB:
		return SMBPlatform, nil
	default:
		return "", fmt.Errorf("agent: no agent for track %q", track)
	}
}
