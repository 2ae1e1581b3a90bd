package agent

import (
	"fmt"
	"strings"

	"leadflow/lead"
)

// promptBuilders maps agent types to their specialized prompt templates.
// Types without an entry use the generic template.
var promptBuilders = map[Type]func(lead.Detail) string{
	EnterpriseResearch: enterpriseResearchPrompt,
	EnterpriseContent:  enterpriseContentPrompt,
	SMBPlatform:        smbPlatformPrompt,
	SMBLocal:           smbLocalPrompt,
}

// BuildPrompt renders the user prompt for one dispatch.
func BuildPrompt(t Type, d lead.Detail) string {
	if build, ok := promptBuilders[t]; ok {
		return build(d)
	}
	return genericPrompt(d)
}

func enterpriseResearchPrompt(d lead.Detail) string {
	return fmt.Sprintf(`Analyze this enterprise prospect for business intelligence:

Company: %s
Industry: %s
Website: %s
Employee Count: %s

Research Focus:
1. Business model and revenue streams
2. Security posture and compliance needs
3. Technology adoption patterns
4. Key stakeholders and decision makers
5. Competitive threats and positioning opportunities

Provide specific, actionable intelligence with confidence levels.`,
		d.CompanyName, field(d.Industry), field(d.Website), intField(d.EmployeeCount))
}

func enterpriseContentPrompt(d lead.Detail) string {
	return fmt.Sprintf(`Create executive-level content for this enterprise prospect:

Company: %s
Industry: %s

Create:
1. Executive summary highlighting their industry challenges
2. Security/compliance risk assessment overview
3. ROI projections for addressing gaps
4. Call-to-action for executive discussion

Tone: Professional, authoritative, consultative`,
		d.CompanyName, field(d.Industry))
}

func smbPlatformPrompt(d lead.Detail) string {
	return fmt.Sprintf(`Analyze platform dependencies for this small business:

Company: %s
Industry: %s

Identify:
1. Likely platform dependencies (Shopify, Squarespace, etc.)
2. Estimated monthly costs
3. Potential savings opportunities
4. Quick-win alternatives

Provide specific cost calculations and recommendations.`,
		d.CompanyName, field(d.Industry))
}

func smbLocalPrompt(d lead.Detail) string {
	return fmt.Sprintf(`Analyze the local business opportunity:

Company: %s
Industry: %s
Location: %s

Focus on:
1. Local market position and competitors
2. Community engagement opportunities
3. Region-specific business challenges
4. Networking and partnership potential

Provide locally-relevant insights and action items.`,
		d.CompanyName, field(d.Industry), field(d.Location))
}

func genericPrompt(d lead.Detail) string {
	return fmt.Sprintf("Analyze this prospect and provide actionable insights:\n\nCompany: %s\nIndustry: %s",
		d.CompanyName, field(d.Industry))
}

func field(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "Unknown"
	}
	return *v
}

func intField(v *int) string {
	if v == nil {
		return "Unknown"
	}
	return fmt.Sprintf("%d", *v)
}
