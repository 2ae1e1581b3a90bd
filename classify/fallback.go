package classify

import (
	"strings"

	"leadflow/lead"
)

// enterpriseIndustries boost confidence when the company operates in a
// compliance-heavy sector.
var enterpriseIndustries = map[string]bool{
	"technology": true,
	"finance":    true,
	"healthcare": true,
}

// decisionMakerTitles escalate priority when the contact can sign off.
var decisionMakerTitles = []string{"cto", "ciso", "vp", "director", "head"}

// Fallback is the deterministic rule-based classification used when the AI
// path is unavailable or unparsable. Rules apply in a fixed order: company
// size, then industry, then title. Industry caps confidence at 0.85, title
// at 0.90.
func Fallback(d lead.Detail) Result {
	track := lead.TrackSMB
	confidence := 0.60
	priority := lead.PriorityMedium

	if d.EmployeeCount != nil && *d.EmployeeCount >= 50 {
		track = lead.TrackEnterprise
		confidence = 0.75
	}

	if d.Industry != nil && enterpriseIndustries[strings.ToLower(*d.Industry)] {
		track = lead.TrackEnterprise
		confidence = min(confidence+0.10, 0.85)
	}

	if d.Title != nil {
		title := strings.ToLower(*d.Title)
		for _, keyword := range decisionMakerTitles {
			if strings.Contains(title, keyword) {
				track = lead.TrackEnterprise
				confidence = min(confidence+0.10, 0.90)
				priority = lead.PriorityHigh
				break
			}
		}
	}

	return Result{
		Track:      track,
		Confidence: confidence,
		Priority:   priority,
		Reasoning:  "Fallback rule-based classification",
	}
}
