package agent

import (
	"strings"
	"testing"

	"leadflow/lead"
)

func TestBuildPromptSpecializedTemplates(t *testing.T) {
	industry := "finance"
	d := lead.Detail{CompanyName: "Acme Pty Ltd", Industry: &industry}

	cases := []struct {
		agentType Type
		marker    string
	}{
		{EnterpriseResearch, "Analyze this enterprise prospect for business intelligence"},
		{EnterpriseContent, "Create executive-level content"},
		{SMBPlatform, "Analyze platform dependencies"},
		{SMBLocal, "local business opportunity"},
	}

	for _, tc := range cases {
		prompt := BuildPrompt(tc.agentType, d)
		if !strings.Contains(prompt, tc.marker) {
			t.Errorf("%s: expected template marker %q in prompt", tc.agentType, tc.marker)
		}
		if !strings.Contains(prompt, "Acme Pty Ltd") {
			t.Errorf("%s: expected company name interpolated", tc.agentType)
		}
	}
}

func TestBuildPromptGenericFallback(t *testing.T) {
	d := lead.Detail{CompanyName: "Acme Pty Ltd"}

	for _, at := range []Type{EnterpriseRelationship, SMBConversion} {
		prompt := BuildPrompt(at, d)
		if !strings.Contains(prompt, "Analyze this prospect and provide actionable insights") {
			t.Errorf("%s: expected generic template, got %q", at, prompt)
		}
		if !strings.Contains(prompt, "Industry: Unknown") {
			t.Errorf("%s: expected Unknown placeholder for missing industry", at)
		}
	}
}
