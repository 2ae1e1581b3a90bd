package agent

import (
	"strings"
	"testing"
)

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"abcd", 1},
		{strings.Repeat("x", 4000), 1000},
	}

	for _, tc := range cases {
		if got := EstimateTokens(tc.text); got != tc.want {
			t.Errorf("EstimateTokens(%d chars): expected %d, got %d", len(tc.text), tc.want, got)
		}
	}
}

func TestWindowKeepsItemsUnderBudget(t *testing.T) {
	w := NewWindow(1000)
	w.Add(strings.Repeat("a", 400)) // 100 tokens
	w.Add(strings.Repeat("b", 400))

	if len(w.Items()) != 2 {
		t.Fatalf("expected both items retained, got %d", len(w.Items()))
	}
}

func TestWindowTrimsOldestFirst(t *testing.T) {
	// Budget 100 tokens: trigger at 80, target 60.
	w := NewWindow(100)
	w.Add(strings.Repeat("a", 200)) // 50 tokens
	w.Add(strings.Repeat("b", 120)) // 30 tokens, total 80: at trigger, no trim
	if len(w.Items()) != 2 {
		t.Fatalf("expected no trim at exactly the trigger, got %d items", len(w.Items()))
	}

	w.Add(strings.Repeat("c", 40)) // 10 tokens, total 90: trim to <= 60

	items := w.Items()
	if len(items) != 2 {
		t.Fatalf("expected oldest item dropped, got %d items", len(items))
	}
	if items[0][0] != 'b' || items[1][0] != 'c' {
		t.Errorf("expected oldest-first trimming, got items starting %q %q", items[0][0], items[1][0])
	}
}

func TestWindowNeverDropsNewestItem(t *testing.T) {
	w := NewWindow(10)                 // tiny budget
	w.Add(strings.Repeat("a", 400))    // way over on its own
	w.Add(strings.Repeat("b", 100000)) // newest, also way over

	items := w.Items()
	if len(items) != 1 {
		t.Fatalf("expected all but newest dropped, got %d", len(items))
	}
	if items[0][0] != 'b' {
		t.Errorf("expected the newest item to survive, got %q", items[0][0])
	}
}

func TestWindowZeroBudgetDisablesTrimming(t *testing.T) {
	w := NewWindow(0)
	for i := 0; i < 10; i++ {
		w.Add(strings.Repeat("x", 10000))
	}
	if len(w.Items()) != 10 {
		t.Errorf("expected no trimming without a budget, got %d items", len(w.Items()))
	}
}

func TestWindowRenderJoinsItems(t *testing.T) {
	w := NewWindow(1000)
	w.Add("first")
	w.Add("second")

	if got := w.Render(); got != "first\n\nsecond" {
		t.Errorf("unexpected render output %q", got)
	}
}
