package agent

import "strings"

// EstimateTokens approximates the token count of text as len/4. The error
// margin is large (roughly +/-25% against real tokenizers) but trimming
// thresholds downstream were calibrated against this exact approximation, so
// it must not be refined silently.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// Trim thresholds: trimming starts above 80% of the budget and removes oldest
// items until the estimate drops to 60%.
const (
	trimTriggerRatio = 0.8
	trimTargetRatio  = 0.6
)

// Window accumulates prompt context items against a token budget. Items are
// ordered oldest first; trimming drops from the front and never removes the
// most recent item.
type Window struct {
	budget int
	items  []string
}

// NewWindow creates a context window for the given token budget. A
// non-positive budget disables trimming.
func NewWindow(budget int) *Window {
	return &Window{budget: budget}
}

// Add appends an item and trims oldest-first if the estimate exceeds the
// trigger threshold.
func (w *Window) Add(item string) {
	w.items = append(w.items, item)
	w.trim()
}

// Items returns the retained context items, oldest first.
func (w *Window) Items() []string {
	return w.items
}

// Render joins the retained items into one prompt body.
func (w *Window) Render() string {
	return strings.Join(w.items, "\n\n")
}

func (w *Window) trim() {
	if w.budget <= 0 {
		return
	}

	trigger := int(float64(w.budget) * trimTriggerRatio)
	if w.estimate() <= trigger {
		return
	}

	target := int(float64(w.budget) * trimTargetRatio)
	for w.estimate() > target && len(w.items) > 1 {
		w.items = w.items[1:]
	}
}

func (w *Window) estimate() int {
	total := 0
	for _, item := range w.items {
		total += EstimateTokens(item)
	}
	return total
}
