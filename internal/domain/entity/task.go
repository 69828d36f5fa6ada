package entity

import (
	"net/url"
	"sort"
	"time"
)

// HistoryLimit bounds NavigationTask.History; the oldest entries are evicted first.
const HistoryLimit = 10

// NavigationTask is the single unit of ongoing work: one goal pursued across
// any number of page loads.
type NavigationTask struct {
	ID                   string
	Goal                 string
	Active               bool
	CurrentStep          int
	CompletedElementKeys map[string]struct{}
	CurrentPageURL       string
	BaseDomain           string
	History              []HistoryEntry
}

// Begin resets the task for a new goal started on pageURL.
func (t *NavigationTask) Begin(id, goal, pageURL string) {
	t.ID = id
	t.Goal = goal
	t.Active = true
	t.CurrentStep = 0
	t.CompletedElementKeys = make(map[string]struct{})
	t.History = nil
	t.CurrentPageURL = pageURL
	t.BaseDomain = Hostname(pageURL)
}

// Clear returns the task to its idle, empty form.
func (t *NavigationTask) Clear() {
	*t = NavigationTask{CompletedElementKeys: make(map[string]struct{})}
}

func (t *NavigationTask) MarkCompleted(key string) {
	if t.CompletedElementKeys == nil {
		t.CompletedElementKeys = make(map[string]struct{})
	}
	t.CompletedElementKeys[key] = struct{}{}
}

func (t *NavigationTask) IsCompleted(key string) bool {
	_, ok := t.CompletedElementKeys[key]
	return ok
}

// AppendHistory records a decision and evicts the oldest entries beyond HistoryLimit.
// Step numbers never go backwards.
func (t *NavigationTask) AppendHistory(e HistoryEntry) {
	if n := len(t.History); n > 0 && e.Step < t.History[n-1].Step {
		e.Step = t.History[n-1].Step
	}
	t.History = append(t.History, e)
	if over := len(t.History) - HistoryLimit; over > 0 {
		t.History = append([]HistoryEntry(nil), t.History[over:]...)
	}
}

// Retract undoes a guided step the user never acted on: the history entry
// recorded for step and the completed mark for key.
func (t *NavigationTask) Retract(step int, key string) {
	delete(t.CompletedElementKeys, key)
	if n := len(t.History); n > 0 && t.History[n-1].Step == step {
		t.History = t.History[:n-1]
	}
}

// Restamp points the task at the document it is now running in.
func (t *NavigationTask) Restamp(pageURL string) {
	t.CurrentPageURL = pageURL
	t.BaseDomain = Hostname(pageURL)
}

// Snapshot serialises the task into the persisted record form.
func (t *NavigationTask) Snapshot(now time.Time) PersistedState {
	keys := make([]string, 0, len(t.CompletedElementKeys))
	for k := range t.CompletedElementKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return PersistedState{
		TaskID:            t.ID,
		IsActive:          t.Active,
		Goal:              t.Goal,
		CurrentStep:       t.CurrentStep,
		CompletedElements: keys,
		CurrentPage:       t.CurrentPageURL,
		ActionHistory:     append([]HistoryEntry(nil), t.History...),
		BaseDomain:        t.BaseDomain,
		SavedAt:           now.UnixMilli(),
	}
}

// Hostname returns the host of rawURL without port, or "" if it cannot be parsed.
func Hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
