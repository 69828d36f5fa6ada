package entity

import (
	"encoding/json"
	"time"
)

// StateKey is the single record key the navigation state lives under.
const StateKey = "navState"

// PersistedState is the durable snapshot of a NavigationTask.
type PersistedState struct {
	TaskID            string         `json:"taskId,omitempty"`
	IsActive          bool           `json:"isActive"`
	Goal              string         `json:"goal"`
	CurrentStep       int            `json:"currentStep"`
	CompletedElements []string       `json:"completedElements"`
	CurrentPage       string         `json:"currentPage"`
	ActionHistory     []HistoryEntry `json:"actionHistory"`
	BaseDomain        string         `json:"baseDomain"`
	SavedAt           int64          `json:"savedAt"`
}

// Task rebuilds the in-memory task from the record.
func (s PersistedState) Task() NavigationTask {
	t := NavigationTask{
		ID:                   s.TaskID,
		Goal:                 s.Goal,
		Active:               s.IsActive,
		CurrentStep:          s.CurrentStep,
		CompletedElementKeys: make(map[string]struct{}, len(s.CompletedElements)),
		CurrentPageURL:       s.CurrentPage,
		BaseDomain:           s.BaseDomain,
	}
	if t.CurrentStep < 0 {
		t.CurrentStep = 0
	}
	for _, k := range s.CompletedElements {
		t.CompletedElementKeys[k] = struct{}{}
	}
	if len(s.ActionHistory) > 0 {
		t.History = NormalizeHistory(s.ActionHistory, time.Now())
	}
	return t
}

// Resumable reports whether the record describes a task worth resuming.
func (s PersistedState) Resumable() bool {
	return s.IsActive && s.Goal != ""
}

// HistoryEntry is one past decision.
type HistoryEntry struct {
	Step        int       `json:"step"`
	Instruction string    `json:"instruction"`
	Action      string    `json:"action"`
	TargetText  string    `json:"targetText"`
	Reasoning   string    `json:"reasoning"`
	Timestamp   time.Time `json:"-"`
}

type historyEntryJSON struct {
	Step        int    `json:"step"`
	Instruction string `json:"instruction"`
	Action      string `json:"action"`
	TargetText  string `json:"targetText"`
	Reasoning   string `json:"reasoning"`
	Timestamp   int64  `json:"timestamp"`
}

// MarshalJSON writes the timestamp as unix milliseconds.
func (e HistoryEntry) MarshalJSON() ([]byte, error) {
	var ts int64
	if !e.Timestamp.IsZero() {
		ts = e.Timestamp.UnixMilli()
	}
	return json.Marshal(historyEntryJSON{
		Step:        e.Step,
		Instruction: e.Instruction,
		Action:      e.Action,
		TargetText:  e.TargetText,
		Reasoning:   e.Reasoning,
		Timestamp:   ts,
	})
}

// UnmarshalJSON accepts the current object form and two older ones: a bare
// string, and objects using text/summary/target instead of instruction/targetText.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*e = HistoryEntry{Instruction: s, Reasoning: s}
		return nil
	}

	var raw struct {
		historyEntryJSON
		Text    string `json:"text"`
		Summary string `json:"summary"`
		Target  string `json:"target"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*e = HistoryEntry{
		Step:        raw.Step,
		Instruction: firstNonEmpty(raw.Instruction, raw.Text, raw.Summary),
		Action:      raw.Action,
		TargetText:  firstNonEmpty(raw.TargetText, raw.Target),
		Reasoning:   raw.Reasoning,
	}
	if raw.Timestamp > 0 {
		e.Timestamp = time.UnixMilli(raw.Timestamp)
	}
	return nil
}

// NormalizeHistory fills in missing step numbers and timestamps on restored
// entries and trims the list to HistoryLimit.
func NormalizeHistory(entries []HistoryEntry, now time.Time) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for i, e := range entries {
		if e.Step <= 0 {
			e.Step = i + 1
		}
		if e.Timestamp.IsZero() {
			e.Timestamp = now
		}
		out = append(out, e)
	}
	if over := len(out) - HistoryLimit; over > 0 {
		out = out[over:]
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
