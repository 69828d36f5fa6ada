package prompts

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/template"

	"browser-guide/internal/domain/entity"
)

// MaxCandidates bounds the element list embedded in one prompt.
const MaxCandidates = 10000

const noDetail = "No detail available"

type NavigationPromptData struct {
	Goal       string
	PageURL    string
	Step       int
	BaseDomain string
	History    string
	Elements   string
}

// Builder renders the navigation prompt. It holds no state besides the parsed
// template, so one Builder can be shared.
type Builder struct {
	tmpl *template.Template
}

func NewBuilder() (*Builder, error) {
	return NewBuilderFromTemplate(NavigationPrompt)
}

// NewBuilderFromTemplate parses a custom prompt body. The body sees NavigationPromptData.
func NewBuilderFromTemplate(body string) (*Builder, error) {
	tmpl, err := template.New("navigation").Option("missingkey=error").Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse navigation prompt: %w", err)
	}
	return &Builder{tmpl: tmpl}, nil
}

// Build renders the prompt for one planning cycle. Candidates are embedded in
// the order given.
func (b *Builder) Build(task entity.NavigationTask, pageURL string, candidates []entity.CandidateElement) (string, error) {
	data := NavigationPromptData{
		Goal:       task.Goal,
		PageURL:    pageURL,
		Step:       task.CurrentStep + 1,
		BaseDomain: task.BaseDomain,
		History:    HistoryContext(task.History),
		Elements:   ElementList(candidates),
	}

	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render navigation prompt: %w", err)
	}
	return buf.String(), nil
}

// HistoryContext renders past decisions as a numbered "ACTION: detail" list.
func HistoryContext(history []entity.HistoryEntry) string {
	if len(history) == 0 {
		return ""
	}
	lines := make([]string, 0, len(history))
	for i, e := range history {
		label := "STEP"
		if e.Action != "" {
			label = strings.ToUpper(e.Action)
		}
		detail := noDetail
		for _, v := range []string{e.Instruction, e.TargetText, e.Reasoning} {
			if v != "" {
				detail = v
				break
			}
		}
		lines = append(lines, strconv.Itoa(i+1)+". "+label+": "+detail)
	}
	return strings.Join(lines, "\n")
}

// ElementList joins candidate descriptors, one per line.
func ElementList(candidates []entity.CandidateElement) string {
	if len(candidates) > MaxCandidates {
		candidates = candidates[:MaxCandidates]
	}
	lines := make([]string, 0, len(candidates))
	for _, c := range candidates {
		lines = append(lines, c.Descriptor())
	}
	return strings.Join(lines, "\n")
}
