package decision

import (
	"regexp"
	"strings"

	"browser-guide/internal/domain/entity"
)

var (
	elementIDPattern   = regexp.MustCompile("(?i)\\bELEMENT_ID\\s*:[\\s*`\"']*(elem_\\d+|none)\\b")
	actionPattern      = regexp.MustCompile(`(?i)\bACTION\s*:[ \t]*(.+)`)
	instructionPattern = regexp.MustCompile(`(?i)\bINSTRUCTION\s*:[ \t]*(.+)`)
	reasoningPattern   = regexp.MustCompile(`(?i)\bREASONING\s*:[ \t]*(.+)`)
)

// Parser turns a model reply into a ParseResult. It never fails: missing
// optional fields take defaults, and it does not check the id against a scan.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

func (p *Parser) Parse(raw string) entity.ParseResult {
	if strings.TrimSpace(raw) == "" {
		return entity.ParseResult{Status: entity.ParseInvalid}
	}

	m := elementIDPattern.FindStringSubmatch(raw)
	if m == nil || strings.EqualFold(m[1], entity.CompletionSentinel) {
		return entity.ParseResult{Status: entity.ParseComplete}
	}

	return entity.ParseResult{
		Status: entity.ParseDecision,
		Decision: entity.Decision{
			ElementID:   strings.ToLower(m[1]),
			Action:      field(actionPattern, raw, entity.DefaultAction),
			Instruction: field(instructionPattern, raw, entity.DefaultInstruction),
			Reasoning:   field(reasoningPattern, raw, ""),
		},
	}
}

// field returns the first line captured by re, or def.
func field(re *regexp.Regexp, raw, def string) string {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return def
	}
	v := strings.TrimSpace(m[1])
	if i := strings.IndexAny(v, "\r\n"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	v = strings.Trim(v, "*`")
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
