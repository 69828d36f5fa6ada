package entity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// ElementIDPrefix prefixes the scan-local ordinal of every candidate.
	ElementIDPrefix = "elem_"

	// UIRootID is the id of the container every injected overlay lives in.
	UIRootID = "guide-root"

	maxTextLen  = 100
	maxHrefLen  = 50
	maxClassLen = 100
	maxDomIDLen = 100
)

// InteractiveSelectors are queried in this order; ordinals follow it.
var InteractiveSelectors = []string{
	"button",
	"a",
	"input",
	"select",
	"textarea",
	`[role="button"]`,
	`[role="link"]`,
	`[role="textbox"]`,
	`[role="searchbox"]`,
}

type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// CandidateElement is one interactive element found during a scan. ID is only
// meaningful within the scan that produced it.
type CandidateElement struct {
	ID          string      `json:"id"`
	Ordinal     int         `json:"-"`
	Text        string      `json:"text,omitempty"`
	Type        string      `json:"type"`
	Role        string      `json:"role,omitempty"`
	Href        string      `json:"href,omitempty"`
	ClassName   string      `json:"className,omitempty"`
	DomID       string      `json:"domId,omitempty"`
	DomPath     string      `json:"-"`
	Box         BoundingBox `json:"boundingBox"`
	Fingerprint string      `json:"-"`
}

// ElementID formats the scan-local id for an ordinal.
func ElementID(ordinal int) string {
	return ElementIDPrefix + strconv.Itoa(ordinal)
}

// ParseElementOrdinal is the inverse of ElementID.
func ParseElementOrdinal(id string) (int, bool) {
	if !strings.HasPrefix(id, ElementIDPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, ElementIDPrefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Descriptor renders the element as one prompt line.
func (c CandidateElement) Descriptor() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: [%s]", c.ID, c.Type)
	if c.Text != "" {
		sb.WriteString(` "`)
		sb.WriteString(c.Text)
		sb.WriteString(`"`)
	}
	writeAttr(&sb, "role", c.Role)
	writeAttr(&sb, "href", c.Href)
	writeAttr(&sb, "class", c.ClassName)
	writeAttr(&sb, "id", c.DomID)
	return sb.String()
}

func writeAttr(sb *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	sb.WriteString(" ")
	sb.WriteString(key)
	sb.WriteString(`="`)
	sb.WriteString(value)
	sb.WriteString(`"`)
}

// Label is the human readable name used in history entries.
func (c CandidateElement) Label() string {
	return firstNonEmpty(c.Text, c.DomID, c.Href, c.Type)
}

// Truncated returns a copy with every descriptive field cut to its limit.
func (c CandidateElement) Truncated() CandidateElement {
	c.Text = Truncate(strings.Join(strings.Fields(c.Text), " "), maxTextLen)
	c.Href = Truncate(c.Href, maxHrefLen)
	c.ClassName = Truncate(c.ClassName, maxClassLen)
	c.DomID = Truncate(c.DomID, maxDomIDLen)
	return c
}

// WithFingerprint computes the content key used to remember chosen elements
// across scans of the same page.
func (c CandidateElement) WithFingerprint(pageURL string) CandidateElement {
	c.Fingerprint = Fingerprint(pageURL, c.Type, c.Text, c.DomPath)
	return c
}

// Fingerprint hashes page (without fragment), tag, whitespace-normalised text
// and DOM path into a short stable key.
func Fingerprint(pageURL, tag, text, domPath string) string {
	h := sha256.New()
	for _, part := range []string{pageKey(pageURL), strings.ToLower(tag), normalizeText(text), domPath} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

func pageKey(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}

func normalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
