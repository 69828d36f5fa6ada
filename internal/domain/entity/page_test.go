package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCandidateElement_Descriptor(t *testing.T) {
	tests := []struct {
		name string
		el   CandidateElement
		want string
	}{
		{
			name: "all fields",
			el:   CandidateElement{ID: "elem_3", Type: "a", Text: "Example", Role: "link", Href: "https://example.com", ClassName: "nav", DomID: "ex"},
			want: `elem_3: [a] "Example" role="link" href="https://example.com" class="nav" id="ex"`,
		},
		{
			name: "absent fields omitted",
			el:   CandidateElement{ID: "elem_0", Type: "input"},
			want: `elem_0: [input]`,
		},
		{
			name: "class only",
			el:   CandidateElement{ID: "elem_1", Type: "button", ClassName: "btn primary"},
			want: `elem_1: [button] class="btn primary"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.el.Descriptor())
		})
	}
}

func TestCandidateElement_Truncated(t *testing.T) {
	el := CandidateElement{
		Text:      "  Sign\n\tin   " + strings.Repeat("é", 200),
		Href:      strings.Repeat("h", 80),
		ClassName: strings.Repeat("c", 150),
		DomID:     strings.Repeat("d", 150),
	}.Truncated()

	assert.Equal(t, 100, len([]rune(el.Text)))
	assert.True(t, strings.HasPrefix(el.Text, "Sign in "))
	assert.Len(t, el.Href, 50)
	assert.Len(t, el.ClassName, 100)
	assert.Len(t, el.DomID, 100)
}

func TestCandidateElement_Label(t *testing.T) {
	assert.Equal(t, "Login", CandidateElement{Text: "Login", DomID: "x"}.Label())
	assert.Equal(t, "x", CandidateElement{DomID: "x", Href: "/a"}.Label())
	assert.Equal(t, "/a", CandidateElement{Href: "/a", Type: "a"}.Label())
	assert.Equal(t, "a", CandidateElement{Type: "a"}.Label())
}

func TestFingerprint(t *testing.T) {
	base := Fingerprint("https://a.test/p#top", "A", "  Sign   In ", "html>body>a:nth-of-type(1)")

	assert.Equal(t, base, Fingerprint("https://a.test/p", "a", "sign in", "html>body>a:nth-of-type(1)"))
	assert.NotEqual(t, base, Fingerprint("https://a.test/q", "a", "sign in", "html>body>a:nth-of-type(1)"))
	assert.NotEqual(t, base, Fingerprint("https://a.test/p", "a", "sign in", "html>body>a:nth-of-type(2)"))
	assert.Len(t, base, 16)
}

func TestElementIDRoundTrip(t *testing.T) {
	n, ok := ParseElementOrdinal(ElementID(42))
	assert.True(t, ok)
	assert.Equal(t, 42, n)

	_, ok = ParseElementOrdinal("ui-0042")
	assert.False(t, ok)
	_, ok = ParseElementOrdinal("elem_x")
	assert.False(t, ok)
}
