package prompt

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/carrick/snomap/internal/ports"
)

func options() []ports.Option {
	return []ports.Option{
		{CUI: 1, Label: "Asthma (disorder)", Level: 0},
		{CUI: 2, Label: "Disorder of respiratory system (disorder)", Level: 1},
	}
}

func TestSelectValidChoice(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader("2\n"), &out)

	idx, ok := term.Select("Pick one", options())
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Contains(t, out.String(), "level 1")
}

func TestSelectBlankDeclines(t *testing.T) {
	term := New(strings.NewReader("\n"), &bytes.Buffer{})

	_, ok := term.Select("Pick one", options())
	assert.False(t, ok)
}

func TestSelectRepromptsOnInvalid(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader("zero\n9\n1\n"), &out)

	idx, ok := term.Select("Pick one", options())
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 2, strings.Count(out.String(), "Invalid choice."))
}

func TestSelectEOFDeclines(t *testing.T) {
	term := New(strings.NewReader(""), &bytes.Buffer{})

	_, ok := term.Select("Pick one", options())
	assert.False(t, ok)
}

func TestSelectOmitsLevelWhenNotSet(t *testing.T) {
	var out bytes.Buffer
	term := New(strings.NewReader("1\n"), &out)

	_, ok := term.Select("Pick one", []ports.Option{{CUI: 5, Label: "Diabetes", Level: -1}})
	assert.True(t, ok)
	assert.NotContains(t, out.String(), "level")
}

func TestInput(t *testing.T) {
	term := New(strings.NewReader("  asthma  \n"), &bytes.Buffer{})

	text, ok := term.Input("Search")
	assert.True(t, ok)
	assert.Equal(t, "asthma", text)
}

func TestInputBlankDeclines(t *testing.T) {
	term := New(strings.NewReader("\n"), &bytes.Buffer{})

	_, ok := term.Input("Search")
	assert.False(t, ok)
}

func TestConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":    true,
		"Y\n":    true,
		"yes\n":  true,
		"n\n":    false,
		"\n":     false,
		"sure\n": false,
	}
	for answer, want := range cases {
		term := New(strings.NewReader(answer), &bytes.Buffer{})
		assert.Equal(t, want, term.Confirm("Proceed?"), "answer %q", answer)
	}
}
