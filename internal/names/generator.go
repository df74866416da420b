// Package names produces two-word, title-cased channel names ("Moonlit Sonata"). The generator keeps no state
// between calls; collisions are expected and resolved by the pool, not here.
package names

import (
	_ "embed"
	"fmt"
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"
)

//go:embed words.yaml
var defaultWords []byte

// Words is the YAML shape of a word list file.
type Words struct {
	Adjectives []string `yaml:"adjectives"`
	Nouns      []string `yaml:"nouns"`
}

type Generator struct {
	words Words
	intN  func(n int) int
}

// New returns a generator over the embedded word lists.
func New() (*Generator, error) {
	return FromYAML(defaultWords)
}

// MustNew panics if the embedded word lists are unusable.
func MustNew() *Generator {
	g, err := New()
	if err != nil {
		panic(err)
	}
	return g
}

// FromYAML builds a generator from a word list document.
func FromYAML(doc []byte) (*Generator, error) {
	var w Words
	if err := yaml.Unmarshal(doc, &w); err != nil {
		return nil, fmt.Errorf("parse word lists: %w", err)
	}
	return NewWithWords(w, rand.IntN)
}

// NewWithWords builds a generator with an explicit random source; intN must return a value in [0, n).
func NewWithWords(w Words, intN func(n int) int) (*Generator, error) {
	if len(w.Adjectives) == 0 || len(w.Nouns) == 0 {
		return nil, fmt.Errorf("word lists must contain at least one adjective and one noun")
	}
	if intN == nil {
		intN = rand.IntN
	}
	return &Generator{words: w, intN: intN}, nil
}

// Generate returns a candidate such as "Misty Glade".
func (g *Generator) Generate() string {
	adj := g.words.Adjectives[g.intN(len(g.words.Adjectives))]
	noun := g.words.Nouns[g.intN(len(g.words.Nouns))]
	return titleCase(adj + " " + noun)
}

// Combinations is the number of distinct names the generator can produce.
func (g *Generator) Combinations() int {
	return len(g.words.Adjectives) * len(g.words.Nouns)
}

// titleCase upper-cases the first letter of every word.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	startOfWord := true
	for _, r := range s {
		if startOfWord && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
		} else {
			b.WriteRune(r)
		}
		startOfWord = !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}
	return b.String()
}
