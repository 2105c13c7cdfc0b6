package colmap

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

// DefaultBinary is the engine executable looked up on PATH.
const DefaultBinary = "colmap"

// Matcher selects the feature matching strategy.
type Matcher string

// The supported matchers.
const (
	MatcherExhaustive Matcher = "exhaustive"
	MatcherSequential Matcher = "sequential"
	MatcherVocabTree  Matcher = "vocab_tree"
)

// Matchers lists every supported matcher.
var Matchers = []Matcher{MatcherExhaustive, MatcherSequential, MatcherVocabTree}

// ParseMatcher parses a matcher name. The empty string selects the vocabulary tree matcher.
func ParseMatcher(name string) (Matcher, error) {
	if name == "" {
		return MatcherVocabTree, nil
	}
	m := Matcher(strings.ToLower(name))
	if !lo.Contains(Matchers, m) {
		return "", errors.Errorf("unknown matcher %q, expected one of %v", name, Matchers)
	}
	return m, nil
}

// Command returns the engine command running this matcher.
func (m Matcher) Command() string {
	return string(m) + "_matcher"
}

// Options configure the engine.
type Options struct {
	Binary  string
	Matcher Matcher
	// VocabTreePath is passed to the vocabulary tree matcher when set.
	VocabTreePath string
	RandomSeed    int
	UseGPU        bool
	// ExtraArgs are appended to the arguments of the named engine command, e.g. "mapper".
	ExtraArgs map[string][]string
	// Env is added to the environment of every engine process.
	Env map[string]string
}

func (opts Options) withDefaults() Options {
	if opts.Binary == "" {
		opts.Binary = DefaultBinary
	}
	if opts.Matcher == "" {
		opts.Matcher = MatcherVocabTree
	}
	return opts
}

func boolArg(v bool) string {
	if v {
		return "1"
	}
	return "0"
}
