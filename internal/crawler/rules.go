package crawler

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

// ExclusionRule marks descriptors that must not be fetched. Matching is
// case-insensitive substring containment.
type ExclusionRule struct {
	Match  string `yaml:"match"`
	Value  string `yaml:"value"`
	Reason string `yaml:"reason"`
}

const (
	matchSectionContains  = "section_contains"
	matchLinkTextContains = "link_text_contains"
)

type RuleSet struct {
	Exclusions []ExclusionRule `yaml:"exclusions"`
}

// DefaultRules parses the embedded rule set.
func DefaultRules() (*RuleSet, error) {
	return parseRules(defaultRulesYAML)
}

// LoadRules reads a rule file, falling back to the embedded defaults
// when path is empty.
func LoadRules(path string) (*RuleSet, error) {
	if path == "" {
		return DefaultRules()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return parseRules(raw)
}

func parseRules(raw []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	for i, r := range rs.Exclusions {
		switch r.Match {
		case matchSectionContains, matchLinkTextContains:
		default:
			return nil, fmt.Errorf("rule %d: unknown matcher %q", i, r.Match)
		}
		if r.Value == "" {
			return nil, fmt.Errorf("rule %d: empty value", i)
		}
	}
	return &rs, nil
}

// ExcludeReason returns the first matching rule's reason, or "" when
// the descriptor is fetchable.
func (rs *RuleSet) ExcludeReason(sectionLabel, linkText string) string {
	if rs == nil {
		return ""
	}
	section := strings.ToLower(sectionLabel)
	link := strings.ToLower(linkText)
	for _, r := range rs.Exclusions {
		needle := strings.ToLower(r.Value)
		switch r.Match {
		case matchSectionContains:
			if strings.Contains(section, needle) {
				return r.Reason
			}
		case matchLinkTextContains:
			if strings.Contains(link, needle) {
				return r.Reason
			}
		}
	}
	return ""
}
