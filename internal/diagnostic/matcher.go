package diagnostic

import "strings"

// Greeting is the assistant's opening message.
const Greeting = "Hello! I'm your Factory Operations AI. I can help you understand alerts, " +
	"suggest maintenance procedures, and provide operational guidance. How can I assist you today?"

// Rule maps any of its keywords to a canned response.
type Rule struct {
	Name     string
	Keywords []string
	Response string
}

// Matches reports whether any keyword occurs in the lower-cased text.
func (r Rule) Matches(text string) bool {
	for _, kw := range r.Keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

// Matcher walks its rules in order; the first match wins and the fallback
// answers everything else.
type Matcher struct {
	rules    []Rule
	fallback Rule
}

// NewMatcher copies rules and lower-cases their keywords. An empty fallback
// response is replaced by the default one.
func NewMatcher(rules []Rule, fallback string) *Matcher {
	if fallback == "" {
		fallback = fallbackResponse
	}
	m := &Matcher{
		rules:    make([]Rule, 0, len(rules)),
		fallback: Rule{Name: "fallback", Response: fallback},
	}
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			if kw = strings.ToLower(strings.TrimSpace(kw)); kw != "" {
				kws = append(kws, kw)
			}
		}
		m.rules = append(m.rules, Rule{Name: r.Name, Keywords: kws, Response: r.Response})
	}
	return m
}

// NewDefaultMatcher returns the factory assistant rule set.
func NewDefaultMatcher() *Matcher {
	return NewMatcher(DefaultRules(), fallbackResponse)
}

// Respond returns the response of the first matching rule.
func (m *Matcher) Respond(text string) string {
	return m.Match(text).Response
}

// Match returns the rule that answers text, the fallback included.
func (m *Matcher) Match(text string) Rule {
	normalized := strings.ToLower(text)
	for _, r := range m.rules {
		if r.Matches(normalized) {
			return r
		}
	}
	return m.fallback
}
