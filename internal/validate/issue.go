package validate

import (
	"fmt"
	"sort"
)

// Issue kinds.
const (
	KindNodeValidation = "NodeValidationError"
	KindNodeReference  = "NodeReferenceError"
	KindReferenceCycle = "ReferenceCycleError"
)

// Context is one named piece of evidence attached to an issue: where in
// the offending document it sits (a JSON-pointer-style path), an optional
// message, and an optional JSON-serializable snapshot of the value.
type Context struct {
	Name    string `json:"name"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Issue is one structured validation finding.
type Issue struct {
	Kind     string            `json:"kind"`
	Params   map[string]string `json:"params,omitempty"`
	Summary  string            `json:"summary"`
	Contexts []Context         `json:"contexts,omitempty"`
}

// Issuef creates an Issue with a formatted summary.
func Issuef(kind, format string, args ...any) Issue {
	return Issue{Kind: kind, Summary: fmt.Sprintf(format, args...)}
}

// WithParam returns a copy of the issue with one param added.
// Values are stringified; params are rendered in sorted key order.
func (i Issue) WithParam(key string, value any) Issue {
	params := make(map[string]string, len(i.Params)+1)
	for k, v := range i.Params {
		params[k] = v
	}
	params[key] = fmt.Sprint(value)
	i.Params = params
	return i
}

// WithContext returns a copy of the issue with the contexts appended.
func (i Issue) WithContext(contexts ...Context) Issue {
	combined := make([]Context, 0, len(i.Contexts)+len(contexts))
	combined = append(combined, i.Contexts...)
	combined = append(combined, contexts...)
	i.Contexts = combined
	return i
}

// sortedParamKeys returns the param keys in sorted order.
func (i Issue) sortedParamKeys() []string {
	keys := make([]string, 0, len(i.Params))
	for k := range i.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
