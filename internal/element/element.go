// Package element defines the six prompt-engineering elements and the fixed
// dependency order used when generating them.
package element

import "strings"

// Type identifies one of the six prompt elements.
type Type string

const (
	TypeTask     Type = "task"
	TypeAIRole   Type = "ai_role"
	TypeMyRole   Type = "my_role"
	TypeKeyInfo  Type = "key_info"
	TypeBehavior Type = "behavior"
	TypeDelivery Type = "delivery"
)

// Order is the fixed generation order. Every element's prompt may reference
// only elements that appear earlier in this list.
var Order = []Type{TypeTask, TypeAIRole, TypeMyRole, TypeKeyInfo, TypeBehavior, TypeDelivery}

var labels = map[Type]string{
	TypeTask:     "Task Objective",
	TypeAIRole:   "AI Role",
	TypeMyRole:   "My Role",
	TypeKeyInfo:  "Key Information",
	TypeBehavior: "Behavior Rules",
	TypeDelivery: "Delivery Format",
}

// predecessors maps each element to the elements whose final values its
// prompt template consumes. This is a fixed policy, kept declarative so the
// single-field and batch paths consult the same table. Note delivery
// deliberately skips ai_role and my_role.
var predecessors = map[Type][]Type{
	TypeTask:     {},
	TypeAIRole:   {TypeTask},
	TypeMyRole:   {TypeTask},
	TypeKeyInfo:  {TypeTask, TypeAIRole},
	TypeBehavior: {TypeTask, TypeAIRole, TypeKeyInfo},
	TypeDelivery: {TypeTask, TypeKeyInfo, TypeBehavior},
}

// Valid reports whether t is one of the six known elements.
func Valid(t Type) bool {
	_, ok := labels[t]
	return ok
}

// Label returns the human-readable name for t, or "" for unknown types.
func Label(t Type) string {
	return labels[t]
}

// Predecessors returns the elements t depends on, in generation order.
func Predecessors(t Type) []Type {
	deps := predecessors[t]
	out := make([]Type, len(deps))
	copy(out, deps)
	return out
}

// Placeholders computes the placeholder set for t: always the topic, plus the
// current value of every predecessor element. Missing values become "".
func Placeholders(t Type, topic string, values map[Type]string) map[string]string {
	out := map[string]string{"topic": topic}
	for _, dep := range predecessors[t] {
		out[string(dep)] = values[dep]
	}
	return out
}

// Substitute replaces each {{name}} occurrence in template with the matching
// placeholder value. Replacement is literal text, never pattern-based, so
// values containing regex metacharacters pass through untouched. Placeholder
// names not present in the set are left as-is; those are filled elsewhere.
func Substitute(template string, placeholders map[string]string) string {
	result := template
	for name, value := range placeholders {
		result = strings.ReplaceAll(result, "{{"+name+"}}", value)
	}
	return result
}
