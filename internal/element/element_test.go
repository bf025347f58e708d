package element

import "testing"

func TestPlaceholdersAlwaysIncludeTopic(t *testing.T) {
	for _, typ := range Order {
		ph := Placeholders(typ, "my topic", nil)
		if ph["topic"] != "my topic" {
			t.Fatalf("%s: topic missing from placeholder set: %v", typ, ph)
		}
	}
}

func TestPlaceholdersExactPredecessorSets(t *testing.T) {
	values := map[Type]string{
		TypeTask:     "T",
		TypeAIRole:   "A",
		TypeMyRole:   "M",
		TypeKeyInfo:  "K",
		TypeBehavior: "B",
		TypeDelivery: "D",
	}

	want := map[Type][]string{
		TypeTask:     {"topic"},
		TypeAIRole:   {"topic", "task"},
		TypeMyRole:   {"topic", "task"},
		TypeKeyInfo:  {"topic", "task", "ai_role"},
		TypeBehavior: {"topic", "task", "ai_role", "key_info"},
		TypeDelivery: {"topic", "task", "key_info", "behavior"},
	}

	for typ, keys := range want {
		ph := Placeholders(typ, "x", values)
		if len(ph) != len(keys) {
			t.Fatalf("%s: got %d placeholders %v, want keys %v", typ, len(ph), ph, keys)
		}
		for _, k := range keys {
			if _, ok := ph[k]; !ok {
				t.Fatalf("%s: missing placeholder %q in %v", typ, k, ph)
			}
		}
	}

	// delivery must not see the role elements
	ph := Placeholders(TypeDelivery, "x", values)
	if _, ok := ph["ai_role"]; ok {
		t.Fatalf("delivery placeholder set must not include ai_role: %v", ph)
	}
	if _, ok := ph["my_role"]; ok {
		t.Fatalf("delivery placeholder set must not include my_role: %v", ph)
	}
}

func TestPlaceholdersMissingValuesBecomeEmpty(t *testing.T) {
	ph := Placeholders(TypeAIRole, "topic", nil)
	if got, ok := ph["task"]; !ok || got != "" {
		t.Fatalf("task = %q ok=%v, want empty string present", got, ok)
	}
}

func TestSubstituteLeavesUnknownPlaceholders(t *testing.T) {
	got := Substitute("Hello {{topic}}, {{unused}}", map[string]string{"topic": "X"})
	if got != "Hello X, {{unused}}" {
		t.Fatalf("got %q", got)
	}
}

func TestSubstituteIsLiteral(t *testing.T) {
	got := Substitute("{{topic}}", map[string]string{"topic": "a.*b"})
	if got != "a.*b" {
		t.Fatalf("got %q, want literal a.*b", got)
	}

	// a value that looks like a replacement pattern must also survive
	got = Substitute("pre {{topic}} post", map[string]string{"topic": "$1{{task}}"})
	if got != "pre $1{{task}} post" {
		t.Fatalf("got %q", got)
	}
}

func TestSubstituteReplacesAllOccurrences(t *testing.T) {
	got := Substitute("{{topic}} and {{topic}}", map[string]string{"topic": "go"})
	if got != "go and go" {
		t.Fatalf("got %q", got)
	}
}

func TestPredecessorsAreEarlierInOrder(t *testing.T) {
	pos := map[Type]int{}
	for i, typ := range Order {
		pos[typ] = i
	}
	for _, typ := range Order {
		for _, dep := range Predecessors(typ) {
			if pos[dep] >= pos[typ] {
				t.Fatalf("%s depends on %s which does not precede it", typ, dep)
			}
		}
	}
}
