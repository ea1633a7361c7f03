package companion

import (
	"math/rand"
	"strings"
	"testing"
)

func groupByName(t *testing.T, name string) triggerGroup {
	t.Helper()
	for _, g := range triggerGroups {
		if g.name == name {
			return g
		}
	}
	t.Fatalf("unknown trigger group %q", name)
	return triggerGroup{}
}

func contains(set []string, s string) bool {
	for _, candidate := range set {
		if candidate == s {
			return true
		}
	}
	return false
}

func TestReplyDistressMembership(t *testing.T) {
	engine := NewEngine(rand.NewSource(1))
	distress := groupByName(t, "distress")

	for i := 0; i < 50; i++ {
		reply := engine.Reply("I feel so sad tonight", nil)
		if !contains(distress.replies, reply) {
			t.Fatalf("trial %d: reply %q not in distress set", i, reply)
		}
	}
}

func TestReplyAnxietyOutranksWork(t *testing.T) {
	engine := NewEngine(rand.NewSource(7))
	anxiety := groupByName(t, "anxiety")
	work := groupByName(t, "work")

	for i := 0; i < 50; i++ {
		reply := engine.Reply("I'm so anxious about my job interview tomorrow", nil)
		if contains(work.replies, reply) {
			t.Fatalf("trial %d: work reply %q chosen over anxiety", i, reply)
		}
		if !contains(anxiety.replies, reply) {
			t.Fatalf("trial %d: reply %q not in anxiety set", i, reply)
		}
	}
}

func TestReplyNoTriggerUsesGenericSet(t *testing.T) {
	engine := NewEngine(rand.NewSource(3))

	for i := 0; i < 50; i++ {
		reply := engine.Reply("the weather was fine", nil)
		if !contains(genericReplies, reply) {
			t.Fatalf("trial %d: reply %q not in generic set", i, reply)
		}
	}
}

func TestReplyCaseFolds(t *testing.T) {
	engine := NewEngine(rand.NewSource(5))
	distress := groupByName(t, "distress")

	reply := engine.Reply("TODAY WAS TERRIBLE", nil)
	if !contains(distress.replies, reply) {
		t.Fatalf("expected distress reply for upper-case input, got %q", reply)
	}
}

func TestTriggerGroupPriorityOrder(t *testing.T) {
	want := []string{"distress", "joy", "anxiety", "gratitude", "work", "relationship"}
	if len(triggerGroups) != len(want) {
		t.Fatalf("expected %d groups, got %d", len(want), len(triggerGroups))
	}
	for i, g := range triggerGroups {
		if g.name != want[i] {
			t.Fatalf("group %d: expected %s, got %s", i, want[i], g.name)
		}
	}
}

func TestReplySetsNeverEmpty(t *testing.T) {
	for _, g := range triggerGroups {
		if len(g.replies) == 0 || len(g.triggers) == 0 {
			t.Fatalf("group %s has empty trigger or reply set", g.name)
		}
		for _, r := range g.replies {
			if strings.TrimSpace(r) == "" {
				t.Fatalf("group %s has blank reply", g.name)
			}
		}
	}
	if len(genericReplies) == 0 {
		t.Fatal("generic reply set is empty")
	}
}
