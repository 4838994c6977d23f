package reply_test

import (
	"strings"
	"testing"

	"github.com/example/whatsapp-bridge/internal/reply"
)

func TestResolveGreetings(t *testing.T) {
	inputs := []string{
		"hi",
		"Hi",
		"HELLO",
		"hey there",
		"well hello friend",
		"  hEy  ",
		"this ends with hi",
	}

	for _, input := range inputs {
		input := input
		t.Run(input, func(t *testing.T) {
			got := reply.Resolve(input)
			if !strings.Contains(got, "Welcome") {
				t.Fatalf("expected greeting menu for %q, got %q", input, got)
			}
		})
	}
}

func TestResolveMenuSelections(t *testing.T) {
	cases := map[string]string{
		"1":       "About Us",
		" 1 ":     "About Us",
		"2":       "Contact Support",
		"3":       "Help Menu",
		"about":   "About Us",
		"support": "Contact Support",
		"help":    "Help Menu",
	}

	for input, want := range cases {
		input, want := input, want
		t.Run(input, func(t *testing.T) {
			got := reply.Resolve(input)
			if !strings.Contains(got, want) {
				t.Fatalf("Resolve(%q) = %q, want it to contain %q", input, got, want)
			}
		})
	}
}

// "10" must not match the exact-equality rule for "1"; it falls through to
// the echo reply.
func TestResolveNumericPrefixFallsThroughToEcho(t *testing.T) {
	got := reply.Resolve("10")
	if !strings.Contains(got, `"10"`) {
		t.Fatalf("expected echo reply for %q, got %q", "10", got)
	}
	if strings.Contains(got, "About Us") {
		t.Fatalf("input %q must not match the about rule", "10")
	}
}

func TestResolveEchoUnknownInput(t *testing.T) {
	got := reply.Resolve("what are your opening hours?")
	if !strings.Contains(got, "what are your opening hours?") {
		t.Fatalf("echo reply should surface the original text, got %q", got)
	}
	if !strings.Contains(got, "*hi*") {
		t.Fatalf("echo reply should hint at the menu, got %q", got)
	}
}

func TestResolveIsTotalAndDeterministic(t *testing.T) {
	inputs := []string{"", "   ", "1", "xyz", "hello", "10", "ABOUT", "\n\t"}

	for _, input := range inputs {
		first := reply.Resolve(input)
		if first == "" {
			t.Fatalf("Resolve(%q) returned an empty reply", input)
		}
		if second := reply.Resolve(input); second != first {
			t.Fatalf("Resolve(%q) is not deterministic: %q vs %q", input, first, second)
		}
	}
}
