package narrator

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func collect(t *testing.T, message string) []string {
	t.Helper()

	n := NewCanned(CannedConfig{})
	var chunks []string
	err := n.Narrate(context.Background(), message, func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("Narrate() error = %v", err)
	}
	return chunks
}

func TestCannedNarrationByKeyword(t *testing.T) {
	t.Parallel()

	cases := []struct {
		message string
		want    string
	}{
		{"search for laptops", "search"},
		{"show details of prod_001", "details"},
		{"recommend something", "like these"},
		{"show my cart", "cart"},
		{"hello there", "Working on"},
	}
	for _, tc := range cases {
		chunks := collect(t, tc.message)
		if len(chunks) == 0 {
			t.Fatalf("Narrate(%q) produced no chunks", tc.message)
		}
		joined := strings.Join(chunks, "")
		if !strings.Contains(joined, tc.want) {
			t.Fatalf("Narrate(%q) = %q, want substring %q", tc.message, joined, tc.want)
		}
	}
}

func TestCannedNarrationStopsOnCallbackError(t *testing.T) {
	t.Parallel()

	n := NewCanned(CannedConfig{})
	sentinel := errors.New("client gone")
	calls := 0
	err := n.Narrate(context.Background(), "search laptops", func(string) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("Narrate() error = %v, want sentinel", err)
	}
	if calls != 1 {
		t.Fatalf("callback calls = %d, want 1", calls)
	}
}

func TestCannedNarrationHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewCanned(CannedConfig{})
	err := n.Narrate(ctx, "search laptops", func(string) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Narrate() error = %v, want context.Canceled", err)
	}
}
