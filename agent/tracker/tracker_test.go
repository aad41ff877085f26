package tracker

import (
	"context"
	"testing"
	"time"

	statex "github.com/shopstream/discovery-agent/agent/state"
)

func newTestTracker(t *testing.T, now *time.Time) *Tracker {
	t.Helper()

	tr, err := New(statex.NewMemoryStore(), WithClock(func() time.Time { return *now }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return tr
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := newTestTracker(t, &now)
	ctx := context.Background()

	exists, err := tr.SessionExists(ctx, "sess-1")
	if err != nil || exists {
		t.Fatalf("SessionExists() = %v, %v, want false, nil", exists, err)
	}

	if err := tr.CreateSession(ctx, "sess-1"); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	// Creating again is a no-op.
	if err := tr.CreateSession(ctx, "sess-1"); err != nil {
		t.Fatalf("CreateSession() second call error = %v", err)
	}

	exists, err = tr.SessionExists(ctx, "sess-1")
	if err != nil || !exists {
		t.Fatalf("SessionExists() = %v, %v, want true, nil", exists, err)
	}
}

func TestUpdateContextIdempotent(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := newTestTracker(t, &now)
	ctx := context.Background()

	patch := map[string]any{"welcome_sent": true, "locale": "en"}
	if err := tr.UpdateContext(ctx, "sess-2", patch); err != nil {
		t.Fatalf("UpdateContext() error = %v", err)
	}
	if err := tr.UpdateContext(ctx, "sess-2", patch); err != nil {
		t.Fatalf("UpdateContext() repeat error = %v", err)
	}

	data, err := tr.GetContext(ctx, "sess-2")
	if err != nil {
		t.Fatalf("GetContext() error = %v", err)
	}
	if data["welcome_sent"] != true || data["locale"] != "en" {
		t.Fatalf("context = %v, want merged patch", data)
	}

	// Shallow merge keeps unrelated keys.
	if err := tr.UpdateContext(ctx, "sess-2", map[string]any{"locale": "th"}); err != nil {
		t.Fatalf("UpdateContext() error = %v", err)
	}
	data, _ = tr.GetContext(ctx, "sess-2")
	if data["welcome_sent"] != true || data["locale"] != "th" {
		t.Fatalf("context = %v, want welcome_sent preserved and locale replaced", data)
	}
}

func TestValidateReferenceWithinWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := newTestTracker(t, &now)
	ctx := context.Background()

	searchedAt := now
	if err := tr.TrackSearchResults(ctx, "sess-3", "laptops", "", []string{"prod_001", "prod_002"}); err != nil {
		t.Fatalf("TrackSearchResults() error = %v", err)
	}

	now = now.Add(29 * time.Minute)
	result, err := tr.ValidateReference(ctx, "sess-3", "prod_002")
	if err != nil {
		t.Fatalf("ValidateReference() error = %v", err)
	}
	if !result.Valid {
		t.Fatalf("result = %+v, want valid", result)
	}
	if result.FoundInSearch != "laptops" {
		t.Fatalf("FoundInSearch = %q, want laptops", result.FoundInSearch)
	}
	if !result.SearchTimestamp.Equal(searchedAt) {
		t.Fatalf("SearchTimestamp = %v, want %v", result.SearchTimestamp, searchedAt)
	}
}

func TestValidateReferenceExpiredWindow(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := newTestTracker(t, &now)
	ctx := context.Background()

	if err := tr.TrackSearchResults(ctx, "sess-4", "laptops", "", []string{"prod_001"}); err != nil {
		t.Fatalf("TrackSearchResults() error = %v", err)
	}

	// Past the soft validity the window no longer validates.
	now = now.Add(31 * time.Minute)
	result, err := tr.ValidateReference(ctx, "sess-4", "prod_001")
	if err != nil {
		t.Fatalf("ValidateReference() error = %v", err)
	}
	if result.Valid {
		t.Fatalf("result = %+v, want invalid after soft expiry", result)
	}
	if result.Error == "" {
		t.Fatal("invalid result must carry an error message")
	}
}

func TestValidateReferenceSuggestions(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := newTestTracker(t, &now)
	ctx := context.Background()

	if err := tr.TrackSearchResults(ctx, "sess-5", "laptops", "", []string{"prod_001", "prod_010"}); err != nil {
		t.Fatalf("TrackSearchResults() error = %v", err)
	}

	result, err := tr.ValidateReference(ctx, "sess-5", "prod_999")
	if err != nil {
		t.Fatalf("ValidateReference() error = %v", err)
	}
	if result.Valid {
		t.Fatal("unknown id must not validate")
	}
	if len(result.Suggestions) == 0 {
		t.Fatal("near-miss ids should produce suggestions")
	}
	for i := 1; i < len(result.Suggestions); i++ {
		if result.Suggestions[i].Similarity > result.Suggestions[i-1].Similarity {
			t.Fatalf("suggestions not sorted by similarity desc: %+v", result.Suggestions)
		}
	}
	for _, s := range result.Suggestions {
		if s.Similarity <= 0.5 {
			t.Fatalf("suggestion %q at %.3f, want strictly above cutoff", s.ProductID, s.Similarity)
		}
	}
	if len(result.RecentSearches) != 1 || result.RecentSearches[0] != "laptops" {
		t.Fatalf("RecentSearches = %v, want [laptops]", result.RecentSearches)
	}
}

func TestTrackSearchResultsPurgesOldWindows(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	store := statex.NewMemoryStore()
	tr, err := New(store, WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if err := tr.TrackSearchResults(ctx, "sess-6", "old", "", []string{"prod_001"}); err != nil {
		t.Fatalf("TrackSearchResults() error = %v", err)
	}

	// Two hours later the next insert sweeps the stale window out.
	now = now.Add(2*time.Hour + time.Minute)
	if err := tr.TrackSearchResults(ctx, "sess-6", "fresh", "", []string{"prod_002"}); err != nil {
		t.Fatalf("TrackSearchResults() error = %v", err)
	}

	windows, err := store.WindowsSince(ctx, "sess-6", now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("WindowsSince() error = %v", err)
	}
	if len(windows) != 1 || windows[0].Query != "fresh" {
		t.Fatalf("windows = %+v, want only fresh", windows)
	}
}

func TestGetRecentEntitiesNewestFirstDeduped(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	tr := newTestTracker(t, &now)
	ctx := context.Background()

	if err := tr.TrackSearchResults(ctx, "sess-7", "first", "", []string{"prod_001", "prod_002"}); err != nil {
		t.Fatalf("TrackSearchResults() error = %v", err)
	}
	now = now.Add(time.Minute)
	if err := tr.TrackSearchResults(ctx, "sess-7", "second", "", []string{"prod_003", "prod_001"}); err != nil {
		t.Fatalf("TrackSearchResults() error = %v", err)
	}

	ids, err := tr.GetRecentEntities(ctx, "sess-7", 10)
	if err != nil {
		t.Fatalf("GetRecentEntities() error = %v", err)
	}
	want := []string{"prod_003", "prod_001", "prod_002"}
	if len(ids) != len(want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}

	capped, err := tr.GetRecentEntities(ctx, "sess-7", 2)
	if err != nil {
		t.Fatalf("GetRecentEntities() error = %v", err)
	}
	if len(capped) != 2 {
		t.Fatalf("len(capped) = %d, want 2", len(capped))
	}
}
