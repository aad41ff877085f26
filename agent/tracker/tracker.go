// Package tracker maintains short-lived conversational grounding: which
// entities recent searches surfaced, and whether a user reference to one
// of them is still trustworthy.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/shopstream/discovery-agent/agent/contract"
	"github.com/shopstream/discovery-agent/agent/fuzzy"
	statex "github.com/shopstream/discovery-agent/agent/state"
)

const (
	defaultSoftValidity  = 30 * time.Minute
	defaultHardRetention = 2 * time.Hour

	maxSuggestions        = 5
	suggestionCutoff      = 0.5
	maxRecentSearchLabels = 5
)

// Option customizes a Tracker.
type Option func(*Tracker)

func WithSoftValidity(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.softValidity = d
		}
	}
}

func WithHardRetention(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.hardRetention = d
		}
	}
}

// WithClock overrides time.Now. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(t *Tracker) {
		if clock != nil {
			t.clock = clock
		}
	}
}

// Tracker is the context tracker. Windows older than the soft validity
// no longer validate references but stay readable until the hard
// retention purge sweeps them out.
type Tracker struct {
	store         statex.Store
	softValidity  time.Duration
	hardRetention time.Duration
	clock         func() time.Time
}

func New(store statex.Store, opts ...Option) (*Tracker, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}

	t := &Tracker{
		store:         store,
		softValidity:  defaultSoftValidity,
		hardRetention: defaultHardRetention,
		clock:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	if t.softValidity > t.hardRetention {
		return nil, fmt.Errorf("soft validity %s exceeds hard retention %s", t.softValidity, t.hardRetention)
	}
	return t, nil
}

// CreateSession registers a new empty session. Creating an existing
// session is a no-op.
func (t *Tracker) CreateSession(ctx context.Context, sessionID string) error {
	if _, err := t.store.LoadSession(ctx, sessionID); err == nil {
		return nil
	} else if !errors.Is(err, statex.ErrSessionNotFound) {
		return err
	}
	return t.store.SaveSession(ctx, statex.NewSession(sessionID, t.clock()))
}

func (t *Tracker) SessionExists(ctx context.Context, sessionID string) (bool, error) {
	_, err := t.store.LoadSession(ctx, sessionID)
	if errors.Is(err, statex.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (t *Tracker) GetContext(ctx context.Context, sessionID string) (map[string]any, error) {
	sess, err := t.store.LoadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Data, nil
}

// UpdateContext shallow-merges patch into the session map, creating the
// session when it does not exist yet. Re-applying the same patch is
// idempotent.
func (t *Tracker) UpdateContext(ctx context.Context, sessionID string, patch map[string]any) error {
	sess, err := t.store.LoadSession(ctx, sessionID)
	if errors.Is(err, statex.ErrSessionNotFound) {
		sess = statex.NewSession(sessionID, t.clock())
	} else if err != nil {
		return err
	}

	sess.Merge(patch)
	sess.Touch(t.clock())
	return t.store.SaveSession(ctx, sess)
}

func (t *Tracker) Flag(ctx context.Context, sessionID, key string) (bool, error) {
	sess, err := t.store.LoadSession(ctx, sessionID)
	if errors.Is(err, statex.ErrSessionNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return sess.Flag(key), nil
}

// TrackSearchResults records the entity ids one search surfaced. Windows
// past the hard retention are purged before the insert so the list never
// grows unbounded.
func (t *Tracker) TrackSearchResults(ctx context.Context, sessionID, query, category string, productIDs []string) error {
	now := t.clock()
	if err := t.store.PurgeWindowsBefore(ctx, sessionID, now.Add(-t.hardRetention)); err != nil {
		return fmt.Errorf("purge windows: %w", err)
	}

	window := &statex.SearchWindow{
		SessionID: sessionID,
		Query:     query,
		Results:   append([]string(nil), productIDs...),
		Category:  category,
		CreatedAt: now,
	}
	if err := t.store.AppendWindow(ctx, window); err != nil {
		return fmt.Errorf("append window: %w", err)
	}

	log.Debug().
		Str("session_id", sessionID).
		Str("query", query).
		Int("results", len(productIDs)).
		Msg("tracked search window")
	return nil
}

// ValidateReference checks whether productID was surfaced by a search
// inside the soft validity window. On failure the result carries ranked
// near-matches from the still-valid windows plus the recent query labels.
func (t *Tracker) ValidateReference(ctx context.Context, sessionID, productID string) (contractx.ValidationResult, error) {
	windows, err := t.validWindows(ctx, sessionID)
	if err != nil {
		return contractx.ValidationResult{}, err
	}

	for _, w := range windows {
		for _, id := range w.Results {
			if id == productID {
				return contractx.ValidationResult{
					Valid:           true,
					FoundInSearch:   w.Query,
					SearchTimestamp: w.CreatedAt,
				}, nil
			}
		}
	}

	return contractx.ValidationResult{
		Valid:          false,
		Error:          fmt.Sprintf("product %q was not found in your recent searches", productID),
		Suggestions:    t.suggestions(productID, windows),
		RecentSearches: recentQueries(windows),
	}, nil
}

// GetRecentEntities lists entity ids newest window first, deduplicated
// by first appearance, capped at limit.
func (t *Tracker) GetRecentEntities(ctx context.Context, sessionID string, limit int) ([]string, error) {
	windows, err := t.validWindows(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	ids := make([]string, 0, limit)
	for _, w := range windows {
		for _, id := range w.Results {
			if seen[id] {
				continue
			}
			seen[id] = true
			ids = append(ids, id)
			if limit > 0 && len(ids) >= limit {
				return ids, nil
			}
		}
	}
	return ids, nil
}

func (t *Tracker) validWindows(ctx context.Context, sessionID string) ([]statex.SearchWindow, error) {
	cutoff := t.clock().Add(-t.softValidity)
	windows, err := t.store.WindowsSince(ctx, sessionID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("load windows: %w", err)
	}
	return windows, nil
}

// suggestions ranks near-miss ids by character-set similarity. Only the
// first few distinct ids (newest window first) are scored, and only
// strict matches above the cutoff qualify; an id at exactly the cutoff
// is rejected.
func (t *Tracker) suggestions(productID string, windows []statex.SearchWindow) []contractx.Suggestion {
	type candidate struct {
		id    string
		query string
	}
	seen := make(map[string]bool)
	candidates := make([]candidate, 0, maxSuggestions)
	for _, w := range windows {
		for _, id := range w.Results {
			if seen[id] || len(candidates) >= maxSuggestions {
				continue
			}
			seen[id] = true
			candidates = append(candidates, candidate{id: id, query: w.Query})
		}
	}

	var out []contractx.Suggestion
	for _, c := range candidates {
		score := fuzzy.Similarity(productID, c.id)
		if score <= suggestionCutoff {
			continue
		}
		out = append(out, contractx.Suggestion{
			ProductID:  c.id,
			Similarity: score,
			Reason:     fmt.Sprintf("found in search: %q", c.query),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Similarity > out[j].Similarity
	})
	return out
}

func recentQueries(windows []statex.SearchWindow) []string {
	seen := make(map[string]bool)
	var queries []string
	for _, w := range windows {
		if w.Query == "" || seen[w.Query] {
			continue
		}
		seen[w.Query] = true
		queries = append(queries, w.Query)
		if len(queries) >= maxRecentSearchLabels {
			break
		}
	}
	return queries
}
