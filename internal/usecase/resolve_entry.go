package usecase

import (
	"context"
	"fmt"
	"sort"
)

// ResolveEntryInput is a scanned station QR plus the player's desired
// route profile (short/medium/long; empty means no preference).
type ResolveEntryInput struct {
	RouteSlug    string
	LocationCode string
	Profile      string
}

// EntryResolution names the route the player should actually enter, plus
// every candidate that contained the scanned station, shortest first.
type EntryResolution struct {
	RouteSlug    string
	MatchedSlugs []string
}

type entryCandidate struct {
	slug  string
	count int
}

// ResolveEntry finds which active route containing the scanned station
// best matches the desired profile length. Preference order: the smallest
// candidate that reaches the desired count, falling back to the largest
// available when none does; with no desired profile, the smallest overall.
// Ties prefer the originally scanned route, then lexicographic slug order.
// If no active route contains the station the scanned slug passes through
// unchanged, so off-catalogue station links keep working.
func (s *Service) ResolveEntry(ctx context.Context, in ResolveEntryInput) (EntryResolution, error) {
	routes, err := s.routes.ListActive(ctx)
	if err != nil {
		return EntryResolution{}, fmt.Errorf("listing active routes: %w", err)
	}

	var candidates []entryCandidate
	for _, route := range routes {
		locations, err := s.locations.ListByRoute(ctx, route.ID)
		if err != nil {
			return EntryResolution{}, fmt.Errorf("listing locations for %q: %w", route.Slug, err)
		}
		contains := false
		activeCount := 0
		for _, l := range locations {
			if !l.Active {
				continue
			}
			activeCount++
			if l.Code == in.LocationCode {
				contains = true
			}
		}
		if contains {
			candidates = append(candidates, entryCandidate{slug: route.Slug, count: activeCount})
		}
	}

	if len(candidates) == 0 {
		return EntryResolution{RouteSlug: in.RouteSlug}, nil
	}

	// Shortest first; ties prefer the scanned route, then slug order.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.count != b.count {
			return a.count < b.count
		}
		if (a.slug == in.RouteSlug) != (b.slug == in.RouteSlug) {
			return a.slug == in.RouteSlug
		}
		return a.slug < b.slug
	})

	matched := make([]string, len(candidates))
	for i, c := range candidates {
		matched[i] = c.slug
	}

	winner := candidates[0]
	if desired := s.profileSize(in.Profile); desired > 0 {
		found := false
		for _, c := range candidates {
			if c.count >= desired {
				winner = c
				found = true
				break
			}
		}
		if !found {
			// Best effort: no candidate reaches the desired length, take
			// the largest available.
			winner = candidates[len(candidates)-1]
			for _, c := range candidates {
				if c.count == winner.count {
					winner = c
					break
				}
			}
		}
	}

	return EntryResolution{RouteSlug: winner.slug, MatchedSlugs: matched}, nil
}
