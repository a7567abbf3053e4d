package discovery

import (
	"fmt"
	"slices"

	"github.com/kailas-cloud/nearby/internal/domain/geo"
	"github.com/kailas-cloud/nearby/internal/domain/place"
	"github.com/kailas-cloud/nearby/internal/domain/query"
)

// UnratedPolicy decides whether candidates without a rating pass a positive MinRating.
type UnratedPolicy string

// Missing-rating policies.
const (
	// UnratedInclude keeps unrated candidates regardless of MinRating.
	UnratedInclude UnratedPolicy = "include"
	// UnratedExclude treats a missing rating as failing any MinRating above zero.
	UnratedExclude UnratedPolicy = "exclude"
)

// ParseUnratedPolicy accepts "include", "exclude" or "" (include).
func ParseUnratedPolicy(s string) (UnratedPolicy, error) {
	switch UnratedPolicy(s) {
	case "", UnratedInclude:
		return UnratedInclude, nil
	case UnratedExclude:
		return UnratedExclude, nil
	default:
		return "", fmt.Errorf("unknown unrated policy %q", s)
	}
}

// RankOptions controls FilterAndRank.
type RankOptions struct {
	MinRating float64
	Unrated   UnratedPolicy
	Order     query.Order
}

// FilterAndRank computes the distance from origin for every candidate, drops
// candidates rated below MinRating and orders the rest. OrderDistance sorts by
// distance ascending with ties kept in input order; OrderRelevance keeps the
// provider order. The input slice is not modified.
func FilterAndRank(cands []place.Candidate, origin geo.Point, opts RankOptions) []place.Ranked {
	out := make([]place.Ranked, 0, len(cands))
	for i := range cands {
		if !passesRating(&cands[i], opts) {
			continue
		}
		out = append(out, place.Ranked{
			Candidate:  cands[i],
			DistanceKm: geo.DistanceKm(origin, cands[i].Location),
		})
	}

	if opts.Order != query.OrderRelevance {
		slices.SortStableFunc(out, func(a, b place.Ranked) int {
			switch {
			case a.DistanceKm < b.DistanceKm:
				return -1
			case a.DistanceKm > b.DistanceKm:
				return 1
			default:
				return 0
			}
		})
	}
	return out
}

func passesRating(c *place.Candidate, opts RankOptions) bool {
	if c.Rating == nil {
		return opts.Unrated != UnratedExclude || opts.MinRating <= 0
	}
	return *c.Rating >= opts.MinRating
}
