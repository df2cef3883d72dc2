// Package matcher hides catalog plans the user is already subscribed to.
package matcher

import (
	"strings"

	"github.com/samber/lo"

	"github.com/ManuelReschke/SubTrackr/app/models"
)

// ServiceKey is the lookup key of a subscription: the part of its display
// name before the first " - ", trimmed and lower-cased. A custom name without
// the separator is used whole.
func ServiceKey(sub *models.Subscription) string {
	name := sub.DisplayName()
	if i := strings.Index(name, models.DisplayNameSeparator); i >= 0 {
		name = name[:i]
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// Filter returns the candidates whose service is not covered by any of subs,
// keeping the input order. A candidate is covered when its service name
// (case-insensitive) equals a subscription's ServiceKey, or when it belongs
// to the same service as a subscribed plan.
func Filter(candidates []models.Plan, subs []models.Subscription) []models.Plan {
	if len(subs) == 0 {
		return candidates
	}

	names := make(map[string]struct{}, len(subs))
	serviceIDs := make(map[uint]struct{}, len(subs))
	for i := range subs {
		if key := ServiceKey(&subs[i]); key != "" {
			names[key] = struct{}{}
		}
		if id := subs[i].ServiceID(); id != 0 {
			serviceIDs[id] = struct{}{}
		}
	}

	return lo.Filter(candidates, func(p models.Plan, _ int) bool {
		if _, ok := serviceIDs[p.ServiceID]; ok && p.ServiceID != 0 {
			return false
		}
		name := strings.ToLower(strings.TrimSpace(p.ServiceName()))
		if name == "" {
			return true
		}
		_, ok := names[name]
		return !ok
	})
}
