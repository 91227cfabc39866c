package research

import (
	"strings"

	"github.com/jonathan/venue-scout/internal/fetch"
	"github.com/jonathan/venue-scout/internal/types"
	"github.com/jonathan/venue-scout/internal/vocab"
)

// IsAggregator reports whether the URL belongs to a listings, review, ticketing or social site.
func IsAggregator(rawURL string) bool {
	return hostInList(fetch.Host(rawURL), vocab.MustGet("domains", "aggregators"))
}

// IsCinemaChain reports whether the URL belongs to a known multi-site cinema operator.
func IsCinemaChain(rawURL string) bool {
	return hostInList(fetch.Host(rawURL), vocab.MustGet("domains", "cinema_chains"))
}

// hostInList matches dotted entries as a domain suffix and bare entries as a label prefix,
// so "tripadvisor" matches "www.tripadvisor.co.uk".
func hostInList(host string, entries []string) bool {
	if host == "" {
		return false
	}
	labels := strings.Split(host, ".")
	for _, e := range entries {
		e = strings.ToLower(e)
		if strings.Contains(e, ".") {
			if host == e || strings.HasSuffix(host, "."+e) {
				return true
			}
			continue
		}
		for _, l := range labels {
			if strings.HasPrefix(l, e) {
				return true
			}
		}
	}
	return false
}

// IsDispersed reports whether a film-tagged entity verified on two or more distinct
// cinema-chain hosts, meaning no single official venue exists.
func IsDispersed(entity *types.Entity, verified []string) bool {
	if entity == nil || !entity.HasTag(vocab.MustGet("domains", "film_tags")...) {
		return false
	}
	hosts := make(map[string]bool)
	for _, u := range verified {
		if IsCinemaChain(u) {
			hosts[fetch.Host(u)] = true
		}
	}
	return len(hosts) >= 2
}
