package exchange

import (
	"context"

	"github.com/rs/zerolog/log"
)

// HotlistOptions controls per-venue hot-symbol selection.
type HotlistOptions struct {
	TopN       int
	MinVolUSDT float64
	Force      []string // pinned to the front when the venue lists them
	Exclude    []string
}

// BuildHotmap returns the most active symbols per venue. A venue whose
// ticker endpoint fails contributes an empty list rather than failing the
// scan; callers fall back to their configured symbols.
func BuildHotmap(ctx context.Context, venues []string, opts HotlistOptions) map[string][]string {
	hot := make(map[string][]string, len(venues))
	excluded := make(map[string]bool, len(opts.Exclude))
	for _, s := range opts.Exclude {
		excluded[s] = true
	}

	for _, venue := range venues {
		client := Spot(venue)
		lister, ok := client.(Lister)
		if !ok {
			hot[venue] = nil
			continue
		}
		syms, err := lister.TopSymbols(ctx, opts.TopN, opts.MinVolUSDT)
		if err != nil {
			log.Warn().Err(err).Str("venue", venue).Msg("hotlist fetch failed")
			hot[venue] = nil
			continue
		}

		out := make([]string, 0, len(syms))
		seen := make(map[string]bool, len(syms))
		for _, s := range syms {
			if excluded[s] || seen[s] {
				continue
			}
			out = append(out, s)
			seen[s] = true
		}
		// Forced symbols move to the front only when the venue actually
		// lists them; injecting unknown symbols causes invalid-symbol errors.
		for i := len(opts.Force) - 1; i >= 0; i-- {
			f := opts.Force[i]
			for j, s := range out {
				if s == f {
					out = append(out[:j], out[j+1:]...)
					out = append([]string{f}, out...)
					break
				}
			}
		}
		if len(out) > opts.TopN {
			out = out[:opts.TopN]
		}
		hot[venue] = out
	}
	return hot
}
