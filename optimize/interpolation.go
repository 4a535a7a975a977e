package optimize

import (
	"sort"
	"strings"

	"github.com/c360studio/semtrim/profile"
)

// Region is a half-open byte range [Start, End) inside string content that
// truncation must not split: an embedded-expression span or an escape
// sequence.
type Region struct {
	Start, End int
}

// contains reports whether the cut point falls strictly inside the region.
// Cuts at either boundary are safe.
func (r Region) contains(cut int) bool {
	return cut > r.Start && cut < r.End
}

// Regions locates every interpolation span in content for the given
// marker triples. Nested occurrences of a marker's own open/close pair are
// tracked by depth, so "${a${b}c}" is one region ending at the final
// brace. An unterminated region extends to the end of the content. The
// result is sorted by start offset with overlaps merged.
func Regions(content string, markers []profile.Marker) []Region {
	var regions []Region
	for _, m := range markers {
		regions = append(regions, scanMarker(content, m)...)
	}
	return mergeRegions(regions)
}

func scanMarker(content string, m profile.Marker) []Region {
	opener := m.Prefix + m.Open
	var regions []Region
	for i := 0; i+len(opener) <= len(content); {
		rel := strings.Index(content[i:], opener)
		if rel < 0 {
			break
		}
		start := i + rel
		// A doubled bare opener escapes the marker: "{{" is a literal
		// brace in format strings.
		if m.Prefix == "" && strings.HasPrefix(content[start+len(m.Open):], m.Open) {
			i = start + 2*len(m.Open)
			continue
		}

		depth := 1
		j := start + len(opener)
		for j < len(content) && depth > 0 {
			switch {
			case strings.HasPrefix(content[j:], m.Open):
				depth++
				j += len(m.Open)
			case strings.HasPrefix(content[j:], m.Close):
				depth--
				j += len(m.Close)
			default:
				j++
			}
		}
		regions = append(regions, Region{Start: start, End: j})
		i = j
	}
	return regions
}

func mergeRegions(regions []Region) []Region {
	if len(regions) < 2 {
		return regions
	}
	sort.Slice(regions, func(i, j int) bool { return regions[i].Start < regions[j].Start })
	merged := regions[:1]
	for _, r := range regions[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// Adjust moves a truncation point that falls inside a region forward to
// the region's end, so no interpolation or escape is ever split. Cuts
// outside every region are returned unchanged, which makes the adjustment
// idempotent: a region end is never inside a region of a merged, sorted
// set.
func Adjust(cut int, regions []Region) int {
	for _, r := range regions {
		if r.contains(cut) {
			return r.End
		}
		if r.Start >= cut {
			break
		}
	}
	return cut
}
