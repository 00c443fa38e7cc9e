// Package release orders version tags fetched from a release index.
package release

import (
	"sort"
	"strings"
)

// Latest is the sentinel tag appended after every real release.
const Latest = "latest"

// prereleaseMarker identifies release candidates in a tag name.
const prereleaseMarker = "-rc"

// IsPrerelease reports whether tag names a release candidate.
func IsPrerelease(tag string) bool {
	return strings.Contains(tag, prereleaseMarker)
}

// SortTags orders tags for presentation: stable releases in descending
// lexicographic order, then prereleases in descending lexicographic order,
// then Latest. The first element is the suggested default.
//
// Example:
//
//	SortTags([]string{"v1.2.0", "v1.3.0-rc1", "v1.1.0"})
//	// Returns: ["v1.2.0", "v1.1.0", "v1.3.0-rc1", "latest"]
func SortTags(tags []string) []string {
	var stable, pre []string
	for _, tag := range tags {
		if IsPrerelease(tag) {
			pre = append(pre, tag)
		} else {
			stable = append(stable, tag)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(stable)))
	sort.Sort(sort.Reverse(sort.StringSlice(pre)))

	out := make([]string, 0, len(tags)+1)
	out = append(out, stable...)
	out = append(out, pre...)
	return append(out, Latest)
}

// Contains reports whether tag is one of tags.
func Contains(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
