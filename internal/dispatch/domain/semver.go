package domain

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
)

// Release is a published release of the source repository.
type Release struct {
	Tag        string
	Prerelease bool
	CreatedAt  time.Time
}

// LatestPrerelease returns the most recently created prerelease.
func LatestPrerelease(releases []Release) (Release, bool) {
	var pre []Release
	for _, r := range releases {
		if r.Prerelease {
			pre = append(pre, r)
		}
	}
	if len(pre) == 0 {
		return Release{}, false
	}
	slices.SortStableFunc(pre, func(a, b Release) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return pre[0], true
}

// Tags returns the tags of releases whose prerelease flag equals prerelease.
func Tags(releases []Release, prerelease bool) []string {
	var tags []string
	for _, r := range releases {
		if r.Prerelease == prerelease {
			tags = append(tags, r.Tag)
		}
	}
	return tags
}

var numericGroup = regexp.MustCompile(`\d+`)

func numericGroups(s string) []int {
	var out []int
	for _, g := range numericGroup.FindAllString(s, -1) {
		n, err := strconv.Atoi(g)
		if err != nil {
			return nil
		}
		out = append(out, n)
	}
	return out
}

// HighestSemver picks the highest tag matching a partial semver filter such
// as "v2", "2.5" or "v3.0.0". The major component must always match; minor
// and patch only when the filter names them.
//
// In release mode tags that do not decompose into exactly three numbers are
// ignored and no match is ErrNoMatchingRelease. In prerelease mode no match
// returns found == false with a nil error.
func HighestSemver(tags []string, filter string, releaseMode bool) (tag string, found bool, err error) {
	want := numericGroups(filter)
	if len(want) == 0 {
		return "", false, ErrUnparsableSemverFilter
	}
	if len(want) > 3 {
		want = want[:3]
	}

	var best string
	for _, t := range tags {
		groups := numericGroups(t)
		if releaseMode && len(groups) != 3 {
			continue
		}
		if !matchesFilter(groups, want) {
			continue
		}
		if !found || compareTags(t, best) > 0 {
			best = t
			found = true
		}
	}

	if !found && releaseMode {
		return "", false, ErrNoMatchingRelease
	}
	return best, found, nil
}

func matchesFilter(groups, want []int) bool {
	if len(groups) < len(want) {
		return false
	}
	for i := range want {
		if groups[i] != want[i] {
			return false
		}
	}
	return true
}

// compareTags orders two tags by semver precedence, falling back to their
// numeric triple when either is not valid semver. Ties go to string order.
func compareTags(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		if c := va.Compare(vb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	}

	ga, gb := triple(a), triple(b)
	for i := range ga {
		if c := cmp.Compare(ga[i], gb[i]); c != 0 {
			return c
		}
	}
	return strings.Compare(a, b)
}

func triple(s string) [3]int {
	var t [3]int
	copy(t[:], numericGroups(s))
	return t
}
