package domain

import (
	"regexp"
	"strings"
)

// VersionRefKind enumerates the version expression forms.
type VersionRefKind int

const (
	RefLiteral VersionRefKind = iota
	RefBranch
	RefLatestRelease
	RefLatestPrerelease
	RefSemverRelease
	RefSemverPrerelease
)

func (k VersionRefKind) String() string {
	if k < 0 || int(k) >= len(refKindNames) {
		return "Unknown"
	}
	return refKindNames[k]
}

var refKindNames = [...]string{
	RefLiteral:          "Literal",
	RefBranch:           "Branch",
	RefLatestRelease:    "LatestRelease",
	RefLatestPrerelease: "LatestPrerelease",
	RefSemverRelease:    "SemverRelease",
	RefSemverPrerelease: "SemverPrerelease",
}

// Version expression markers.
const (
	exprLatestRelease           = "$latest_release"
	exprLatestPrerelease        = "$latest_prerelease"
	exprHighestSemverRelease    = "$highest_semver_release_"
	exprHighestSemverPrerelease = "$highest_semver_prerelease_"
	exprBranch                  = "$branch_"
)

// VersionRef is a parsed version expression. Arg holds the branch name for
// RefBranch, the filter for the semver kinds and the literal for RefLiteral.
type VersionRef struct {
	Kind VersionRefKind
	Arg  string
	Raw  string
}

// ParseVersionRef classifies a raw version expression.
func ParseVersionRef(expr string) VersionRef {
	ref := VersionRef{Raw: expr}
	switch {
	case expr == exprLatestRelease:
		ref.Kind = RefLatestRelease
	case strings.HasPrefix(expr, exprHighestSemverRelease):
		ref.Kind = RefSemverRelease
		ref.Arg = strings.TrimPrefix(expr, exprHighestSemverRelease)
	case expr == exprLatestPrerelease:
		ref.Kind = RefLatestPrerelease
	case strings.HasPrefix(expr, exprHighestSemverPrerelease):
		ref.Kind = RefSemverPrerelease
		ref.Arg = strings.TrimPrefix(expr, exprHighestSemverPrerelease)
	case strings.HasPrefix(expr, exprBranch):
		ref.Kind = RefBranch
		ref.Arg = strings.TrimPrefix(expr, exprBranch)
	default:
		ref.Kind = RefLiteral
		ref.Arg = expr
	}
	return ref
}

const shortSHALength = 7

var fullSHAPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// IsFullSHA reports whether s looks like a full 40 character commit hash.
func IsFullSHA(s string) bool {
	return fullSHAPattern.MatchString(s)
}

// ShortSHA truncates a commit hash to its short form.
func ShortSHA(sha string) string {
	if len(sha) <= shortSHALength {
		return sha
	}
	return sha[:shortSHALength]
}
