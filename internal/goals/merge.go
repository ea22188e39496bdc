package goals

import (
	"math"
	"strings"

	"github.com/and161185/goalkeeper/internal/model"
)

// TextKey is the identity used for de-duplication: case-insensitive, surrounding space ignored.
func TextKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// Merge combines remote and local goals into one list without duplicate texts.
//
// Remote goals come first in store order, followed by local goals whose text
// matches no remote goal. The first occurrence of a text wins, so a remote
// goal always beats a local one.
func Merge(remote, local []model.Goal) []model.Goal {
	out := make([]model.Goal, 0, len(remote)+len(local))
	seen := make(map[string]struct{}, len(remote)+len(local))
	for _, src := range [][]model.Goal{remote, local} {
		for _, g := range src {
			k := TextKey(g.Text)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, g)
		}
	}
	return out
}

// Progress is the rounded percentage of completed goals, 0 for an empty list.
func Progress(gs []model.Goal) int {
	if len(gs) == 0 {
		return 0
	}
	done := 0
	for _, g := range gs {
		if g.Completed {
			done++
		}
	}
	return int(math.Round(100 * float64(done) / float64(len(gs))))
}

// ContainsText reports whether any goal has the same TextKey as text.
func ContainsText(gs []model.Goal, text string) bool {
	k := TextKey(text)
	for _, g := range gs {
		if TextKey(g.Text) == k {
			return true
		}
	}
	return false
}
