package commands

import (
	"strings"

	"github.com/gobwas/glob"
	"github.com/pkg/errors"
)

// ExpandNames expands the glob patterns in names against known.
// Plain names are kept as given so that unknown names reach the system and
// fail there. The result keeps the order of names without duplicates.
func ExpandNames(names []string, known []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for _, name := range names {
		if !strings.ContainsAny(name, "*?[{") {
			add(name)
			continue
		}
		g, err := glob.Compile(name)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid name pattern %q", name)
		}
		matched := false
		for _, k := range known {
			if g.Match(k) {
				matched = true
				add(k)
			}
		}
		if !matched {
			return nil, errors.Errorf("no name matches %q", name)
		}
	}
	return out, nil
}
