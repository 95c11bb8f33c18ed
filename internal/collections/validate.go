package collections

import (
	"fmt"

	"github.com/artpar/colldex/internal/core"
)

// ValidateAndFixCollection reports the problems in c and, when fix is
// set, returns a repaired copy. c itself is never modified.
//
// Checks run in order: missing version, duplicate request names, then
// per-request validity. Duplicates are renamed to "<name> (<index>)"
// before validity is checked, so an invalid request is reported under its
// new name. With fix set, invalid requests are dropped.
func ValidateAndFixCollection(c core.Collection, fix bool) (core.Collection, []string) {
	out := c.Clone()
	issues := make([]string, 0)

	if out.Metadata.Version == "" {
		issues = append(issues, "Missing version metadata")
		if fix {
			out.Metadata.Version = core.DefaultVersion
		}
	}

	firstSeen := make(map[string]int, len(out.Requests))
	for i := range out.Requests {
		name := out.Requests[i].Name
		first, dup := firstSeen[name]
		if !dup {
			firstSeen[name] = i
			continue
		}

		issues = append(issues, fmt.Sprintf("Duplicate request name '%s' at indices %d and %d", name, first, i))
		if fix {
			out.Requests[i].Name = fmt.Sprintf("%s (%d)", name, i)
		}
	}

	kept := out.Requests[:0:0]
	for _, r := range out.Requests {
		if err := r.Validate(); err != nil {
			issues = append(issues, fmt.Sprintf("Invalid request '%s': %v", r.Name, err))
			if fix {
				continue
			}
		}
		kept = append(kept, r)
	}
	out.Requests = kept

	if !fix {
		return c.Clone(), issues
	}
	return out, issues
}
