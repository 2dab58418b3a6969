// Package teamid generates candidate team identifiers.
package teamid

import (
	"strings"

	"github.com/google/uuid"
)

const prefix = "TEAM-"

// New returns a candidate identifier of the form TEAM-XXXXXXXX, where the
// suffix is the first segment of a random UUID, uppercased. Candidates are
// not guaranteed unique; callers must check against the store before use.
func New() string {
	return prefix + strings.ToUpper(strings.SplitN(uuid.NewString(), "-", 2)[0])
}
