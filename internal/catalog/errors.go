package catalog

import (
	"fmt"
	"strings"

	"quest-server/internal/models"
)

// ContentError describes a story definition rejected at load time.
type ContentError struct {
	File    string
	StoryID string
	Reasons []string
}

func (e *ContentError) Error() string {
	var b strings.Builder
	b.WriteString("invalid story")
	if e.StoryID != "" {
		fmt.Fprintf(&b, " %q", e.StoryID)
	}
	if e.File != "" {
		fmt.Fprintf(&b, " (%s)", e.File)
	}
	b.WriteString(": ")
	b.WriteString(strings.Join(e.Reasons, "; "))
	return b.String()
}

// Is makes errors.Is(err, models.ErrInvalidContent) work for every ContentError.
func (e *ContentError) Is(target error) bool {
	return target == models.ErrInvalidContent
}
