package export

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/edusync/canvas-export/pkg/canvas"
)

// IdentityFilter is an optional inclusion predicate over the student stream.
// A student must survive every configured filter.
type IdentityFilter struct {
	canvasIDs map[int64]struct{}
	sisIDs    map[string]struct{}
}

// NewIdentityFilter builds a filter from allow-lists. Either list may be
// empty, which disables that filter.
func NewIdentityFilter(canvasIDs []int64, sisIDs []string) *IdentityFilter {
	f := &IdentityFilter{}
	if len(canvasIDs) > 0 {
		f.canvasIDs = make(map[int64]struct{}, len(canvasIDs))
		for _, id := range canvasIDs {
			f.canvasIDs[id] = struct{}{}
		}
	}
	if len(sisIDs) > 0 {
		f.sisIDs = make(map[string]struct{}, len(sisIDs))
		for _, id := range sisIDs {
			f.sisIDs[id] = struct{}{}
		}
	}
	return f
}

// Match reports whether the student passes all active filters. With no
// filters configured every student passes. The SIS filter additionally
// requires a non-empty SIS id: an empty id always fails that filter.
func (f *IdentityFilter) Match(user *canvas.User) bool {
	if f.canvasIDs != nil {
		if _, ok := f.canvasIDs[user.ID]; !ok {
			return false
		}
	}
	if f.sisIDs != nil {
		sis := strings.TrimSpace(user.SISUserID)
		if sis == "" {
			return false
		}
		if _, ok := f.sisIDs[sis]; !ok {
			return false
		}
	}
	return true
}

// ParseCanvasIDs parses a comma-separated Canvas user id list, e.g.
// "851,2220,951". Entries that are not integers are skipped with a warning.
func ParseCanvasIDs(raw string) []int64 {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			log.Warn().Str("entry", part).Msg("Skipping non-numeric Canvas id in filter")
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// ParseSISIDs parses a comma-separated SIS user id list, e.g. "S1234,S2345".
func ParseSISIDs(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}
