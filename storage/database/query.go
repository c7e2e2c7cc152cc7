package database

import (
	"strings"

	"github.com/chuteinicial/backend/core"
)

// orderBy renders an ORDER BY clause, falling back to def when no usable
// ordering was requested. Field names arrive from the ordering query param:
// anything not in allowed is dropped so it can never reach the SQL string.
func orderBy(ordering []core.DBOrdering, allowed []string, def string) string {
	parts := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		for _, fld := range allowed {
			if ord.Field == fld {
				parts = append(parts, ord.String())
				break
			}
		}
	}
	if len(parts) == 0 {
		return " ORDER BY " + def
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}
