package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chuteinicial/backend/core"
)

func Test_orderBy(t *testing.T) {
	allowed := []string{"name", "created_at"}

	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     string
	}{
		{name: "no ordering falls back to default", want: " ORDER BY name"},
		{
			name:     "allowed field",
			ordering: []core.DBOrdering{{Field: "created_at", Ascending: true}},
			want:     " ORDER BY created_at ASC",
		},
		{
			name: "descending",
			ordering: []core.DBOrdering{
				{Field: "name", Ascending: false},
				{Field: "created_at", Ascending: true},
			},
			want: " ORDER BY name DESC, created_at ASC",
		},
		{
			name:     "unknown field is dropped",
			ordering: []core.DBOrdering{{Field: "password_hash"}},
			want:     " ORDER BY name",
		},
		{
			name:     "sql fragment is dropped",
			ordering: []core.DBOrdering{{Field: "(SELECT password_hash FROM guardian LIMIT 1)"}},
			want:     " ORDER BY name",
		},
		{
			name: "mixed keeps only allowed fields",
			ordering: []core.DBOrdering{
				{Field: "name; DROP TABLE guardian"},
				{Field: "name", Ascending: true},
			},
			want: " ORDER BY name ASC",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderBy(tt.ordering, allowed, "name"))
		})
	}
}
