package repository

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildKeywordFilter(t *testing.T) {
	t.Run("matches name location and description", func(t *testing.T) {
		filter, args := buildKeywordFilter([]string{"Algebra"})
		assert.Contains(t, filter, "LOWER(name) LIKE ?")
		assert.Contains(t, filter, "LOWER(location) LIKE ?")
		assert.Contains(t, filter, "LOWER(description) LIKE ?")
		assert.Equal(t, []any{"%algebra%", "%algebra%", "%algebra%"}, args)
	})

	t.Run("keywords are unioned", func(t *testing.T) {
		filter, args := buildKeywordFilter([]string{"algebra", "room 12"})
		assert.Equal(t, 1, strings.Count(filter, " OR (LOWER(name)"))
		assert.Len(t, args, 6)
		assert.Equal(t, "%room 12%", args[3])
	})

	t.Run("blank keywords are skipped", func(t *testing.T) {
		filter, args := buildKeywordFilter([]string{"  ", "", "\t"})
		assert.Empty(t, filter)
		assert.Empty(t, args)
	})
}
