package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEscapeQuery(t *testing.T) {
	t.Run("tokens quoted and OR joined", func(t *testing.T) {
		assert.Equal(t, `"liver" OR "fibrosis"`, escapeQuery("liver fibrosis"))
	})

	t.Run("single token", func(t *testing.T) {
		assert.Equal(t, `"fibrosis"`, escapeQuery("fibrosis"))
	})

	t.Run("operators neutralized", func(t *testing.T) {
		assert.Equal(t, `"AND" OR "NOT" OR "col:val"`, escapeQuery("AND NOT col:val"))
	})

	t.Run("surrounding quotes stripped", func(t *testing.T) {
		assert.Equal(t, `"phrase"`, escapeQuery(`"phrase"`))
	})

	t.Run("interior quotes doubled", func(t *testing.T) {
		assert.Equal(t, `"it""s"`, escapeQuery(`it"s`))
	})

	t.Run("empty and whitespace input", func(t *testing.T) {
		assert.Equal(t, "", escapeQuery(""))
		assert.Equal(t, "", escapeQuery("   "))
		assert.Equal(t, "", escapeQuery(`" "`))
	})
}
