package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegexEscape(t *testing.T) {
	assert.Equal(t, "bitcoin", regexEscape("bitcoin"))
	assert.Equal(t, `1\.5% \(approx\)`, regexEscape("1.5% (approx)"))
	assert.Equal(t, `a\+b\*c\?`, regexEscape("a+b*c?"))
	assert.Equal(t, `\\d\[0\]\{2\}\^\$\|`, regexEscape(`\d[0]{2}^$|`))
}
