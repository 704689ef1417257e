package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLikePattern(t *testing.T) {
	cases := map[string]string{
		"monkey":     "%monkey%",
		"50%":        `%50\%%`,
		"navy_proof": `%navy\_proof%`,
		`c:\gin`:     `%c:\\gin%`,
		`100%_\`:     `%100\%\_\\%`,
		"":           "%%",
	}
	for keyword, want := range cases {
		assert.Equal(t, want, likePattern(keyword), keyword)
	}
}
