package asset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-Docket/pkg/errors"
)

func TestParseNiceSelections(t *testing.T) {
	text := "(35) Advertising services\r\n" +
		"\n" +
		"(9-1) Computer software\n" +
		"  (9-2)   Mobile applications  \n" +
		"(35) advertising services\n" +
		"( 41 - 3 ) Education\n"

	got, err := ParseNiceSelections(text)
	require.NoError(t, err)

	assert.Equal(t, []NiceClass{
		{ClassNo: 9, Items: []NiceItem{{1, "Computer software"}, {2, "Mobile applications"}}},
		{ClassNo: 35, Items: []NiceItem{{0, "Advertising services"}}},
		{ClassNo: 41, Items: []NiceItem{{3, "Education"}}},
	}, got)
	assert.Equal(t, []int{9, 35, 41}, ClassNumbers(got))
}

func TestParseNiceSelections_Empty(t *testing.T) {
	got, err := ParseNiceSelections("  \n\n")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseNiceSelections_Invalid(t *testing.T) {
	for _, in := range []string{
		"Advertising services",
		"(0) Nothing",
		"(46) Beyond range",
		"(35)",
		"(ab) letters",
		"35) missing paren",
	} {
		_, err := ParseNiceSelections(in)
		assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidNiceClass), "input %q", in)
	}
}

//Personal.AI order the ending
