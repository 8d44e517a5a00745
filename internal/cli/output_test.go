package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LookRain/betabreak/internal/plan"
)

func TestParseOverrides(t *testing.T) {
	vars, err := parseOverrides([]string{"sets=4", "rest=120"})
	require.NoError(t, err)
	assert.Equal(t, plan.Variables{"sets": 4, "rest": 120}, vars)

	vars, err = parseOverrides(nil)
	require.NoError(t, err)
	assert.Nil(t, vars)

	_, err = parseOverrides([]string{"sets"})
	assert.Error(t, err)
	_, err = parseOverrides([]string{"sets=six"})
	assert.Error(t, err)
}

func TestParseWeekdays(t *testing.T) {
	days, err := parseWeekdays("1, 4")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4}, days)

	days, err = parseWeekdays("")
	require.NoError(t, err)
	assert.Nil(t, days)

	_, err = parseWeekdays("7")
	assert.Error(t, err)
	_, err = parseWeekdays("mon")
	assert.Error(t, err)
}

func TestDisplayTitle_NormalizesToNFC(t *testing.T) {
	// "é" as e + combining acute vs the precomposed form.
	decomposed := "Systéme"
	composed := "Systéme"
	assert.Equal(t, composed, displayTitle(decomposed))
}
