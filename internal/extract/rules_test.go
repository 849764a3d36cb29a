package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpec_Rule(t *testing.T) {
	t.Parallel()

	r, err := Spec{FromClassName: &FromClassName{}}.Rule()
	require.NoError(t, err)
	assert.IsType(t, &FromClassName{}, r)

	_, err = Spec{}.Rule()
	require.ErrorIs(t, err, ErrRuleVariant)
	assert.Contains(t, err.Error(), "none set")

	_, err = Spec{FromMethodName: &FromMethodName{}, Literal: &Literal{Value: "x"}}.Rule()
	require.ErrorIs(t, err, ErrRuleVariant)
	assert.Contains(t, err.Error(), "fromMethodName, literal")
}
