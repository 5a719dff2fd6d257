package actions

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	valErr := Validationf("bad %q", "amount")
	assert.Equal(t, KindValidation, KindOf(valErr))
	assert.Equal(t, `bad "amount"`, valErr.Error())

	preErr := Preconditionf("account may not be rent exempt")
	assert.Equal(t, KindPrecondition, KindOf(preErr))

	upErr := Upstreamf(assert.AnError, "failed to fetch latest blockhash")
	assert.Equal(t, KindUpstream, KindOf(upErr))
	assert.ErrorIs(t, upErr, assert.AnError)

	intErr := Internalf(assert.AnError, "boom")
	assert.Equal(t, KindInternal, KindOf(intErr))
}

func TestKindOf_Unclassified(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
}

func TestKindOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", Validationf("bad input"))
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestHTTPStatus(t *testing.T) {
	for _, err := range []*Error{
		Validationf("x"),
		Preconditionf("x"),
		Upstreamf(nil, "x"),
		Internalf(nil, "x"),
	} {
		require.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	}
}
