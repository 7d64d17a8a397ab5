package validation_test

import (
	"testing"

	"github.com/SkyAerope/Brainpile/pkg/api/validation"
	"github.com/SkyAerope/Brainpile/pkg/core"

	"github.com/stretchr/testify/assert"
)

type testListQuery struct {
	Mode  string `validate:"omitempty,oneof=timeline random"`
	Limit int    `validate:"omitempty,min=1,max=100"`
}

type testSearchQuery struct {
	Q        string `validate:"required_without=ImageURL"`
	ImageURL string `validate:"omitempty,url"`
}

func TestValidateStruct_OneOf(t *testing.T) {
	t.Run("accepts a listed mode", func(t *testing.T) {
		err := validation.ValidateStruct(&testListQuery{Mode: "random", Limit: 20})
		assert.NoError(t, err)
	})

	t.Run("rejects an unlisted mode", func(t *testing.T) {
		err := validation.ValidateStruct(&testListQuery{Mode: "shuffle", Limit: 20})
		assert.Error(t, err)
		errs, ok := err.(core.ValidationErrors)
		assert.True(t, ok)
		assert.Contains(t, errs[0].Message, "one of")
	})
}

func TestValidateStruct_MinMax(t *testing.T) {
	t.Run("rejects a limit above the cap", func(t *testing.T) {
		err := validation.ValidateStruct(&testListQuery{Mode: "timeline", Limit: 500})
		assert.Error(t, err)
		errs, ok := err.(core.ValidationErrors)
		assert.True(t, ok)
		assert.Contains(t, errs[0].Message, "at most")
	})

	t.Run("accepts a limit at the cap", func(t *testing.T) {
		err := validation.ValidateStruct(&testListQuery{Mode: "timeline", Limit: 100})
		assert.NoError(t, err)
	})
}

func TestValidateStruct_URL(t *testing.T) {
	t.Run("rejects a malformed image_url", func(t *testing.T) {
		err := validation.ValidateStruct(&testSearchQuery{ImageURL: "not-a-url"})
		assert.Error(t, err)
		errs, ok := err.(core.ValidationErrors)
		assert.True(t, ok)
		assert.Contains(t, errs[0].Message, "URL")
	})

	t.Run("accepts a well-formed image_url", func(t *testing.T) {
		err := validation.ValidateStruct(&testSearchQuery{ImageURL: "https://example.com/cat.jpg"})
		assert.NoError(t, err)
	})
}

func TestValidateStruct_RequiredWithout(t *testing.T) {
	t.Run("rejects a search with neither q nor image_url", func(t *testing.T) {
		err := validation.ValidateStruct(&testSearchQuery{})
		assert.Error(t, err)
	})

	t.Run("accepts a search with only q", func(t *testing.T) {
		err := validation.ValidateStruct(&testSearchQuery{Q: "cat"})
		assert.NoError(t, err)
	})
}
