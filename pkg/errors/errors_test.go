package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_Format(t *testing.T) {
	err := New(ErrOutputConflict, "two sources collide")
	assert.Equal(t, "[OUTPUT_CONFLICT] two sources collide", err.Error())

	wrapped := Wrap(stderrors.New("underlying"), ErrFileRead, "failed to read")
	assert.Equal(t, "[FILE_READ] failed to read: underlying", wrapped.Error())
}

func TestWrap_NilYieldsNil(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrFileRead, "ignored"))
	assert.Nil(t, Wrapf(nil, ErrFileRead, "ignored %s", "too"))
}

func TestUnwrap(t *testing.T) {
	inner := stderrors.New("inner")
	err := Wrap(inner, ErrFileWrite, "outer")
	assert.Equal(t, inner, stderrors.Unwrap(err))
	assert.True(t, stderrors.Is(err, inner))
}

func TestIsErrorCode(t *testing.T) {
	err := Newf(ErrAmbiguousOverlay, "overlays %d and %d", 1, 2)
	assert.True(t, IsErrorCode(err, ErrAmbiguousOverlay))
	assert.False(t, IsErrorCode(err, ErrOutputConflict))
	assert.False(t, IsErrorCode(stderrors.New("plain"), ErrAmbiguousOverlay))
	assert.False(t, IsErrorCode(nil, ErrAmbiguousOverlay))
}

func TestIsErrorCode_SeesThroughWrapping(t *testing.T) {
	inner := New(ErrFormatParse, "bad document")
	outer := fmt.Errorf("context: %w", inner)
	assert.True(t, IsErrorCode(outer, ErrFormatParse))
	assert.Equal(t, ErrFormatParse, GetErrorCode(outer))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, ErrLockHeld, GetErrorCode(New(ErrLockHeld, "held")))
	assert.Equal(t, ErrUnknown, GetErrorCode(stderrors.New("plain")))
}

func TestIs_MatchesByCode(t *testing.T) {
	a := New(ErrOutputConflict, "first")
	b := New(ErrOutputConflict, "second")
	c := New(ErrRename, "other")
	assert.True(t, stderrors.Is(a, b))
	assert.False(t, stderrors.Is(a, c))
}

func TestWithDetail(t *testing.T) {
	err := New(ErrOutputConflict, "collide").
		WithDetail("output", "/dots/settings.json").
		WithDetail("count", 2)

	require.NotNil(t, err.Details)
	assert.Equal(t, "/dots/settings.json", err.Details["output"])
	assert.Equal(t, 2, err.Details["count"])
}

func TestIsStructural(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want bool
	}{
		{ErrNestedFilteredDir, true},
		{ErrDirBaseMarker, true},
		{ErrOutputConflict, true},
		{ErrAmbiguousOverlay, true},
		{ErrFormatParse, false},
		{ErrFileWrite, false},
		{ErrLockHeld, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, IsStructural(New(tt.code, "x")))
		})
	}
	assert.False(t, IsStructural(stderrors.New("plain")))
}
