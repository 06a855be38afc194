package apperr

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	err := Wrap(NotFound(KeyConversationNotFound), "get conversation")
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, KeyConversationNotFound, KeyOf(err))
	assert.True(t, Is(err, KindNotFound))
	assert.False(t, Is(err, KindForbidden))

	stdWrapped := fmt.Errorf("outer: %w", Conflict(KeyConversationExists))
	assert.Equal(t, KindConflict, KindOf(stdWrapped))
}

func TestUnknownErrorIsInternal(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Equal(t, KeyInternal, KeyOf(err))
	assert.False(t, Is(nil, KindInternal))

	internal := Internal(err)
	assert.ErrorIs(t, internal, err)
	assert.Contains(t, internal.Error(), "boom")
}
