package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		parsed, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}

	_, err := ParseKind("podcast")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "podcast")

	_, err = ParseKind("")
	assert.Error(t, err)
}

func TestKindDated(t *testing.T) {
	assert.True(t, KindArticle.Dated())
	assert.True(t, KindPublication.Dated())
	assert.False(t, KindEvent.Dated())
}

func TestRecordPending(t *testing.T) {
	rec := Record{Kind: KindArticle, Title: "t", URL: "https://example.org/a"}
	assert.True(t, rec.Pending())

	now := time.Now()
	rec.TimePosted = &now
	assert.False(t, rec.Pending())
}
