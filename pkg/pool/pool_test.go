package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cssvb94/vectorlitedb/pkg/knowledge"
	"github.com/cssvb94/vectorlitedb/pkg/result"
)

func TestConfigureTogglesEnabled(t *testing.T) {
	orig := globalConfig
	defer Configure(orig)

	Configure(Config{Enabled: false, MaxSize: 100})
	assert.False(t, IsEnabled())

	Configure(Config{Enabled: true, MaxSize: 100})
	assert.True(t, IsEnabled())
}

func TestResultSliceRoundTrip(t *testing.T) {
	rs := GetResultSlice()
	assert.Empty(t, rs)
	rs = append(rs, result.SearchResult{Entry: &knowledge.KnowledgeEntry{ID: "a"}, Similarity: 0.9})
	PutResultSlice(rs)

	reused := GetResultSlice()
	assert.Empty(t, reused)
}

func TestResultSliceOverMaxSizeIsDropped(t *testing.T) {
	orig := globalConfig
	defer Configure(orig)
	Configure(Config{Enabled: true, MaxSize: 2})

	big := make([]result.SearchResult, 0, 10)
	PutResultSlice(big) // should not panic, just declines to pool it

	rs := GetResultSlice()
	assert.NotNil(t, rs)
}

func TestVectorRoundTrip(t *testing.T) {
	v := GetVector()
	assert.Empty(t, v)
	v = append(v, 1, 2, 3)
	PutVector(v)

	reused := GetVector()
	assert.Empty(t, reused)
}

func TestDisabledBypassesPool(t *testing.T) {
	orig := globalConfig
	defer Configure(orig)
	Configure(Config{Enabled: false, MaxSize: 100})

	v := GetVector()
	assert.NotNil(t, v)
	PutVector(v) // no-op, must not panic
}
