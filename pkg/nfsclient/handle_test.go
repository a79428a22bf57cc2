package nfsclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleClone(t *testing.T) {
	t.Run("IndependentBytes", func(t *testing.T) {
		orig := Handle{1, 2, 3, 4}
		clone := orig.Clone()
		clone[0] = 0xff
		assert.Equal(t, Handle{1, 2, 3, 4}, orig)
	})

	t.Run("NilStaysNil", func(t *testing.T) {
		var h Handle
		assert.Nil(t, h.Clone())
	})

	t.Run("Equality", func(t *testing.T) {
		assert.True(t, Handle{1, 2}.Equal(Handle{1, 2}))
		assert.False(t, Handle{1, 2}.Equal(Handle{1, 3}))
		assert.False(t, Handle{1, 2}.Equal(Handle{1, 2, 3}))
	})
}

// TestResolverReturnsOwnedHandles: the handle a resolve produces is
// detached from the mount's own state and from the scratch buffer.
func TestResolverReturnsOwnedHandles(t *testing.T) {
	s := newFakeServer(t)
	r := testRegistry(t, s)
	mustMount(t, r, s)

	m, err := r.lookupMount("nfs")
	require.NoError(t, err)

	m.mu.Lock()
	fh, err := m.resolvePath("/", false)
	m.mu.Unlock()
	require.NoError(t, err)
	require.True(t, fh.Equal(m.rootFH))

	fh[0] ^= 0xff
	assert.False(t, fh.Equal(m.rootFH), "mutating a resolved handle must not touch the mount root")
}
