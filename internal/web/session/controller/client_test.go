package controller

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClientEnqueueDropsWhenFullOrClosed(t *testing.T) {
	c := newClient("conn-a", nil, 1)

	require.True(t, c.enqueue([]byte("one")))
	require.False(t, c.enqueue([]byte("two")), "full queue must drop, not block")

	c.close()
	require.False(t, c.enqueue([]byte("three")), "closed queue must drop")

	// idempotent
	c.close()
	require.False(t, c.enqueue([]byte("four")))
}
