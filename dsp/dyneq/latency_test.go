package dyneq

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLatencyNotifierCoalesces(t *testing.T) {
	got := make(chan int, 8)
	release := make(chan struct{})

	n := newLatencyNotifier(func(samples int) {
		got <- samples
		<-release
	})
	defer n.close()

	n.post(1)
	require.Equal(t, 1, <-got)

	// The callback is blocked, so only the newest of these survives.
	n.post(2)
	n.post(3)
	n.post(4)
	close(release)

	require.Equal(t, 4, <-got)
	require.Empty(t, got)
}

func TestLatencyNotifierCloseTwice(t *testing.T) {
	n := newLatencyNotifier(func(int) {})
	n.post(7)
	n.close()
	n.close()
}
