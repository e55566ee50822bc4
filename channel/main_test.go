package channel

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// TestMain fails the package if any test leaves a goroutine parked in Send
// or Receive.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	blockedFor = 50 * time.Millisecond
	wakeWithin = 2 * time.Second
)

// returnsWithin fails the test unless done is closed within d.
func returnsWithin(t *testing.T, d time.Duration, done <-chan struct{}) {
	t.Helper()

	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("still blocked after %s", d)
	}
}

// staysBlocked fails the test if done is closed within blockedFor.
func staysBlocked(t *testing.T, done <-chan struct{}) {
	t.Helper()

	select {
	case <-done:
		t.Fatal("returned while it should block")
	case <-time.After(blockedFor):
	}
}

func mustNew[T any](t testing.TB, capacity int, opts ...Option) *Channel[T] {
	t.Helper()

	ch, err := New[T](capacity, opts...)
	require.NoError(t, err)
	return ch
}
