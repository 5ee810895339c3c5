package control

import (
	"testing"

	"go.uber.org/goleak"
)

// The combinators are synchronous; no test in this package may leave a
// goroutine behind.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
