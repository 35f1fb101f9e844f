package testing

import (
	"os"
	stdtesting "testing"

	// The guard's init sets the test-mode latch before any package code runs.
	_ "github.com/ledgerdesk/ledgerdesk/internal/testing/guard"
)

func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
