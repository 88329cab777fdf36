package app

import (
	"os"
	"sync"
	"sync/atomic"
)

// Test binaries set MERIDIAN_TEST_MODE=1 (see the root testing package)
// so that code guarded by InTestMode skips side effects such as enqueueing
// background jobs.
const testModeEnv = "MERIDIAN_TEST_MODE"

var testMode struct {
	once sync.Once
	on   atomic.Bool
}

func readTestMode() {
	testMode.on.Store(os.Getenv(testModeEnv) == "1")
}

// InTestMode reports whether the process runs under the test harness.
// The environment is read once and cached.
func InTestMode() bool {
	testMode.once.Do(readTestMode)
	return testMode.on.Load()
}

// RefreshTestMode re-reads the environment, for tests that toggle the
// flag after the first InTestMode call.
func RefreshTestMode() {
	readTestMode()
}
