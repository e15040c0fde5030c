// Package testing switches the process into test mode when blank-imported.
package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("AIRTRACK_TEST_MODE", "1")
		// Keep tests off the public Open-Meteo endpoints.
		for _, key := range []string{"GEOCODING_URL", "AIR_QUALITY_URL"} {
			if os.Getenv(key) == "" {
				_ = os.Setenv(key, "http://127.0.0.1:0")
			}
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
