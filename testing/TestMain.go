package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("BANKDASH_TEST_MODE", "1")
		if os.Getenv("BANK_API_URL") == "" {
			_ = os.Setenv("BANK_API_URL", "http://127.0.0.1:0/api/v1/bank")
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
