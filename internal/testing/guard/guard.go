package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("RECORDS_TEST_MODE") == "" {
			_ = os.Setenv("RECORDS_TEST_MODE", "1")
		}
	})
}
