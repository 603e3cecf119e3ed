package poster

import (
	"math/rand"
	"time"
)

// retryDelay is the wait after failed attempt i (0-indexed):
// base * 2^i plus up to one second of jitter against thundering-herd
// retries.
func retryDelay(base time.Duration, attempt int) time.Duration {
	d := base << uint(attempt)
	return d + time.Duration(rand.Int63n(int64(time.Second)))
}
