package budget

import "time"

// timeNow is swapped out by tests to drive the rate limiter deterministically.
var timeNow = time.Now
