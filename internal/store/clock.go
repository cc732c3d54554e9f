package store

import "time"

// now is stubbed in tests that need deterministic upload timestamps.
var now = time.Now
