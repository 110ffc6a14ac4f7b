package assistant

import "time"

var testTime = time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
