package clock

import "time"

const layout = "2006-01-02T15:04:05Z"

// Now returns the current UTC time formatted for API responses.
func Now() string {
	return time.Now().UTC().Format(layout)
}
