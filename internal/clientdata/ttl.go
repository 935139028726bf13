package clientdata

import "time"

// TTL constants added to time.Now() when storing to calculate expires_at.
const (
	// TTLPriceHistory covers a trading day: daily bars only change after
	// the close.
	TTLPriceHistory = 12 * time.Hour

	// CleanupSchedule runs the cleanup job daily at 03:00.
	CleanupSchedule = "0 0 3 * * *"
)
