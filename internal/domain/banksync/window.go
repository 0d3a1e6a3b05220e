package banksync

import "time"

const (
	// fullWindow is fetched when a caller forces a full re-scan.
	fullWindow = 365 * 24 * time.Hour

	// firstWindow is fetched on the first-ever sync of a connection.
	firstWindow = 90 * 24 * time.Hour

	// lookback is subtracted from the watermark on incremental syncs so that
	// provider-side late-arriving or corrected transactions are re-observed
	// without a full re-scan. Idempotent upserts make the overlap harmless.
	lookback = 7 * 24 * time.Hour
)

// syncWindow computes the fetch range for one account sync.
func syncWindow(lastSync *time.Time, forceFull bool, now time.Time) (from, to time.Time) {
	switch {
	case forceFull:
		from = now.Add(-fullWindow)
	case lastSync != nil:
		from = lastSync.Add(-lookback)
	default:
		from = now.Add(-firstWindow)
	}
	return from, now
}
