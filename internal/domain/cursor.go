package domain

import "fmt"

// DefaultBatchSize is the feed page size used when the request does not
// specify one.
const DefaultBatchSize = 20

// NextCursor computes the pagination cursor for a ranked batch. An empty
// batch means no further matching posts exist past the current cursor, so
// the feed is done and no cursor is returned. Otherwise the cursor is the id
// of the last entry of the ranked batch.
func NextCursor(feed []RankedEntry) (cursor string, done bool) {
	if len(feed) == 0 {
		return "", true
	}
	return feed[len(feed)-1].ID, false
}

// CacheKey derives the deterministic memoization key for a feed request.
func CacheKey(userID, startAfterID string, batchSize int) string {
	return fmt.Sprintf("%s|%s|%d", userID, startAfterID, batchSize)
}
