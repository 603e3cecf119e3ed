package board

import "context"

// Entry is one normalized load posting. The pipeline treats everything but
// LoadID as opaque display payload.
type Entry struct {
	LoadID       string
	Distance     string
	PickupTime   string
	DeliveryTime string
	Stops        []string
	StateCode    string
	RouteURL     string
}

// Source fetches the current batch of candidate entries from a load board.
// Batches arrive newest-first; failure is uniform regardless of cause
// (network, parse, auth).
type Source interface {
	FetchCandidates(ctx context.Context) ([]Entry, error)
}
