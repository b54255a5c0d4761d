package db

import "context"

const summaryKey = "lastSummary"

// SummaryStore keeps the single most recent summary. Each Save replaces the
// previous one.
type SummaryStore struct {
	store *Store
}

func NewSummaryStore(store *Store) *SummaryStore {
	return &SummaryStore{store: store}
}

// Load returns the stored summary, or "" when none has been saved.
func (s *SummaryStore) Load(ctx context.Context) (string, error) {
	summary, _, err := s.store.Get(ctx, summaryKey)
	return summary, err
}

func (s *SummaryStore) Save(ctx context.Context, summary string) error {
	return s.store.Set(ctx, summaryKey, summary)
}
