package domain

import "context"

type LastConnectionRepository interface {
	SaveLastConnection(ctx context.Context, l LastConnection) error
	// LoadLastConnection returns ok=false when nothing is stored and
	// ErrMalformedRecord when the stored value cannot be decoded.
	LoadLastConnection(ctx context.Context) (l LastConnection, ok bool, err error)
}

type ConnectionHistoryRepository interface {
	Touch(ctx context.Context, l LastConnection) error
	ListRecent(ctx context.Context, limit int) ([]ConnectionHistoryEntry, error)
}
