package remote

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

// ErrRemoteStatus reports a decodable response whose envelope status was not
// "success".
var ErrRemoteStatus = errors.New("remote returned non-success status")

// Ports for the remote transaction source. Reads hit the real endpoint;
// mutations are simulated locally (the upstream API exposes no write
// endpoints), but the contract is written so a genuine backend can be
// substituted without touching the store.
type (
	Fetcher interface {
		FetchTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	Creator interface {
		// CreateTransaction returns a copy of tx carrying a freshly
		// assigned unique id.
		CreateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	}

	Updater interface {
		UpdateTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, error)
	}

	Deleter interface {
		// DeleteTransaction acknowledges deletion of the given id.
		DeleteTransaction(ctx context.Context, id string) (string, error)
	}

	// Gateway is the full remote surface consumed by the store.
	Gateway interface {
		Fetcher
		Creator
		Updater
		Deleter
	}
)
