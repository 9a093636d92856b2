package repository

import (
	"context"

	"github.com/m2tx/dialogue_archiver/internal/model"
)

// DialogueRepository defines persistence operations for archived dialogue.
type DialogueRepository interface {
	// Insert stores a new session document.
	Insert(ctx context.Context, doc model.SessionDocument) error

	// AppendTurn pushes turn onto the dialogue of the first document whose
	// session id matches. It reports whether a document matched; no document
	// is created when none does.
	AppendTurn(ctx context.Context, sessionID string, turn model.Turn) (bool, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
