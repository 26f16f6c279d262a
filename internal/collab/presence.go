package collab

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/driftboard/canvas/backend-go/internal/document"
)

// presenceSet maps user id to what that user is pointing at. It is only
// touched from the hub goroutine.
type presenceSet map[string]*PresencePayload

func (ps presenceSet) update(userID string, p *PresencePayload) {
	ps[userID] = p
}

func (ps presenceSet) remove(userID string) {
	delete(ps, userID)
}

// prune drops selected ids that no longer exist in doc.
func (ps presenceSet) prune(doc *document.Document) {
	for _, p := range ps {
		p.Selection = slices.DeleteFunc(p.Selection, func(id string) bool { return !doc.Has(id) })
	}
}

func (ps presenceSet) stateMessage() *Message {
	msg, err := newMessage(TypePresenceState, PresenceStatePayload{Presences: maps.Clone(ps)})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return msg
}
