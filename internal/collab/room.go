package collab

import (
	"time"

	"github.com/driftboard/canvas/backend-go/internal/config"
	"github.com/driftboard/canvas/backend-go/internal/document"
	"github.com/driftboard/canvas/backend-go/internal/engine"
)

// maxLogEntries bounds the per-room command history.
const maxLogEntries = 1000

// replaceCommand marks whole-document replacements in the log.
const replaceCommand = "document.replace"

// LogEntry is one accepted document change.
type LogEntry struct {
	ServerSeq int64
	UserID    string
	Command   engine.Command
	At        time.Time
}

// Room holds the authoritative snapshot of one document and an editing
// session per connected client. All sessions share the room's snapshot;
// each keeps its own selection and view.
type Room struct {
	documentID string
	cfg        config.Engine

	doc       *document.Document
	serverSeq int64
	log       []LogEntry

	clients  map[string]*Client
	sessions map[string]*engine.Session
	presence presenceSet
}

func newRoom(documentID string, cfg config.Engine, doc *document.Document) *Room {
	return &Room{
		documentID: documentID,
		cfg:        cfg,
		doc:        doc,
		clients:    make(map[string]*Client),
		sessions:   make(map[string]*engine.Session),
		presence:   make(presenceSet),
	}
}

func (r *Room) DocumentID() string { return r.documentID }

// Document returns the current snapshot.
func (r *Room) Document() *document.Document { return r.doc }

func (r *Room) ServerSeq() int64 { return r.serverSeq }

// Log returns the retained command history, oldest first.
func (r *Room) Log() []LogEntry {
	out := make([]LogEntry, len(r.log))
	copy(out, r.log)
	return out
}

func (r *Room) session(clientID string) *engine.Session {
	s, ok := r.sessions[clientID]
	if !ok {
		s = engine.NewSession(r.cfg, r.doc)
		r.sessions[clientID] = s
	}
	s.Sync(r.doc)
	return s
}

// apply runs cmd in the client's session. It reports whether the shared
// snapshot changed.
func (r *Room) apply(clientID, userID string, cmd engine.Command) (engine.Result, bool, error) {
	s := r.session(clientID)
	res, err := s.Apply(cmd)
	if err != nil {
		return engine.Result{}, false, err
	}
	if s.Document() == r.doc {
		return res, false, nil
	}
	r.commit(s.Document(), userID, cmd)
	return res, true, nil
}

func (r *Room) commit(doc *document.Document, userID string, cmd engine.Command) {
	r.doc = doc
	r.serverSeq++
	r.log = append(r.log, LogEntry{ServerSeq: r.serverSeq, UserID: userID, Command: cmd, At: time.Now()})
	if len(r.log) > maxLogEntries {
		r.log = r.log[len(r.log)-maxLogEntries:]
	}
	r.presence.prune(doc)
}

// Replace swaps in a whole new snapshot, as an archive import does.
func (r *Room) Replace(doc *document.Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	r.commit(doc, "", engine.Command{Type: replaceCommand})
	for _, s := range r.sessions {
		if err := s.Load(doc); err != nil {
			return err
		}
	}
	return nil
}
