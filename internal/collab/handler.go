package collab

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/driftboard/canvas/backend-go/internal/document"
	"github.com/driftboard/canvas/backend-go/internal/engine"
)

// Handler exposes rooms over HTTP: the editing socket plus read-only views
// of the shared snapshot.
type Handler struct {
	hub     *Hub
	origins []string
}

func NewHandler(hub *Hub, origins []string) *Handler {
	return &Handler{hub: hub, origins: origins}
}

type displayListResponse struct {
	DocumentID string               `json:"documentId"`
	ServerSeq  int64                `json:"serverSeq"`
	Commands   []engine.DrawCommand `json:"commands"`
}

// ServeWS handles GET /ws/documents/{documentId}. Connections are anonymous;
// a display name may be passed as ?name=.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	userID := "anon-" + uuid.New().String()[:8]
	displayName := r.URL.Query().Get("name")
	if displayName == "" {
		displayName = "Anonymous"
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := NewClient(h.hub, conn, documentID, uuid.New().String(), userID, displayName)
	h.hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// GetDocument handles GET /documents/{documentId}.
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	var sync DocSyncPayload
	err := h.hub.Do(r.Context(), documentID, func(room *Room) error {
		sync = DocSyncPayload{Document: room.Document(), ServerSeq: room.ServerSeq()}
		return nil
	})
	if err != nil {
		slog.Error("get document", "error", err, "document", documentID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, sync)
}

// GetDisplayList handles GET /documents/{documentId}/display. Snapshots are
// immutable, so the list is compiled off the hub goroutine.
func (h *Handler) GetDisplayList(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	var (
		doc *document.Document
		seq int64
	)
	err := h.hub.Do(r.Context(), documentID, func(room *Room) error {
		doc, seq = room.Document(), room.ServerSeq()
		return nil
	})
	if err != nil {
		slog.Error("get display list", "error", err, "document", documentID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusOK, displayListResponse{
		DocumentID: documentID,
		ServerSeq:  seq,
		Commands:   engine.CompileDisplayList(doc, engine.BuildSceneIndex(doc)),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
