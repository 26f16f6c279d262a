package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/gorilla/mux"

	"github.com/driftboard/canvas/backend-go/internal/asset"
	"github.com/driftboard/canvas/backend-go/internal/document"
)

// Documents is where the endpoints read and replace live documents.
type Documents interface {
	Snapshot(ctx context.Context, documentID string) (*document.Document, error)
	Replace(ctx context.Context, documentID string, doc *document.Document) error
}

// Images stores the files image nodes refer to.
type Images interface {
	Read(key string) ([]byte, error)
	Write(key string, data []byte) error
}

type Handler struct {
	docs     Documents
	images   Images
	maxBytes int64
}

func NewHandler(docs Documents, images Images, maxBytes int64) *Handler {
	return &Handler{docs: docs, images: images, maxBytes: maxBytes}
}

type importResponse struct {
	DocumentID string   `json:"documentId"`
	Nodes      int      `json:"nodes"`
	Images     []string `json:"images"`
}

// Export handles GET /documents/{documentId}/archive.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	doc, err := h.docs.Snapshot(r.Context(), documentID)
	if err != nil {
		slog.Error("export snapshot", "error", err, "document", documentID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	images := h.collectImages(doc)
	var buf bytes.Buffer
	if err := Pack(&buf, doc, images); err != nil {
		slog.Error("pack archive", "error", err, "document", documentID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.zip"`, documentID))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// collectImages reads every stored asset an image node points at. Sources
// outside the asset store are left as references.
func (h *Handler) collectImages(doc *document.Document) map[string][]byte {
	images := map[string][]byte{}
	doc.Walk(func(n *document.Node, _ int) bool {
		if n.Type != document.NodeTypeImage {
			return true
		}
		key, ok := asset.KeyFromSrc(n.Src)
		if !ok {
			return true
		}
		if _, done := images[key]; done {
			return true
		}
		data, err := h.images.Read(key)
		if err != nil {
			slog.Warn("skip missing image", "error", err, "node", n.ID)
			return true
		}
		images[key] = data
		return true
	})
	return images
}

// Import handles POST /documents/{documentId}/archive. The body is a ZIP
// produced by Export; its document replaces the live one.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	documentID := mux.Vars(r)["documentId"]

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "archive too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "failed to read body"})
		return
	}

	arc, err := Unpack(bytes.NewReader(body), int64(len(body)), h.maxBytes)
	if err != nil {
		handleArchiveError(w, err)
		return
	}

	keys := slices.Sorted(maps.Keys(arc.Images))
	for _, key := range keys {
		if err := h.images.Write(key, arc.Images[key]); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
	}

	if err := h.docs.Replace(r.Context(), documentID, arc.Document); err != nil {
		slog.Error("replace document", "error", err, "document", documentID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	slog.Info("archive imported", "document", documentID, "nodes", arc.Document.Len(), "images", len(keys))
	writeJSON(w, http.StatusOK, importResponse{
		DocumentID: documentID,
		Nodes:      arc.Document.Len(),
		Images:     keys,
	})
}

func handleArchiveError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrTooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": err.Error()})
		return
	}
	slog.Debug("reject archive", "error", err)
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
