// Package archive bundles a document and its image assets into a single
// ZIP file and reads such bundles back.
//
// Layout:
//
//	manifest.json   Manifest
//	document.json   the document
//	images/<key>    raw image bytes, one entry per asset
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"maps"
	"path"
	"slices"
	"strings"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/webp"

	"github.com/driftboard/canvas/backend-go/internal/document"
)

const (
	ManifestFile = "manifest.json"
	DocumentFile = "document.json"
	ImagesDir    = "images/"
	Version      = "1"
)

var (
	ErrMissingManifest = errors.New("archive has no manifest")
	ErrMissingDocument = errors.New("archive has no document")
	ErrTooLarge        = errors.New("archive exceeds size limit")
	ErrInvalidImageKey = errors.New("invalid image key")
	ErrManifestImage   = errors.New("image does not match manifest")
)

// ImageInfo describes one image asset. Every field is best effort; Ext and
// MIME come from content sniffing and fall back to the key's extension.
type ImageInfo struct {
	Ext    string `json:"ext,omitempty"`
	MIME   string `json:"mime,omitempty"`
	Bytes  int    `json:"bytes"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

type Manifest struct {
	DocumentFile string `json:"document_file"`
	Version      string `json:"version,omitempty"`
	// Images is keyed by the asset key without its extension.
	Images map[string]ImageInfo `json:"images,omitempty"`
}

// Archive is an unpacked bundle.
type Archive struct {
	Manifest Manifest
	Document *document.Document
	// Images is keyed by the entry name under images/.
	Images map[string][]byte
}

// Describe sniffs data and probes its pixel dimensions.
func Describe(key string, data []byte) ImageInfo {
	info := ImageInfo{Bytes: len(data)}
	if ext := path.Ext(key); ext != "" {
		info.Ext = strings.TrimPrefix(ext, ".")
	}
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown {
		info.Ext = kind.Extension
		info.MIME = kind.MIME.Value
	}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		info.Width, info.Height = cfg.Width, cfg.Height
	}
	return info
}

func indexKey(key string) string {
	return strings.TrimSuffix(key, path.Ext(key))
}

func validKey(key string) bool {
	return key != "" && !strings.Contains(key, "/") && key != "." && key != ".."
}

// Pack writes doc and images to w. The document is validated first so a
// broken document is never archived.
func Pack(w io.Writer, doc *document.Document, images map[string][]byte) error {
	if err := doc.Validate(); err != nil {
		return fmt.Errorf("pack: %w", err)
	}

	manifest := Manifest{DocumentFile: DocumentFile, Version: Version}
	keys := slices.Sorted(maps.Keys(images))
	if len(keys) > 0 {
		manifest.Images = make(map[string]ImageInfo, len(keys))
	}
	for _, key := range keys {
		if !validKey(key) {
			return fmt.Errorf("pack: %w: %q", ErrInvalidImageKey, key)
		}
		manifest.Images[indexKey(key)] = Describe(key, images[key])
	}

	zw := zip.NewWriter(w)
	if err := writeZipJSON(zw, ManifestFile, manifest); err != nil {
		return err
	}
	if err := writeZipJSON(zw, DocumentFile, doc); err != nil {
		return err
	}
	for _, key := range keys {
		f, err := zw.Create(ImagesDir + key)
		if err != nil {
			return fmt.Errorf("pack image %s: %w", key, err)
		}
		if _, err := f.Write(images[key]); err != nil {
			return fmt.Errorf("pack image %s: %w", key, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("pack: %w", err)
	}

	slog.Debug("archive packed", "document", doc.ID, "nodes", doc.Len(), "images", len(keys))
	return nil
}

func writeZipJSON(zw *zip.Writer, name string, v any) error {
	f, err := zw.Create(name)
	if err != nil {
		return fmt.Errorf("pack %s: %w", name, err)
	}
	if err := json.NewEncoder(f).Encode(v); err != nil {
		return fmt.Errorf("pack %s: %w", name, err)
	}
	return nil
}

// Unpack reads an archive produced by Pack. The total uncompressed size of
// all entries must not exceed maxBytes when maxBytes is positive.
func Unpack(r io.ReaderAt, size, maxBytes int64) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("unpack: %w", err)
	}

	var total uint64
	entries := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		total += f.UncompressedSize64
		entries[f.Name] = f
	}
	if maxBytes > 0 && total > uint64(maxBytes) {
		return nil, fmt.Errorf("unpack: %w: %d > %d bytes", ErrTooLarge, total, maxBytes)
	}

	mf, ok := entries[ManifestFile]
	if !ok {
		return nil, ErrMissingManifest
	}
	raw, err := readEntry(mf)
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return nil, fmt.Errorf("unpack %s: %w", ManifestFile, err)
	}
	if manifest.DocumentFile == "" {
		manifest.DocumentFile = DocumentFile
	}

	df, ok := entries[manifest.DocumentFile]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingDocument, manifest.DocumentFile)
	}
	raw, err = readEntry(df)
	if err != nil {
		return nil, err
	}
	doc, err := document.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("unpack: %w", err)
	}

	images := map[string][]byte{}
	for name, f := range entries {
		key, ok := strings.CutPrefix(name, ImagesDir)
		if !ok || key == "" {
			continue
		}
		if !validKey(key) {
			return nil, fmt.Errorf("unpack: %w: %q", ErrInvalidImageKey, name)
		}
		data, err := readEntry(f)
		if err != nil {
			return nil, err
		}
		if info, listed := manifest.Images[indexKey(key)]; listed && info.Bytes != len(data) {
			return nil, fmt.Errorf("unpack %s: %w: %d bytes, manifest says %d", name, ErrManifestImage, len(data), info.Bytes)
		}
		images[key] = data
	}

	slog.Debug("archive unpacked", "document", doc.ID, "nodes", doc.Len(), "images", len(images))
	return &Archive{Manifest: manifest, Document: doc, Images: images}, nil
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", f.Name, err)
	}
	return data, nil
}
