package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/asynkron/liveview/internal/store"
)

// FileInfo represents one document in API responses.
type FileInfo struct {
	ID       string `json:"id"`
	Size     int    `json:"size"`
	Revision uint64 `json:"revision"`
	Created  int64  `json:"created"` // Unix ms
	Updated  int64  `json:"updated"` // Unix ms
}

// ContentResponse represents the merged content response.
type ContentResponse struct {
	Content string     `json:"content"`
	Files   []FileInfo `json:"files"`
}

// FileResponse represents a single document response.
type FileResponse struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Revision uint64 `json:"revision"`
}

// DeleteRequest represents the delete request body.
type DeleteRequest struct {
	FileID string `json:"fileId"`
}

// Content handles GET /api/content: the merged live view plus file metadata.
func (h *Handler) Content(w http.ResponseWriter, r *http.Request) {
	docs := h.store.Snapshot()
	files := make([]FileInfo, len(docs))
	for i, doc := range docs {
		files[i] = FileInfo{
			ID:       doc.ID,
			Size:     doc.Size(),
			Revision: doc.Revision,
			Created:  doc.CreatedAt.UnixMilli(),
			Updated:  doc.UpdatedAt.UnixMilli(),
		}
	}

	h.JSON(w, http.StatusOK, ContentResponse{
		Content: h.store.Merged(),
		Files:   files,
	})
}

// File handles GET /api/file?id=<fileId>: one document's raw content.
func (h *Handler) File(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("id")
	if fileID == "" {
		h.Error(w, http.StatusBadRequest, "id query parameter is required")
		return
	}

	doc, err := h.store.Get(fileID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "file not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	h.JSON(w, http.StatusOK, FileResponse{
		ID:       doc.ID,
		Content:  doc.Content,
		Revision: doc.Revision,
	})
}

// Delete handles POST /api/delete: remove a document by File Id.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	var req DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FileID == "" {
		h.Error(w, http.StatusBadRequest, "fileId is required")
		return
	}

	if err := h.store.Delete(req.FileID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.Error(w, http.StatusNotFound, "file not found")
			return
		}
		h.Error(w, http.StatusInternalServerError, "failed to delete file")
		return
	}

	h.JSON(w, http.StatusOK, map[string]string{"status": "deleted", "fileId": store.SanitizeID(req.FileID)})
}

// Raw handles GET /raw: the merged markdown as plain text.
func (h *Handler) Raw(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.store.Merged()))
}
