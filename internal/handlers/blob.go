package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/dreamware/csync/internal/apperr"
	"github.com/dreamware/csync/internal/crypto"
	"github.com/dreamware/csync/internal/humanize"
	"github.com/dreamware/csync/internal/metrics"
	"github.com/dreamware/csync/internal/store"
	"github.com/dreamware/csync/internal/types"
)

const maxFileModeBits = 0o7777

// PutBlob implements PUT /blob: binary upload with sha256/type/file headers.
func (h *Handlers) PutBlob(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	blobType, ok := types.ParseBlobType(r.Header.Get("X-Csync-Blob-Type"))
	if !ok {
		writeError(w, apperr.Validation("missing or invalid X-Csync-Blob-Type header"))
		return
	}

	wantSHA256 := r.Header.Get("X-Csync-Sha256")
	if wantSHA256 == "" {
		writeError(w, apperr.Validation("missing X-Csync-Sha256 header"))
		return
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, apperr.Validation("read request body: %v", err))
		return
	}

	gotSHA256 := crypto.SHA256Hex(data)
	if gotSHA256 != wantSHA256 {
		writeError(w, apperr.Validation("data sha256 mismatch"))
		return
	}

	var fileName string
	var fileMode uint32
	hasFileField := blobType == types.BlobTypeFile
	if hasFileField {
		fileName = r.Header.Get("X-Csync-File-Name")
		if fileName == "" {
			writeError(w, apperr.Validation("missing X-Csync-File-Name header for file blob"))
			return
		}
		fileMode = parseFileMode(r.Header.Get("X-Csync-File-Mode"))
	}

	summary := deriveSummary(blobType, data, fileName, h.Cfg.TruncateTextWidth)
	updateTime := h.now()
	recycleTime := updateTime + h.Cfg.RecycleSeconds

	params := store.CreateBlobParams{
		Data:         data,
		BlobType:     blobType,
		SHA256:       gotSHA256,
		FileName:     fileName,
		FileMode:     fileMode,
		Owner:        user.Name,
		Summary:      summary,
		UpdateTime:   updateTime,
		RecycleTime:  recycleTime,
		HasFileField: hasFileField,
	}

	var latest types.Metadata
	var total uint64
	err = h.DB.WithTx(r.Context(), func(tx store.Tx) error {
		id, err := tx.CreateBlob(r.Context(), params)
		if err != nil {
			return err
		}
		latest = types.Metadata{
			ID:          id,
			BlobType:    blobType,
			SHA256:      gotSHA256,
			Size:        uint64(len(data)),
			FileName:    fileName,
			FileMode:    fileMode,
			Owner:       user.Name,
			Pin:         false,
			Summary:     summary,
			UpdateTime:  updateTime,
			RecycleTime: recycleTime,
		}
		total, err = tx.CountMetadatas(r.Context(), types.MetadataQuery{})
		return err
	})
	if err != nil {
		h.Log.Error().Err(err).Msg("create blob failed")
		writeError(w, err)
		return
	}

	h.Revision.Grow()
	h.Revision.SetLatest(latest)
	h.Bus.Publish(types.Event{EventType: types.EventPut, Items: []types.Metadata{latest}})
	metrics.BlobPutTotal.Inc()
	metrics.BlobsTotal.Set(float64(total))

	writeOK(w)
}

// PatchBlob implements PATCH /blob: JSON {id, pin}.
func (h *Handlers) PatchBlob(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	id, err := queryUint64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	pin, hasPin, err := queryBoolOptional(r, "pin")
	if err != nil {
		writeError(w, err)
		return
	}

	now := h.now()
	recycleTime := now + h.Cfg.RecycleSeconds

	var patched types.Metadata
	err = h.DB.WithTx(r.Context(), func(tx store.Tx) error {
		has, err := tx.HasBlob(r.Context(), id)
		if err != nil {
			return err
		}
		if !has {
			return apperr.NotFound("blob %d not found", id)
		}

		meta, err := tx.GetMetadata(r.Context(), id)
		if err != nil {
			return err
		}
		if !user.Admin && meta.Owner != user.Name {
			return apperr.NotFound("blob %d not found", id)
		}

		params := store.PatchBlobParams{ID: id, UpdateTime: now, RecycleTime: recycleTime}
		if hasPin {
			params.Pin = &pin
		}
		if err := tx.UpdateBlob(r.Context(), params); err != nil {
			return err
		}

		patched, err = tx.GetMetadata(r.Context(), id)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.Revision.Grow()
	h.Bus.Publish(types.Event{EventType: types.EventUpdate, Items: []types.Metadata{patched}})
	metrics.BlobUpdateTotal.Inc()

	writeOK(w)
}

// GetBlob implements GET /blob?id=…: binary download.
func (h *Handlers) GetBlob(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	id, err := queryUint64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var blob types.Blob
	err = h.DB.WithTx(r.Context(), func(tx store.Tx) error {
		has, err := tx.HasBlob(r.Context(), id)
		if err != nil {
			return err
		}
		if !has {
			return apperr.NotFound("blob %d not found", id)
		}

		if !user.Admin {
			meta, err := tx.GetMetadata(r.Context(), id)
			if err != nil {
				return err
			}
			if meta.Owner != user.Name {
				return apperr.NotFound("blob %d not found", id)
			}
		}

		blob, err = tx.GetBlob(r.Context(), id)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("X-Csync-Sha256", blob.SHA256)
	w.Header().Set("X-Csync-Blob-Type", blob.BlobType.String())
	if blob.BlobType == types.BlobTypeFile {
		w.Header().Set("X-Csync-File-Name", blob.FileName)
		w.Header().Set("X-Csync-File-Mode", strconv.FormatUint(uint64(blob.FileMode), 10))
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(blob.Data)
}

// DeleteBlob implements DELETE /blob?id=….
func (h *Handlers) DeleteBlob(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	id, err := queryUint64(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var deleted types.Metadata
	var total uint64
	err = h.DB.WithTx(r.Context(), func(tx store.Tx) error {
		has, err := tx.HasBlob(r.Context(), id)
		if err != nil {
			return err
		}
		if !has {
			return apperr.NotFound("blob %d not found", id)
		}

		meta, err := tx.GetMetadata(r.Context(), id)
		if err != nil {
			return err
		}
		if !user.Admin && meta.Owner != user.Name {
			return apperr.NotFound("blob %d not found", id)
		}
		deleted = meta

		if err := tx.DeleteBlob(r.Context(), id); err != nil {
			return err
		}
		total, err = tx.CountMetadatas(r.Context(), types.MetadataQuery{})
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	h.Revision.Grow()
	h.Revision.ClearLatest(id)
	h.Bus.Publish(types.Event{EventType: types.EventDelete, Items: []types.Metadata{deleted}})
	metrics.BlobDeleteTotal.Inc()
	metrics.BlobsTotal.Set(float64(total))

	writeOK(w)
}

func deriveSummary(blobType types.BlobType, data []byte, fileName string, width int) string {
	switch blobType {
	case types.BlobTypeText:
		return humanize.TruncateText(string(data), width)
	case types.BlobTypeImage:
		return "<PNG Image, " + humanize.Bytes(uint64(len(data))) + ">"
	case types.BlobTypeFile:
		return "<File, " + fileName + ", " + humanize.Bytes(uint64(len(data))) + ">"
	default:
		return ""
	}
}

func parseFileMode(raw string) uint32 {
	var mode uint32
	for _, c := range raw {
		if c < '0' || c > '9' {
			return 0
		}
		mode = mode*10 + uint32(c-'0')
	}
	if mode > maxFileModeBits {
		return maxFileModeBits
	}
	return mode
}
