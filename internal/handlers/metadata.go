package handlers

import (
	"net/http"

	"github.com/dreamware/csync/internal/store"
	"github.com/dreamware/csync/internal/types"
)

// GetMetadata implements GET /metadata?…: owner is forced to the caller's
// name unless the caller is admin.
func (h *Handlers) GetMetadata(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())

	q, err := parseMetadataQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if !user.Admin {
		q.Owner = user.Name
		q.HasOwner = true
	}

	var items []types.Metadata
	var total uint64
	err = h.DB.WithTx(r.Context(), func(tx store.Tx) error {
		var err error
		items, err = tx.GetMetadatas(r.Context(), q)
		if err != nil {
			return err
		}
		total, err = tx.CountMetadatas(r.Context(), q)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []types.Metadata{}
	}

	writeData(w, listData[types.Metadata]{Items: items, Total: total})
}

func parseMetadataQuery(r *http.Request) (types.MetadataQuery, error) {
	var q types.MetadataQuery

	if v, ok, err := queryUint64Optional(r, "id"); err != nil {
		return q, err
	} else if ok {
		q.ID, q.HasID = v, true
	}

	if owner := r.URL.Query().Get("owner"); owner != "" {
		q.Owner, q.HasOwner = owner, true
	}

	if sha256 := r.URL.Query().Get("sha256"); sha256 != "" {
		q.SHA256, q.HasSHA256 = sha256, true
	}

	if v, ok, err := queryUint64Optional(r, "recycle_before"); err != nil {
		return q, err
	} else if ok {
		q.RecycleBefore, q.HasRecycleBefore = v, true
	}

	base, err := parseBaseQuery(r)
	if err != nil {
		return q, err
	}
	q.Query = base
	return q, nil
}
