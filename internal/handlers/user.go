package handlers

import (
	"net/http"

	"github.com/dreamware/csync/internal/apperr"
	"github.com/dreamware/csync/internal/crypto"
	"github.com/dreamware/csync/internal/store"
	"github.com/dreamware/csync/internal/types"
)

const adminUserName = "admin"

// PutUser implements PUT /user: admin-only user creation.
func (h *Handlers) PutUser(w http.ResponseWriter, r *http.Request) {
	user, _ := UserFromContext(r.Context())
	if !user.Admin {
		writeError(w, apperr.Permission("only admin may create users"))
		return
	}

	name := r.URL.Query().Get("name")
	password := r.URL.Query().Get("password")
	isAdmin, _, err := queryBoolOptional(r, "admin")
	if err != nil {
		writeError(w, err)
		return
	}
	if name == "" || name == adminUserName {
		writeError(w, apperr.Validation("invalid user name %q", name))
		return
	}

	salt, err := crypto.GenerateSalt(h.Cfg.SaltLength)
	if err != nil {
		writeError(w, apperr.Internal(err))
		return
	}
	hash := crypto.HashPassword(password, salt)
	now := h.now()

	err = h.DB.WithTx(r.Context(), func(tx store.Tx) error {
		has, err := tx.HasUser(r.Context(), name)
		if err != nil {
			return err
		}
		if has {
			return apperr.Validation("user already exists")
		}
		return tx.CreateUser(r.Context(), store.CreateUserParams{
			Name: name, PasswordHash: hash, Salt: salt, Admin: isAdmin, UpdateTime: now,
		})
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w)
}

// GetUser implements GET /user?…: non-admins may only see themselves.
func (h *Handlers) GetUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	var q types.UserQuery
	if name := r.URL.Query().Get("name"); name != "" {
		q.Name, q.HasName = name, true
	}
	base, err := parseBaseQuery(r)
	if err != nil {
		writeError(w, err)
		return
	}
	q.Query = base

	if !caller.Admin {
		if !q.HasName || q.Name != caller.Name {
			writeError(w, apperr.Permission("may only look up your own user"))
			return
		}
	}

	var items []types.User
	var total uint64
	err = h.DB.WithTx(r.Context(), func(tx store.Tx) error {
		var err error
		total, err = tx.CountUsers(r.Context(), q)
		if err != nil {
			return err
		}
		items, err = tx.GetUsers(r.Context(), q)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []types.User{}
	}

	writeData(w, listData[types.User]{Items: items, Total: total})
}

// PatchUser implements PATCH /user: self password change, or admin
// password/admin-flag change for any user.
func (h *Handlers) PatchUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, apperr.Validation("missing name"))
		return
	}
	if !caller.Admin && name != caller.Name {
		writeError(w, apperr.Permission("may only patch your own user"))
		return
	}

	isAdmin, hasAdmin, err := queryBoolOptional(r, "admin")
	if err != nil {
		writeError(w, err)
		return
	}
	if !caller.Admin && hasAdmin {
		writeError(w, apperr.Permission("only admin may change the admin flag"))
		return
	}

	password := r.URL.Query().Get("password")
	now := h.now()

	err = h.DB.WithTx(r.Context(), func(tx store.Tx) error {
		has, err := tx.HasUser(r.Context(), name)
		if err != nil {
			return err
		}
		if !has {
			return apperr.NotFound("user %q not found", name)
		}

		params := store.PatchUserParams{Name: name, UpdateTime: now}
		if password != "" {
			salt, err := crypto.GenerateSalt(h.Cfg.SaltLength)
			if err != nil {
				return apperr.Internal(err)
			}
			hash := crypto.HashPassword(password, salt)
			params.PasswordHash, params.Salt = &hash, &salt
		}
		if hasAdmin {
			params.Admin = &isAdmin
		}

		return tx.UpdateUser(r.Context(), params)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w)
}

// DeleteUser implements DELETE /user?name=…: admin, or self-deletion.
func (h *Handlers) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, _ := UserFromContext(r.Context())

	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, apperr.Validation("missing name"))
		return
	}
	if !caller.Admin && name != caller.Name {
		writeError(w, apperr.Permission("may only delete your own user"))
		return
	}

	err := h.DB.WithTx(r.Context(), func(tx store.Tx) error {
		has, err := tx.HasUser(r.Context(), name)
		if err != nil {
			return err
		}
		if !has {
			return apperr.NotFound("user %q not found", name)
		}
		return tx.DeleteUser(r.Context(), name)
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w)
}
