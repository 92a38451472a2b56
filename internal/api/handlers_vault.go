package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"path"

	"github.com/starford/vaultgate/internal/vault"
)

// VaultGet handles GET /vault/*.
//
//	@Summary		List a directory or read a file
//	@Tags			vault
//	@Produce		json,text/markdown,application/vnd.olrapi.note+json
//	@Param			path	path		string	true	"File or directory path"
//	@Success		200		{object}	FileListResponse
//	@Failure		404		{object}	CannedResponse
//	@Security		BearerAuth
//	@Router			/vault/{path} [get]
func (h *Handler) VaultGet(w http.ResponseWriter, r *http.Request) {
	h.vaultGet(w, r, wildcardPath(r))
}

// VaultPut handles PUT /vault/*.
//
//	@Summary		Create or replace a file
//	@Tags			vault
//	@Accept			text/markdown
//	@Param			path	path	string	true	"File path"
//	@Success		204
//	@Failure		400	{object}	CannedResponse
//	@Failure		405	{object}	CannedResponse
//	@Security		BearerAuth
//	@Router			/vault/{path} [put]
func (h *Handler) VaultPut(w http.ResponseWriter, r *http.Request) {
	h.vaultPut(w, r, wildcardPath(r))
}

// VaultPost handles POST /vault/*.
//
//	@Summary		Append to a file
//	@Tags			vault
//	@Accept			text/markdown
//	@Param			path	path	string	true	"File path"
//	@Success		204
//	@Failure		400	{object}	CannedResponse
//	@Failure		405	{object}	CannedResponse
//	@Security		BearerAuth
//	@Router			/vault/{path} [post]
func (h *Handler) VaultPost(w http.ResponseWriter, r *http.Request) {
	h.vaultPost(w, r, wildcardPath(r))
}

// VaultPatch handles PATCH /vault/*.
//
//	@Summary		Insert content relative to a heading
//	@Tags			vault
//	@Accept			text/markdown
//	@Produce		text/markdown
//	@Param			path						path	string	true	"File path"
//	@Param			Heading						header	string	true	"Heading path"
//	@Param			Heading-Boundary			header	string	false	"Heading path separator (default ::)"
//	@Param			Content-Insertion-Position	header	string	false	"beginning or end"
//	@Success		200
//	@Failure		400	{object}	CannedResponse
//	@Failure		404	{object}	CannedResponse
//	@Security		BearerAuth
//	@Router			/vault/{path} [patch]
func (h *Handler) VaultPatch(w http.ResponseWriter, r *http.Request) {
	h.vaultPatch(w, r, wildcardPath(r))
}

// VaultDelete handles DELETE /vault/*.
//
//	@Summary		Delete a file
//	@Tags			vault
//	@Param			path	path	string	true	"File path"
//	@Success		204
//	@Failure		404	{object}	CannedResponse
//	@Failure		405	{object}	CannedResponse
//	@Security		BearerAuth
//	@Router			/vault/{path} [delete]
func (h *Handler) VaultDelete(w http.ResponseWriter, r *http.Request) {
	h.vaultDelete(w, r, wildcardPath(r))
}

func (h *Handler) vaultGet(w http.ResponseWriter, r *http.Request, p string) {
	if vault.IsDirPath(p) {
		files, err := h.vault.List(r.Context(), p)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, FileListResponse{Files: files})
		return
	}

	if r.Header.Get("Accept") == mediaNoteJSON {
		note, err := h.vault.Note(r.Context(), p)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSONAs(w, http.StatusOK, mediaNoteJSON, note)
		return
	}

	data, _, err := h.vault.Read(r.Context(), p)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, path.Base(p)))
	w.Header().Set("Content-Type", vault.ContentType(p))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) vaultPut(w http.ResponseWriter, r *http.Request, p string) {
	if err := vault.RequireFile(p); err != nil {
		writeError(w, err)
		return
	}
	text, err := requireText(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.vault.Put(r.Context(), p, []byte(text)); err != nil {
		slog.Error("put failed", slog.String("path", p), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) vaultPost(w http.ResponseWriter, r *http.Request, p string) {
	if err := vault.RequireFile(p); err != nil {
		writeError(w, err)
		return
	}
	text, err := requireText(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.vault.Append(r.Context(), p, []byte(text)); err != nil {
		slog.Error("append failed", slog.String("path", p), slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) vaultPatch(w http.ResponseWriter, r *http.Request, p string) {
	if err := vault.RequireFile(p); err != nil {
		writeError(w, err)
		return
	}
	position, err := vault.ParsePosition(r.Header.Get("Content-Insertion-Position"))
	if err != nil {
		writeError(w, err)
		return
	}
	text, err := requireText(r)
	if err != nil {
		writeError(w, err)
		return
	}
	content, err := h.vault.Patch(r.Context(), p, vault.PatchRequest{
		Heading:  vault.SplitHeading(r.Header.Get("Heading"), r.Header.Get("Heading-Boundary")),
		Position: position,
		Content:  text,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", mediaMarkdown)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

func (h *Handler) vaultDelete(w http.ResponseWriter, r *http.Request, p string) {
	if err := h.vault.Delete(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
