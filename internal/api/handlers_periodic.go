package api

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
)

type vaultAction func(h *Handler, w http.ResponseWriter, r *http.Request, p string)

// periodicRoute resolves the current note of the {period} URL parameter and
// hands it to action. create makes the note when it does not exist yet.
func (h *Handler) periodicRoute(create bool, action vaultAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.periodic.Resolve(r.Context(), chi.URLParam(r, "period"), create)
		if err != nil {
			writeError(w, err)
			return
		}
		w.Header().Set("Content-Location", (&url.URL{Path: p}).EscapedPath())
		action(h, w, r, p)
	}
}

// PeriodicGet handles GET /periodic/{period}/.
//
//	@Summary		Read the current periodic note
//	@Tags			periodic
//	@Param			period	path	string	true	"daily, weekly, monthly, quarterly or yearly"
//	@Success		200
//	@Failure		400	{object}	CannedResponse
//	@Failure		404	{object}	CannedResponse
//	@Security		BearerAuth
//	@Router			/periodic/{period}/ [get]
func (h *Handler) PeriodicGet(w http.ResponseWriter, r *http.Request) {
	h.periodicRoute(false, (*Handler).vaultGet)(w, r)
}

// PeriodicPut handles PUT /periodic/{period}/.
//
//	@Summary		Replace the current periodic note, creating it if needed
//	@Tags			periodic
//	@Accept			text/markdown
//	@Param			period	path	string	true	"Period"
//	@Success		204
//	@Security		BearerAuth
//	@Router			/periodic/{period}/ [put]
func (h *Handler) PeriodicPut(w http.ResponseWriter, r *http.Request) {
	h.periodicRoute(true, (*Handler).vaultPut)(w, r)
}

// PeriodicPost handles POST /periodic/{period}/.
//
//	@Summary		Append to the current periodic note, creating it if needed
//	@Tags			periodic
//	@Accept			text/markdown
//	@Param			period	path	string	true	"Period"
//	@Success		204
//	@Security		BearerAuth
//	@Router			/periodic/{period}/ [post]
func (h *Handler) PeriodicPost(w http.ResponseWriter, r *http.Request) {
	h.periodicRoute(true, (*Handler).vaultPost)(w, r)
}

// PeriodicPatch handles PATCH /periodic/{period}/.
//
//	@Summary		Insert into the current periodic note relative to a heading
//	@Tags			periodic
//	@Accept			text/markdown
//	@Param			period	path	string	true	"Period"
//	@Success		200
//	@Security		BearerAuth
//	@Router			/periodic/{period}/ [patch]
func (h *Handler) PeriodicPatch(w http.ResponseWriter, r *http.Request) {
	h.periodicRoute(true, (*Handler).vaultPatch)(w, r)
}

// PeriodicDelete handles DELETE /periodic/{period}/.
//
//	@Summary		Delete the current periodic note
//	@Tags			periodic
//	@Param			period	path	string	true	"Period"
//	@Success		204
//	@Security		BearerAuth
//	@Router			/periodic/{period}/ [delete]
func (h *Handler) PeriodicDelete(w http.ResponseWriter, r *http.Request) {
	h.periodicRoute(false, (*Handler).vaultDelete)(w, r)
}
