package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/starford/vaultgate/internal/apperr"
	"github.com/starford/vaultgate/internal/search"
)

const guiInitialDelay = 100 * time.Millisecond

// contextLength reads the contextLength query parameter; -1 selects the default.
func contextLength(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("contextLength"))
	if err != nil || n < 0 {
		return -1
	}
	return n
}

// SearchSimple handles POST /search/simple/.
//
//	@Summary		Plain-text search
//	@Tags			search
//	@Produce		json
//	@Param			query			query		string	true	"Search text"
//	@Param			contextLength	query		int		false	"Context runes on each side (default 100)"
//	@Success		200				{array}		search.Result
//	@Security		BearerAuth
//	@Router			/search/simple/ [post]
func (h *Handler) SearchSimple(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("query")
	results, err := search.Simple(r.Context(), h.vault, search.NewTokenScorer(q), contextLength(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// SearchStructured handles POST /search/.
//
//	@Summary		JSON Logic search over note metadata
//	@Tags			search
//	@Accept			application/vnd.olrapi.jsonlogic+json
//	@Produce		json
//	@Success		200	{array}		search.Match
//	@Failure		400	{object}	CannedResponse
//	@Security		BearerAuth
//	@Router			/search/ [post]
func (h *Handler) SearchStructured(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r)
	if body.MediaType != mediaJSONLogic || body.Kind != BodyJSON {
		writeCanned(w, 0, apperr.ContentTypeSpecificationRequired, "")
		return
	}
	matches, err := search.Structured(r.Context(), h.vault, body.JSON)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

// SearchGUI handles POST /search/gui/.
//
//	@Summary		Search through the background search view
//	@Tags			search
//	@Produce		json
//	@Param			query			query		string	true	"Search text"
//	@Param			contextLength	query		int		false	"Context runes on each side (default 100)"
//	@Success		200				{array}		search.GUIResult
//	@Security		BearerAuth
//	@Router			/search/gui/ [post]
func (h *Handler) SearchGUI(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("query")
	results, err := h.gui.Search(r.Context(), q, contextLength(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}
