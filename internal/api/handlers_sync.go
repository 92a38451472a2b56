package api

import (
	"context"
	"net/http"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type syncQuery struct {
	Query       string `json:"query"`
	FieldDomain string `json:"field_domain"`
}

func (q syncQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Query, validation.Required),
		validation.Field(&q.FieldDomain, validation.In("0", "1")),
	)
}

// SearchUID handles POST /search/uid/.
//
//	@Summary		Sync the scratch document into the QA document for a UID
//	@Tags			sync
//	@Produce		json
//	@Param			query			query		string	true	"Element UID"
//	@Param			field_domain	query		int		false	"Section to replace: 0 question, 1 answer"
//	@Success		200				{object}	uidsync.Result
//	@Failure		400				{object}	CannedResponse
//	@Failure		505				{object}	CannedResponse
//	@Security		BearerAuth
//	@Router			/search/uid/ [post]
func (h *Handler) SearchUID(w http.ResponseWriter, r *http.Request) {
	q := syncQuery{
		Query:       r.URL.Query().Get("query"),
		FieldDomain: r.URL.Query().Get("field_domain"),
	}
	if err := q.Validate(); err != nil {
		writeCanned(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	domain := 0
	if q.FieldDomain != "" {
		domain, _ = strconv.Atoi(q.FieldDomain)
	}
	// A client disconnect must not abandon a pending title prompt.
	ctx := context.WithoutCancel(r.Context())
	res, err := h.engine.Sync(ctx, h.engine.Request(q.Query, domain))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
