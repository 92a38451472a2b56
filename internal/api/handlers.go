package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultgate/internal/apperr"
	"github.com/starford/vaultgate/internal/commands"
	"github.com/starford/vaultgate/internal/events"
	"github.com/starford/vaultgate/internal/metrics"
	"github.com/starford/vaultgate/internal/periodic"
	"github.com/starford/vaultgate/internal/prompt"
	"github.com/starford/vaultgate/internal/search"
	"github.com/starford/vaultgate/internal/uidsync"
	"github.com/starford/vaultgate/internal/vault"
)

// Opener shows a vault file to the operator.
type Opener interface {
	Open(ctx context.Context, path string, newLeaf bool) error
}

// TitleSubmitter answers the pending title prompt of a sync.
type TitleSubmitter interface {
	Submit(title string) error
}

// Deps holds everything the router serves.
type Deps struct {
	Vault    *vault.Service
	Periodic *periodic.Resolver
	View     search.View
	Engine   *uidsync.Engine
	Prompt   TitleSubmitter
	Commands *commands.Registry
	Opener   Opener
	Events   *events.Broker
	Metrics  *metrics.Registry
	Auth     Auth
	// CertName is served from CertFile at GET /<CertName>.
	CertName string
	CertFile string
	Version  string
	GUIPoll  time.Duration
}

// Handler holds API route handlers.
type Handler struct {
	vault    *vault.Service
	periodic *periodic.Resolver
	gui      *search.Panel
	engine   *uidsync.Engine
	prompt   TitleSubmitter
	commands *commands.Registry
	opener   Opener
	auth     Auth
	certName string
	certFile string
	version  string
}

// NewHandler creates a new Handler.
func NewHandler(d Deps) *Handler {
	poll := d.GUIPoll
	if poll <= 0 {
		poll = 2 * time.Second
	}
	return &Handler{
		vault:    d.Vault,
		periodic: d.Periodic,
		gui:      search.NewPanel(d.View, guiInitialDelay, poll),
		engine:   d.Engine,
		prompt:   d.Prompt,
		commands: d.Commands,
		opener:   d.Opener,
		auth:     d.Auth,
		certName: d.CertName,
		certFile: d.CertFile,
		version:  d.Version,
	}
}

// wildcardPath extracts the vault path after the route prefix.
// Supports encoded slashes (e.g. topics%2Fnote.md).
func wildcardPath(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return ""
	}
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}

// Root handles GET /.
//
//	@Summary		Service status
//	@Tags			system
//	@Produce		json
//	@Success		200	{object}	RootResponse
//	@Router			/ [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Status:        "OK",
		Service:       "vaultgate",
		Authenticated: h.auth.Authenticated(r),
		Versions:      Versions{Self: h.version},
	})
}

// Certificate handles GET /<cert_name>.
//
//	@Summary		Download the TLS certificate
//	@Tags			system
//	@Produce		octet-stream
//	@Success		200
//	@Failure		404	{object}	CannedResponse
//	@Router			/{cert_name} [get]
func (h *Handler) Certificate(w http.ResponseWriter, r *http.Request) {
	if h.certFile == "" {
		writeCanned(w, http.StatusNotFound, 0, "")
		return
	}
	data, err := os.ReadFile(h.certFile)
	if err != nil {
		slog.Error("read certificate failed", slog.String("path", h.certFile), slog.String("error", err.Error()))
		writeCanned(w, http.StatusNotFound, 0, "")
		return
	}
	w.Header().Set("Content-Type", `application/octet-stream; filename="`+h.certName+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ListCommands handles GET /commands/.
//
//	@Summary		List commands
//	@Tags			commands
//	@Produce		json
//	@Success		200	{object}	CommandListResponse
//	@Security		BearerAuth
//	@Router			/commands/ [get]
func (h *Handler) ListCommands(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CommandListResponse{Commands: h.commands.List()})
}

// ExecuteCommand handles POST /commands/{id}/.
//
//	@Summary		Run a command
//	@Tags			commands
//	@Param			id	path	string	true	"Command id"
//	@Success		204
//	@Failure		404	{object}	CannedResponse
//	@Failure		500	{object}	CannedResponse
//	@Security		BearerAuth
//	@Router			/commands/{id}/ [post]
func (h *Handler) ExecuteCommand(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.commands.Execute(r.Context(), id); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeCanned(w, http.StatusNotFound, 0, "")
			return
		}
		slog.Error("command failed", slog.String("id", id), slog.String("error", err.Error()))
		writeCanned(w, http.StatusInternalServerError, 0, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Open handles POST /open/*.
//
//	@Summary		Open a file for the operator
//	@Tags			open
//	@Param			path	path	string	true	"File path"
//	@Param			newLeaf	query	bool	false	"Open in a new pane"
//	@Success		200
//	@Security		BearerAuth
//	@Router			/open/{path} [post]
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	newLeaf := r.URL.Query().Get("newLeaf") == "true"
	if err := h.opener.Open(r.Context(), wildcardPath(r), newLeaf); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}

// SubmitPrompt handles POST /prompt/.
//
//	@Summary		Answer the pending title prompt
//	@Tags			sync
//	@Accept			json
//	@Param			body	body	PromptRequest	true	"Title"
//	@Success		204
//	@Failure		400	{object}	CannedResponse
//	@Failure		409	{object}	CannedResponse
//	@Security		BearerAuth
//	@Router			/prompt/ [post]
func (h *Handler) SubmitPrompt(w http.ResponseWriter, r *http.Request) {
	body := bodyFrom(r)
	if body.Kind != BodyJSON {
		writeCanned(w, 0, apperr.ContentTypeSpecificationRequired, "")
		return
	}
	var req PromptRequest
	if err := json.Unmarshal(body.Data, &req); err != nil {
		writeCanned(w, 0, apperr.InvalidContentForContentType, err.Error())
		return
	}
	if err := validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required),
	); err != nil {
		writeCanned(w, http.StatusBadRequest, 0, err.Error())
		return
	}
	if h.prompt == nil {
		writeCanned(w, http.StatusConflict, 0, prompt.ErrNoPending.Error())
		return
	}
	if err := h.prompt.Submit(req.Title); err != nil {
		if errors.Is(err, prompt.ErrNoPending) {
			writeCanned(w, http.StatusConflict, 0, err.Error())
			return
		}
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// EventOpener announces open requests as note.open events.
type EventOpener struct {
	Events *events.Broker
}

func (o EventOpener) Open(_ context.Context, path string, newLeaf bool) error {
	o.Events.Publish(events.Event{Type: "note.open", Data: map[string]any{"path": path, "newLeaf": newLeaf}})
	return nil
}
