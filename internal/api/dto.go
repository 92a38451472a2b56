package api

import (
	"github.com/starford/vaultgate/internal/commands"
	"github.com/starford/vaultgate/internal/models"
)

// RootResponse is returned by GET /.
type RootResponse struct {
	Status        string   `json:"status" example:"OK" validate:"required"`
	Service       string   `json:"service" example:"vaultgate" validate:"required"`
	Authenticated bool     `json:"authenticated" validate:"required"`
	Versions      Versions `json:"versions" validate:"required"`
}

// Versions reports the running build.
type Versions struct {
	Self string `json:"self" example:"1.0.0" validate:"required"`
}

// FileListResponse lists the children of a vault directory.
type FileListResponse struct {
	Files []string `json:"files" example:"notes/,readme.md" validate:"required"`
}

// NoteJSON is the note representation served for application/vnd.olrapi.note+json.
type NoteJSON = models.NoteJSON

// CommandListResponse lists the registered commands.
type CommandListResponse struct {
	Commands []commands.Info `json:"commands" validate:"required"`
}

// PromptRequest answers a pending title prompt.
type PromptRequest struct {
	Title string `json:"title" example:"Binary heaps" validate:"required"`
}
