package api

import (
	"context"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/starford/vaultgate/internal/apperr"
)

// Media types with dedicated handling.
const (
	mediaNoteJSON  = "application/vnd.olrapi.note+json"
	mediaJSONLogic = "application/vnd.olrapi.jsonlogic+json"
	mediaMarkdown  = "text/markdown; charset=UTF-8"
)

const maxBodyBytes = 10 << 20

// BodyKind says how a request body was decoded.
type BodyKind int

const (
	BodyNone BodyKind = iota
	BodyText
	BodyJSON
	BodyRaw
)

// Body is a request body decoded once by BodyParser.
type Body struct {
	Kind      BodyKind
	MediaType string
	Text      string
	// JSON holds the decoded value; Data the standardized JSON bytes.
	JSON any
	Data []byte
}

type bodyKey struct{}

func isJSONMedia(mt string) bool {
	return mt == "application/json" || mt == mediaNoteJSON || mt == mediaJSONLogic
}

// BodyParser decodes the request body by Content-Type: text/* as text,
// the JSON types as JSON (comments and trailing commas allowed) and any
// other application/* type as raw bytes.
func BodyParser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := &Body{}
		ct := r.Header.Get("Content-Type")
		if ct == "" || r.Body == nil {
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), bodyKey{}, body)))
			return
		}
		mt, _, err := mime.ParseMediaType(ct)
		if err != nil {
			writeCanned(w, 0, apperr.ContentTypeSpecificationRequired, err.Error())
			return
		}
		body.MediaType = mt

		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			writeCanned(w, http.StatusRequestEntityTooLarge, 0, err.Error())
			return
		}

		switch {
		case strings.HasPrefix(mt, "text/"):
			body.Kind = BodyText
			body.Text = string(data)
		case isJSONMedia(mt):
			if len(data) == 0 {
				break
			}
			std, err := hujson.Standardize(data)
			if err != nil {
				writeCanned(w, 0, apperr.InvalidContentForContentType, err.Error())
				return
			}
			if err := json.Unmarshal(std, &body.JSON); err != nil {
				writeCanned(w, 0, apperr.InvalidContentForContentType, err.Error())
				return
			}
			body.Kind = BodyJSON
			body.Data = std
		case strings.HasPrefix(mt, "application/"):
			body.Kind = BodyRaw
			body.Data = data
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), bodyKey{}, body)))
	})
}

// bodyFrom returns the parsed body of r, or an empty one.
func bodyFrom(r *http.Request) *Body {
	if b, ok := r.Context().Value(bodyKey{}).(*Body); ok {
		return b
	}
	return &Body{}
}

// requireText returns the body text, or TextOrByteContentEncodingRequired
// when the body was not sent as text/*.
func requireText(r *http.Request) (string, error) {
	b := bodyFrom(r)
	if b.Kind != BodyText {
		return "", apperr.New(apperr.TextOrByteContentEncodingRequired, "")
	}
	return b.Text, nil
}
