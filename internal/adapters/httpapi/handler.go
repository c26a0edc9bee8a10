package httpapi

import (
	"context"
	"mime"
	"net/http"

	"github.com/mikey/contact-relay/internal/core"
	"github.com/mikey/contact-relay/internal/logging"
	"go.uber.org/zap"
)

// TokenField is the form field the Turnstile widget submits
const TokenField = "cf-turnstile-response"

const defaultMultipartMemory = 32 << 20

// Submitter runs a contact submission through the pipeline
type Submitter interface {
	Submit(ctx context.Context, clientAddr string, in core.FormInput) error
}

// ContactHandler serves the contact form endpoint
type ContactHandler struct {
	service      Submitter
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewContactHandler creates a new contact handler
func NewContactHandler(service Submitter, maxBodyBytes int64, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		service:      service,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

func (h *ContactHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		writeNoContent(w)
		return
	case http.MethodPost:
	default:
		writeError(w, core.ErrMethodNotAllowed)
		return
	}

	logger := logging.FromContext(r.Context(), h.logger)

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	// An unreadable body behaves like an empty form
	if err := h.parseForm(r); err != nil {
		logger.Info("Could not parse form body", zap.Error(err))
	}

	in := core.FormInput{
		Name:    postValue(r, "name"),
		Email:   postValue(r, "email"),
		Message: postValue(r, "message"),
		Token:   postValue(r, TokenField),
	}

	if err := h.service.Submit(r.Context(), clientAddress(r), in); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}

func (h *ContactHandler) parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		maxMemory := h.maxBodyBytes
		if maxMemory <= 0 {
			maxMemory = defaultMultipartMemory
		}
		return r.ParseMultipartForm(maxMemory)
	}
	return r.ParseForm()
}

func postValue(r *http.Request, key string) string {
	if r.PostForm == nil {
		return ""
	}
	return r.PostForm.Get(key)
}
