package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/nijaru/yt-summary/completion"
	"github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/middleware"
	"github.com/nijaru/yt-summary/utils"
	"github.com/nijaru/yt-summary/validation"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	maxRequestBody = 1 << 20

	transcriptTooLong = "Transcript is too long"
)

type summarizeRequest struct {
	Transcript string `json:"transcript"`
}

type summarizeResponse struct {
	Summary string `json:"summary"`
}

type askRequest struct {
	Question string `json:"question"`
	Summary  string `json:"summary"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// RelayHandler forwards summarize and ask requests to the completion API
// using the caller's own credential.
type RelayHandler struct {
	completer          completion.Completer
	maxTranscriptChars int
}

func NewRelayHandler(completer completion.Completer, maxTranscriptChars int) *RelayHandler {
	return &RelayHandler{
		completer:          completer,
		maxTranscriptChars: maxTranscriptChars,
	}
}

// HandleSummarize handles POST /summarize
func (h *RelayHandler) HandleSummarize(w http.ResponseWriter, r *http.Request) {
	const op = "RelayHandler.HandleSummarize"
	logger := middleware.GetLogger(r.Context())

	apiKey, err := apiKeyFromRequest(op, r)
	if err != nil {
		utils.RespondWithError(w, logger, err)
		return
	}

	var req summarizeRequest
	if err := readJSON(w, r, &req, summarizeBodyLimit(h.maxTranscriptChars), transcriptTooLong); err != nil {
		utils.RespondWithError(w, logger, err)
		return
	}

	length := utf8.RuneCountInString(req.Transcript)
	logger = logger.WithField("transcript_length", length)
	if h.maxTranscriptChars > 0 && length > h.maxTranscriptChars {
		utils.RespondWithError(w, logger, errors.InvalidInput(op, nil, transcriptTooLong))
		return
	}

	logger.Info("Forwarding summarize request")
	summary, err := h.completer.Summarize(detach(r), apiKey, req.Transcript)
	if err != nil {
		utils.RespondWithError(w, logger, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, summarizeResponse{Summary: summary})
}

// HandleAsk handles POST /ask
func (h *RelayHandler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	const op = "RelayHandler.HandleAsk"
	logger := middleware.GetLogger(r.Context())

	apiKey, err := apiKeyFromRequest(op, r)
	if err != nil {
		utils.RespondWithError(w, logger, err)
		return
	}

	var req askRequest
	if err := readJSON(w, r, &req, maxRequestBody, ""); err != nil {
		utils.RespondWithError(w, logger, err)
		return
	}

	logger.WithFields(logrus.Fields{
		"summary_length":  utf8.RuneCountInString(req.Summary),
		"question_length": utf8.RuneCountInString(req.Question),
	}).Info("Forwarding ask request")

	answer, err := h.completer.Ask(detach(r), apiKey, req.Summary, req.Question)
	if err != nil {
		utils.RespondWithError(w, logger, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusOK, askResponse{Answer: answer})
}

func apiKeyFromRequest(op string, r *http.Request) (string, error) {
	apiKey := validation.BearerToken(r.Header.Get("Authorization"))
	if apiKey == "" {
		return "", errors.Unauthorized(op, "API key is missing")
	}
	return apiKey, nil
}

// summarizeBodyLimit bounds the request body so that any transcript within
// maxChars fits, even with every character JSON-escaped. Zero means no ceiling
// and no body limit.
func summarizeBodyLimit(maxChars int) int64 {
	if maxChars <= 0 {
		return 0
	}
	limit := int64(maxChars)*6 + 1024
	if limit < maxRequestBody {
		limit = maxRequestBody
	}
	return limit
}

// readJSON decodes the body into v. A positive limit caps the body size and
// oversized bodies are reported with tooLarge.
func readJSON(w http.ResponseWriter, r *http.Request, v interface{}, limit int64, tooLarge string) error {
	const op = "readJSON"

	if err := validation.ValidateRequest(r, validation.RequestValidationOpts{
		MaxContentLength: limit,
		AllowedMethods:   []string{http.MethodPost},
		TooLargeMessage:  tooLarge,
	}); err != nil {
		return err
	}

	body := r.Body
	if limit > 0 {
		body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if pkgerrors.As(err, &maxErr) {
			if tooLarge == "" {
				tooLarge = "Request body too large"
			}
			return errors.InvalidInput(op, err, tooLarge)
		}
		return errors.InvalidInput(op, err, "Invalid JSON format")
	}
	return nil
}

// detach keeps request values but drops the deadline and cancellation.
// Upstream calls run to completion even if the caller goes away.
func detach(r *http.Request) context.Context {
	return context.WithoutCancel(r.Context())
}
