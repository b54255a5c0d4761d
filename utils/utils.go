package utils

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/glamour"
	apperrors "github.com/nijaru/yt-summary/errors"
	"github.com/sirupsen/logrus"
)

func HandleError(w http.ResponseWriter, message string, statusCode int) {
	RespondWithJSON(w, statusCode, map[string]string{"error": message})
}

// RespondWithError maps err to its status code and public message. The full
// error only goes to the log.
func RespondWithError(w http.ResponseWriter, logger logrus.FieldLogger, err error) {
	code := apperrors.StatusCode(err)

	entry := logger.WithFields(logrus.Fields{
		"status_code": code,
		"kind":        apperrors.KindOf(err).String(),
	}).WithError(err)
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	HandleError(w, apperrors.PublicMessage(err), code)
}

// RespondWithJSON writes payload without HTML escaping so markdown in
// summaries reaches the caller byte for byte.
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"` + apperrors.GenericMessage + `"}` + "\n"))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}

// RenderMarkdown renders a summary or answer for the terminal.
func RenderMarkdown(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(markdown)
}
