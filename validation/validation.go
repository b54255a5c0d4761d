package validation

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/nijaru/yt-summary/errors"
)

// VideoIDFromURL returns the video identifier carried in the "v" query
// parameter of a youtube.com watch URL.
func VideoIDFromURL(rawURL string) (string, error) {
	const op = "validation.VideoIDFromURL"

	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", errors.InvalidInput(op, nil, "URL is required")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.InvalidInput(op, err, "Invalid YouTube URL")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", errors.InvalidInput(op, nil, "Invalid YouTube URL")
	}

	if !isWatchPage(parsedURL) {
		return "", errors.InvalidInput(op, nil, "Not a YouTube video page")
	}

	videoID := parsedURL.Query().Get("v")
	if videoID == "" {
		return "", errors.InvalidInput(op, nil, "Invalid YouTube URL")
	}
	return videoID, nil
}

func isWatchPage(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	if host != "youtube.com" && !strings.HasSuffix(host, ".youtube.com") {
		return false
	}
	return strings.TrimSuffix(u.Path, "/") == "/watch"
}

// BearerToken returns the credential from an Authorization header value: the
// second space-separated field, or "" when there is none.
func BearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

type RequestValidationOpts struct {
	MaxContentLength int64
	AllowedMethods   []string
	RequireJSON      bool
	// TooLargeMessage replaces the default message for oversized bodies.
	TooLargeMessage string
}

func ValidateRequest(r *http.Request, opts RequestValidationOpts) error {
	const op = "validation.ValidateRequest"

	if len(opts.AllowedMethods) > 0 {
		methodAllowed := false
		for _, method := range opts.AllowedMethods {
			if r.Method == method {
				methodAllowed = true
				break
			}
		}
		if !methodAllowed {
			return errors.InvalidInput(op, nil, fmt.Sprintf("Method %s not allowed", r.Method))
		}
	}

	if opts.RequireJSON {
		if contentType := r.Header.Get("Content-Type"); !strings.Contains(contentType, "application/json") {
			return errors.InvalidInput(op, nil, "Content-Type must be application/json")
		}
	}

	if opts.MaxContentLength > 0 && r.ContentLength > opts.MaxContentLength {
		msg := opts.TooLargeMessage
		if msg == "" {
			msg = "Request body too large"
		}
		return errors.InvalidInput(op, nil, msg)
	}

	return nil
}
