// Package transcript pulls the caption text for a YouTube video out of its
// public watch page.
//
// The caption descriptor is located with a text anchor inside inline script
// data. That structure is internal to YouTube and changes without notice, so
// the anchor format is versioned (CaptionFormatVersion) and every failure is
// reported as an extraction error that names the phase it happened in.
package transcript

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	apperrors "github.com/nijaru/yt-summary/errors"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// CaptionFormatVersion identifies the page layout the anchor pattern targets.
const CaptionFormatVersion = "captions-anchor/v1"

const (
	DefaultBaseURL = "https://www.youtube.com"
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/127.0.0.0 Safari/537.36"
	maxBodySize    = 6 * 1024 * 1024
)

// Extraction phases, used as the Op of returned errors.
const (
	PhaseFetchPage  = "fetch page"
	PhaseLocate     = "locate captions"
	PhaseParse      = "parse captions"
	PhaseTracks     = "select track"
	PhaseFetchTrack = "fetch track"
)

var (
	captionsRE  = regexp.MustCompile(`"captions":\s*({.+?})\s*,\s*"videoDetails"`)
	hexEscapeRE = regexp.MustCompile(`\\x([0-9A-Fa-f]{2})`)
	tagRE       = regexp.MustCompile(`<[^>]*>`)
)

type CaptionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind,omitempty"`
	Name         struct {
		SimpleText string `json:"simpleText"`
	} `json:"name"`
}

type captionsData struct {
	PlayerCaptionsTracklistRenderer *struct {
		CaptionTracks []CaptionTrack `json:"captionTracks"`
	} `json:"playerCaptionsTracklistRenderer"`
}

type Result struct {
	VideoID string
	Title   string
	Track   CaptionTrack
	Text    string
}

type Extractor struct {
	client  *http.Client
	baseURL string
	logger  *logrus.Logger
}

type Option func(*Extractor)

func WithHTTPClient(client *http.Client) Option {
	return func(e *Extractor) {
		e.client = client
	}
}

// WithBaseURL points the extractor at a different watch-page host.
func WithBaseURL(baseURL string) Option {
	return func(e *Extractor) {
		e.baseURL = strings.TrimRight(baseURL, "/")
	}
}

func WithLogger(logger *logrus.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		client:  http.DefaultClient,
		baseURL: DefaultBaseURL,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Transcript returns the plain text of the first caption track of videoID.
func (e *Extractor) Transcript(ctx context.Context, videoID string) (string, error) {
	res, err := e.Extract(ctx, videoID)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (e *Extractor) Extract(ctx context.Context, videoID string) (*Result, error) {
	res, err := e.extract(ctx, videoID)
	if err != nil {
		e.logger.WithError(err).WithField("video_id", videoID).Error("Transcript extraction failed")
		return nil, errors.Wrap(err, "failed to get transcript")
	}
	return res, nil
}

func (e *Extractor) extract(ctx context.Context, videoID string) (*Result, error) {
	logger := e.logger.WithField("video_id", videoID)

	watchURL := e.baseURL + "/watch?" + url.Values{"v": {videoID}}.Encode()
	page, err := e.get(ctx, watchURL)
	if err != nil {
		return nil, apperrors.Extraction(PhaseFetchPage, err, "page fetch failure")
	}
	logger.WithField("size", len(page)).Debug("Fetched watch page")

	raw, ok := FindCaptions(page)
	if !ok {
		return nil, apperrors.Extraction(PhaseLocate, nil, "no transcript data found")
	}

	tracks, err := ParseCaptionTracks(raw)
	if err != nil {
		logger.WithFields(logrus.Fields{
			"format": CaptionFormatVersion,
			"raw":    raw,
		}).WithError(err).Error("Raw caption data")
		return nil, apperrors.Extraction(PhaseParse, err, "parse failure")
	}
	if len(tracks) == 0 {
		return nil, apperrors.Extraction(PhaseTracks, nil, "no caption tracks")
	}

	track := tracks[0]
	logger.WithFields(logrus.Fields{
		"language": track.LanguageCode,
		"kind":     track.Kind,
		"tracks":   len(tracks),
	}).Debug("Selected caption track")

	content, err := e.get(ctx, track.BaseURL)
	if err != nil {
		return nil, apperrors.Extraction(PhaseFetchTrack, err, "caption fetch failure")
	}

	return &Result{
		VideoID: videoID,
		Title:   PageTitle(page),
		Track:   track,
		Text:    StripTags(content),
	}, nil
}

func (e *Extractor) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// FindCaptions returns the caption descriptor bounded by the "captions" and
// "videoDetails" anchors.
func FindCaptions(page string) (string, bool) {
	m := captionsRE.FindStringSubmatch(page)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// DecodeHexEscapes turns \xHH sequences, which are not valid JSON, into the
// characters they encode.
func DecodeHexEscapes(s string) string {
	return hexEscapeRE.ReplaceAllStringFunc(s, func(m string) string {
		v, err := strconv.ParseUint(m[2:], 16, 8)
		if err != nil {
			return m
		}
		return string(rune(v))
	})
}

// ParseCaptionTracks decodes the captured descriptor into its track list, in
// page order. A missing list is returned as empty, not as an error.
func ParseCaptionTracks(raw string) ([]CaptionTrack, error) {
	var data captionsData
	if err := json.Unmarshal([]byte(DecodeHexEscapes(raw)), &data); err != nil {
		return nil, err
	}
	if data.PlayerCaptionsTracklistRenderer == nil {
		return nil, nil
	}
	return data.PlayerCaptionsTracklistRenderer.CaptionTracks, nil
}

// StripTags removes every <...> tag. Entities and whitespace are left alone.
func StripTags(s string) string {
	return tagRE.ReplaceAllString(s, "")
}

// PageTitle reads the video title from the watch page, or "" when absent.
func PageTitle(page string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	if title, ok := doc.Find(`meta[name="title"]`).Attr("content"); ok && title != "" {
		return title
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	return strings.TrimSuffix(title, " - YouTube")
}
