package resolver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// maxPageBytes caps how much of a TikTok page is parsed.
const maxPageBytes = 8 << 20

var tiktokDomains = []string{"tiktok.com"}

// Script element ids TikTok uses to embed page state.
const (
	rehydrationScriptID = "__UNIVERSAL_DATA_FOR_REHYDRATION__"
	sigiStateScriptID   = "SIGI_STATE"
)

// TikTok resolves tiktok.com page and short links. A configured
// tikwm-compatible API is asked first because its URLs can be fetched
// without a browser session. Scraping the embedded player state of the
// video page is the fallback; the URLs it yields are only fetchable with the
// cookies the page set, so the client should carry a jar shared with the
// downloader (see NewSessionClient).
type TikTok struct {
	client    *http.Client
	apiURL    string
	userAgent string
	domains   []string
	logger    *slog.Logger
}

func NewTikTok(client *http.Client, apiURL, userAgent string, logger *slog.Logger) *TikTok {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TikTok{
		client:    client,
		apiURL:    apiURL,
		userAgent: userAgent,
		domains:   tiktokDomains,
		logger:    logger,
	}
}

// Matches reports whether rawURL points at a TikTok host.
func (t *TikTok) Matches(rawURL string) bool {
	return hostMatches(rawURL, t.domains)
}

func (t *TikTok) Resolve(ctx context.Context, rawURL string) (string, error) {
	if !t.Matches(rawURL) {
		return rawURL, nil
	}

	t.logger.InfoContext(ctx, "resolving tiktok url", slog.String("url", rawURL))

	var apiErr error
	if t.apiURL != "" {
		mediaURL, err := t.lookup(ctx, rawURL)
		if err == nil {
			t.logger.InfoContext(ctx, "tiktok url resolved by api", slog.String("url", rawURL))
			return mediaURL, nil
		}
		apiErr = err
		t.logger.WarnContext(ctx, "tiktok resolution api failed",
			slog.String("url", rawURL),
			slog.Any("error", err))
	}

	pageURL, mediaURL, err := t.scrape(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("%w for %s: %v", ErrUnresolvable, rawURL, errors.Join(apiErr, err))
	}
	t.logger.InfoContext(ctx, "tiktok url resolved from page", slog.String("page", pageURL))
	return mediaURL, nil
}

// scrape follows short-link redirects to the canonical video page and reads
// the play address out of the embedded page state. The canonical page URL is
// returned even when no media URL is found.
func (t *TikTok) scrape(ctx context.Context, rawURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", "", err
	}
	if t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	pageURL := resp.Request.URL.String()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pageURL, "", fmt.Errorf("fetch page: %s", resp.Status)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return pageURL, "", fmt.Errorf("parse page: %w", err)
	}

	videoID := videoIDFromPath(resp.Request.URL.Path)
	if state := scriptText(doc, rehydrationScriptID); state != "" {
		if u := playAddrFromRehydration(state); usableMediaURL(u) {
			return pageURL, u, nil
		}
	}
	if state := scriptText(doc, sigiStateScriptID); state != "" {
		if u := playAddrFromSigiState(state, videoID); usableMediaURL(u) {
			return pageURL, u, nil
		}
	}
	return pageURL, "", errors.New("no play address in page state")
}

type tiktokItem struct {
	Video struct {
		PlayAddr     string `json:"playAddr"`
		DownloadAddr string `json:"downloadAddr"`
	} `json:"video"`
}

func (i tiktokItem) mediaURL() string {
	if i.Video.PlayAddr != "" {
		return i.Video.PlayAddr
	}
	return i.Video.DownloadAddr
}

type rehydrationState struct {
	DefaultScope struct {
		VideoDetail struct {
			ItemInfo struct {
				ItemStruct tiktokItem `json:"itemStruct"`
			} `json:"itemInfo"`
		} `json:"webapp.video-detail"`
	} `json:"__DEFAULT_SCOPE__"`
}

type sigiState struct {
	ItemModule map[string]tiktokItem `json:"ItemModule"`
}

func playAddrFromRehydration(raw string) string {
	var state rehydrationState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return ""
	}
	return state.DefaultScope.VideoDetail.ItemInfo.ItemStruct.mediaURL()
}

func playAddrFromSigiState(raw, videoID string) string {
	var state sigiState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return ""
	}
	if item, ok := state.ItemModule[videoID]; ok && item.mediaURL() != "" {
		return item.mediaURL()
	}
	for _, item := range state.ItemModule {
		if u := item.mediaURL(); u != "" {
			return u
		}
	}
	return ""
}

// videoIDFromPath extracts <id> from /@user/video/<id>.
func videoIDFromPath(p string) string {
	dir, id := path.Split(strings.TrimSuffix(p, "/"))
	if path.Base(strings.TrimSuffix(dir, "/")) != "video" {
		return ""
	}
	return id
}

func scriptText(n *html.Node, id string) string {
	if n.Type == html.ElementNode && n.Data == "script" {
		for _, attr := range n.Attr {
			if attr.Key == "id" && attr.Val == id {
				var b strings.Builder
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type == html.TextNode {
						b.WriteString(c.Data)
					}
				}
				return strings.TrimSpace(b.String())
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := scriptText(c, id); text != "" {
			return text
		}
	}
	return ""
}

type lookupResponse struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data struct {
		Play   string `json:"play"`
		HDPlay string `json:"hdplay"`
	} `json:"data"`
}

// lookup asks the resolution API for the media behind a page or short link.
func (t *TikTok) lookup(ctx context.Context, pageURL string) (string, error) {
	base, err := url.Parse(t.apiURL)
	if err != nil {
		return "", fmt.Errorf("resolver api url: %w", err)
	}
	q := base.Query()
	q.Set("url", pageURL)
	q.Set("hd", "1")
	base.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolver api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("resolver api: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("resolver api: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var out lookupResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("resolver api: decode response: %w", err)
	}
	if out.Code != 0 {
		return "", fmt.Errorf("resolver api: code %d: %s", out.Code, out.Msg)
	}

	for _, candidate := range []string{out.Data.HDPlay, out.Data.Play} {
		if candidate == "" {
			continue
		}
		ref, err := url.Parse(candidate)
		if err != nil {
			continue
		}
		// Some deployments answer with paths relative to the API host.
		if abs := base.ResolveReference(ref).String(); usableMediaURL(abs) {
			return abs, nil
		}
	}
	return "", errors.New("resolver api: response has no play url")
}
