package resolver

import (
	"net/http"
	"net/http/cookiejar"

	"golang.org/x/net/publicsuffix"
)

// NewSessionClient returns an HTTP client with a cookie jar. Sharing it
// between the resolver and the downloader lets a scraped media URL be
// fetched with the session cookies its page set.
func NewSessionClient() *http.Client {
	// cookiejar.New never returns an error.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return &http.Client{Jar: jar}
}
