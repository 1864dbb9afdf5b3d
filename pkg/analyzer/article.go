package analyzer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html/charset"
)

// Article is the readable content extracted from an HTML page.
type Article struct {
	URL      string
	Title    string
	Byline   string
	SiteName string
	Text     string
}

// FetchOptions controls how pages are downloaded.
type FetchOptions struct {
	Timeout      time.Duration
	MaxBodyBytes int64
	UserAgent    string
}

// DefaultFetchOptions mirror the config defaults.
var DefaultFetchOptions = FetchOptions{
	Timeout:      30 * time.Second,
	MaxBodyBytes: 10 * 1024 * 1024,
	UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
}

// FetchArticle downloads rawURL and extracts its article text.
func FetchArticle(ctx context.Context, rawURL string, opts FetchOptions) (Article, error) {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return Article{}, fmt.Errorf("parse url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Article{}, fmt.Errorf("create request: %w", err)
	}
	// Some news sites block requests without browser-like headers.
	req.Header.Set("User-Agent", opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")

	client := &http.Client{Timeout: opts.Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("fetch url: status %d", resp.StatusCode)
	}

	if opts.MaxBodyBytes > 0 && resp.ContentLength > opts.MaxBodyBytes {
		return Article{}, fmt.Errorf("content-length %d exceeds limit of %d bytes", resp.ContentLength, opts.MaxBodyBytes)
	}

	var body io.Reader = resp.Body
	if opts.MaxBodyBytes > 0 {
		// Read one byte past the limit so an oversized body is detectable.
		body = io.LimitReader(resp.Body, opts.MaxBodyBytes+1)
	}
	content, err := io.ReadAll(body)
	if err != nil {
		return Article{}, fmt.Errorf("read body: %w", err)
	}
	if opts.MaxBodyBytes > 0 && int64(len(content)) > opts.MaxBodyBytes {
		return Article{}, fmt.Errorf("response body exceeded maximum size of %d bytes", opts.MaxBodyBytes)
	}

	content, err = toUTF8(content, resp.Header.Get("Content-Type"))
	if err != nil {
		return Article{}, err
	}
	return ExtractArticle(content, parsedURL)
}

// toUTF8 decodes pages served in legacy encodings such as Shift_JIS or
// EUC-JP, using the Content-Type header and <meta> declarations.
func toUTF8(content []byte, contentType string) ([]byte, error) {
	if utf8.Valid(content) {
		return content, nil
	}
	r, err := charset.NewReader(bytes.NewReader(content), contentType)
	if err != nil {
		return nil, fmt.Errorf("detect charset: %w", err)
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode charset: %w", err)
	}
	return decoded, nil
}

// ExtractArticle strips furigana from the HTML and runs readability over it.
func ExtractArticle(content []byte, pageURL *url.URL) (Article, error) {
	article, err := readability.FromReader(bytes.NewReader(SanitizeRuby(content)), pageURL)
	if err != nil {
		return Article{}, fmt.Errorf("extract article: %w", err)
	}
	a := Article{
		Title:    article.Title,
		Byline:   article.Byline,
		SiteName: article.SiteName,
		Text:     article.TextContent,
	}
	if pageURL != nil {
		a.URL = pageURL.String()
	}
	return a, nil
}

var (
	// (?s) allows dot to match newlines
	// (?i) makes it case-insensitive
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses (<rp>...</rp>)
// from HTML content. Readability keeps furigana as plain text, which would
// otherwise turn "漢字" into "漢字かんじ" before segmentation.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, []byte{})
	cleaned = reRP.ReplaceAll(cleaned, []byte{})
	return cleaned
}
