// Package documents extracts plain text from uploaded files and web pages.
package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"

	"edu-gate/internal/models"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrContentTooShort     = errors.New("extracted text is too short")
	ErrEmptyDocument       = errors.New("document is empty")
	ErrInvalidURL          = errors.New("invalid URL")
	ErrFetchFailed         = errors.New("failed to fetch content from URL")
)

const (
	// MinPageTextLength is the shortest web page text accepted.
	MinPageTextLength = 100

	defaultFetchTimeout = 15 * time.Second
	maxPageBytes        = 10 * 1024 * 1024
	userAgent           = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Boilerplate elements dropped before the fallback extraction.
const noiseSelectors = "script, style, nav, footer, header, aside, iframe, noscript"

// Main content candidates for the fallback extraction, in priority order.
var contentSelectors = []string{"main", "article", ".content", ".article", ".post-content", "#content", "#main", "body"}

// Document is text extracted from a single source.
type Document struct {
	Text             string
	Title            string
	SourceType       string
	SourceIdentifier string
}

// Source describes the document for the trust classifier.
func (d *Document) Source() *models.ContentSource {
	return &models.ContentSource{
		SourceType:       d.SourceType,
		SourceIdentifier: d.SourceIdentifier,
		Title:            d.Title,
	}
}

type Processor struct {
	httpClient *http.Client
}

func NewProcessor(timeout time.Duration) *Processor {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Processor{httpClient: &http.Client{Timeout: timeout}}
}

// SourceType maps a filename to its source type by extension.
func SourceType(filename string) (string, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), ".")); ext {
	case models.SourcePDF, models.SourceText, models.SourceDocx:
		return ext, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, ext)
	}
}

// ExtractFile returns the text of an uploaded PDF, TXT or DOCX file.
func (p *Processor) ExtractFile(filename string, data []byte) (*Document, error) {
	sourceType, err := SourceType(filename)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	var text string
	switch sourceType {
	case models.SourcePDF:
		text, err = extractPDF(data)
	case models.SourceText:
		text, err = extractText(data)
	case models.SourceDocx:
		text, err = extractDocx(data)
	}
	if err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyDocument
	}

	logrus.WithFields(logrus.Fields{
		"file":  filename,
		"type":  sourceType,
		"chars": utf8.RuneCountInString(text),
	}).Info("Extracted document text")

	return &Document{
		Text:             text,
		Title:            strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename)),
		SourceType:       sourceType,
		SourceIdentifier: filename,
	}, nil
}

func extractPDF(data []byte) (string, error) {
	doc, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to extract text from PDF: %w", err)
	}

	textReader, err := doc.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text from PDF: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, textReader); err != nil {
		return "", fmt.Errorf("failed to extract text from PDF: %w", err)
	}
	return buf.String(), nil
}

func extractText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", errors.New("failed to decode text file: not valid UTF-8")
	}
	return string(data), nil
}

// FetchURL downloads a web page and returns its main text.
func (p *Processor) FetchURL(ctx context.Context, rawURL string) (*Document, error) {
	pageURL, err := url.Parse(rawURL)
	if err != nil || pageURL.Host == "" || (pageURL.Scheme != "http" && pageURL.Scheme != "https") {
		return nil, fmt.Errorf("%w %q", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrInvalidURL, rawURL, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP error %d: %s", ErrFetchFailed, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}

	title, text := extractPage(body, pageURL)
	if utf8.RuneCountInString(text) < MinPageTextLength {
		return nil, fmt.Errorf("%w: the page might not have loaded properly", ErrContentTooShort)
	}

	logrus.WithFields(logrus.Fields{"url": rawURL, "chars": utf8.RuneCountInString(text)}).Info("Extracted page text")
	return &Document{
		Text:             text,
		Title:            title,
		SourceType:       models.SourceWebPage,
		SourceIdentifier: rawURL,
	}, nil
}

// extractPage prefers the readability article and falls back to the first
// main-content element when readability finds too little.
func extractPage(body []byte, pageURL *url.URL) (string, string) {
	var title, text string
	if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
		title = strings.TrimSpace(article.Title)
		text = collapseWhitespace(article.TextContent)
	}
	if utf8.RuneCountInString(text) >= MinPageTextLength {
		return title, text
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return title, text
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	doc.Find(noiseSelectors).Remove()

	for _, sel := range contentSelectors {
		if node := doc.Find(sel).First(); node.Length() > 0 {
			if fallback := collapseWhitespace(node.Text()); len(fallback) > len(text) {
				text = fallback
			}
			break
		}
	}
	return title, text
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
