package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/ternarybob/kotae/internal/common"
	"github.com/ternarybob/kotae/internal/httpclient"
	"github.com/ternarybob/kotae/internal/models"
)

// maxPageImages caps the images collected from one page
const maxPageImages = 10

// Renderer returns the HTML of a page after client-side rendering
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

// ChromeRenderer renders pages with a headless Chrome instance per call
type ChromeRenderer struct {
	userAgent string
	wait      time.Duration
	timeout   time.Duration
}

func NewChromeRenderer(userAgent string, wait, timeout time.Duration) *ChromeRenderer {
	return &ChromeRenderer{userAgent: userAgent, wait: wait, timeout: timeout}
}

func (r *ChromeRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(r.userAgent),
	)

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocatorCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	defer browserCancel()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		browserCtx, cancel = context.WithTimeout(browserCtx, r.timeout)
		defer cancel()
	}

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(r.wait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", pageURL, err)
	}
	return html, nil
}

// WebsiteLoader fetches a web page and converts its main content to markdown
type WebsiteLoader struct {
	client    *http.Client
	limiter   *rate.Limiter
	renderer  Renderer
	userAgent string
	maxBody   int64
	logger    arbor.ILogger
}

// NewWebsiteLoader creates a loader from crawler settings. JavaScript rendering
// uses chromedp when enabled.
func NewWebsiteLoader(cfg common.CrawlerConfig, logger arbor.ILogger) *WebsiteLoader {
	l := &WebsiteLoader{
		client:    httpclient.NewDefaultHTTPClient(cfg.RequestTimeout),
		userAgent: cfg.UserAgent,
		maxBody:   cfg.MaxBodySize,
		logger:    logger,
	}
	if cfg.RequestsPerSecond > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	if cfg.EnableJavaScript {
		l.renderer = NewChromeRenderer(cfg.UserAgent, cfg.JavaScriptWaitTime, cfg.RequestTimeout)
	}
	return l
}

func (l *WebsiteLoader) Load(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
	if l.limiter != nil {
		if err := l.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	if l.renderer != nil {
		html, err := l.renderer.Render(ctx, src.URL)
		if err != nil {
			return nil, err
		}
		return ExtractPage(html, src.URL, src.DisplayName())
	}

	dl, err := httpclient.Get(ctx, l.client, src.URL, l.userAgent, l.maxBody)
	if err != nil {
		return nil, err
	}

	if strings.HasPrefix(dl.ContentType, "text/plain") {
		return &models.LoadedContent{Content: strings.TrimSpace(string(dl.Body))}, nil
	}
	if !strings.Contains(dl.ContentType, "html") {
		return nil, fmt.Errorf("%w: %s has content type %s", ErrUnsupportedSource, src.URL, dl.ContentType)
	}

	l.logger.Debug().Str("url", src.URL).Int("bytes", len(dl.Body)).Msg("Fetched web page")
	return ExtractPage(string(dl.Body), dl.FinalURL, src.DisplayName())
}

// ExtractPage selects the main content of an HTML page, converts it to markdown
// and collects its images with absolute urls.
func ExtractPage(html, pageURL, source string) (*models.LoadedContent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page url %q: %w", pageURL, err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	doc.Find("script, style, noscript, iframe, nav, header, footer, aside").Remove()

	mainContent := doc.Find("main, article, [role=main]").First()
	if mainContent.Length() == 0 {
		mainContent = doc.Find("body")
	}

	var images []models.ImageDescriptor
	mainContent.Find("img[src]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		src, _ := s.Attr("src")
		if src == "" || strings.HasPrefix(src, "data:") {
			return true
		}
		ref, err := url.Parse(src)
		if err != nil {
			return true
		}
		abs := base.ResolveReference(ref)
		alt, _ := s.Attr("alt")
		images = append(images, models.ImageDescriptor{
			Source:      source,
			FileName:    pathBase(abs.Path),
			Position:    fmt.Sprintf("image %d", len(images)+1),
			Description: strings.TrimSpace(alt),
			Kind:        models.ImageKindEmbedded,
			URL:         abs.String(),
		})
		return len(images) < maxPageImages
	})

	mainHTML, err := goquery.OuterHtml(mainContent)
	if err != nil {
		return nil, fmt.Errorf("failed to serialise main content: %w", err)
	}

	converter := md.NewConverter(base.Host, true, nil)
	markdown, err := converter.ConvertString(mainHTML)
	if err != nil {
		return nil, fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	content := strings.TrimSpace(markdown)
	if title != "" && !strings.Contains(content, title) {
		content = title + "\n\n" + content
	}

	return &models.LoadedContent{Content: content, Images: images}, nil
}

func pathBase(p string) string {
	if i := strings.LastIndex(p, "/"); i >= 0 {
		p = p[i+1:]
	}
	if p == "" {
		return "image"
	}
	return p
}
