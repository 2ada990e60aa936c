package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/common"
	"github.com/ternarybob/kotae/internal/models"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Zoomヘルプ</title><script>var tracking = 1;</script></head>
<body>
<nav>ホーム | ログイン</nav>
<main>
  <h2>録画の保存先</h2>
  <p>クラウド録画は<strong>ウェブポータル</strong>から確認できます。</p>
  <img src="/img/portal.png" alt="ポータル画面">
  <img src="data:image/png;base64,AAAA">
</main>
<footer>Copyright</footer>
</body>
</html>`

func newTestWebsiteLoader() *WebsiteLoader {
	cfg := common.NewDefaultConfig().Crawler
	cfg.RequestsPerSecond = 0
	cfg.RequestTimeout = 5 * time.Second
	return NewWebsiteLoader(cfg, arbor.NewLogger())
}

func TestWebsiteLoader_Load(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/help":
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(samplePage))
		case "/notes.txt":
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.Write([]byte(" plain notes \n"))
		case "/file.zip":
			w.Header().Set("Content-Type", "application/zip")
			w.Write([]byte("PK"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := newTestWebsiteLoader()
	ctx := context.Background()

	t.Run("HTML main content", func(t *testing.T) {
		loaded, err := loader.Load(ctx, models.SourceDescriptor{URL: server.URL + "/help", FileName: "Zoomヘルプ"})
		require.NoError(t, err)

		assert.Contains(t, loaded.Content, "Zoomヘルプ")
		assert.Contains(t, loaded.Content, "録画の保存先")
		assert.Contains(t, loaded.Content, "ウェブポータル")
		assert.NotContains(t, loaded.Content, "ログイン")
		assert.NotContains(t, loaded.Content, "tracking")
		assert.NotContains(t, loaded.Content, "Copyright")

		require.Len(t, loaded.Images, 1)
		assert.Equal(t, server.URL+"/img/portal.png", loaded.Images[0].URL)
		assert.Equal(t, "portal.png", loaded.Images[0].FileName)
		assert.Equal(t, "ポータル画面", loaded.Images[0].Description)
		assert.Equal(t, "Zoomヘルプ", loaded.Images[0].Source)
	})

	t.Run("Plain text", func(t *testing.T) {
		loaded, err := loader.Load(ctx, models.SourceDescriptor{URL: server.URL + "/notes.txt"})
		require.NoError(t, err)
		assert.Equal(t, "plain notes", loaded.Content)
	})

	t.Run("Binary content is unsupported", func(t *testing.T) {
		_, err := loader.Load(ctx, models.SourceDescriptor{URL: server.URL + "/file.zip"})
		assert.ErrorIs(t, err, ErrUnsupportedSource)
	})

	t.Run("HTTP error", func(t *testing.T) {
		_, err := loader.Load(ctx, models.SourceDescriptor{URL: server.URL + "/missing"})
		assert.Error(t, err)
	})
}

type fakeRenderer struct {
	html string
	urls []string
}

func (f *fakeRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	f.urls = append(f.urls, pageURL)
	return f.html, nil
}

func TestWebsiteLoader_UsesRenderer(t *testing.T) {
	renderer := &fakeRenderer{html: samplePage}
	loader := newTestWebsiteLoader()
	loader.renderer = renderer

	loaded, err := loader.Load(context.Background(), models.SourceDescriptor{URL: "https://support.example.com/help"})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://support.example.com/help"}, renderer.urls)
	assert.Equal(t, "https://support.example.com/img/portal.png", loaded.Images[0].URL)
}
