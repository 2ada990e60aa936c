package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kotae/internal/models"
)

type listerFunc func(ctx context.Context) ([]models.SourceDescriptor, error)

func (f listerFunc) ListSources(ctx context.Context) ([]models.SourceDescriptor, error) {
	return f(ctx)
}

type loaderFunc func(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error)

func (f loaderFunc) Load(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
	return f(ctx, src)
}

func staticLister(sources ...models.SourceDescriptor) listerFunc {
	return func(ctx context.Context) ([]models.SourceDescriptor, error) {
		return sources, nil
	}
}

func echoLoader() loaderFunc {
	return func(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
		return &models.LoadedContent{Content: "content of " + src.FileName}, nil
	}
}

func namedSources(prefix string, n int) []models.SourceDescriptor {
	sources := make([]models.SourceDescriptor, n)
	for i := range sources {
		sources[i] = models.SourceDescriptor{
			URL:      fmt.Sprintf("https://example.com/%s/%d", prefix, i),
			FileName: fmt.Sprintf("%s-%d", prefix, i),
		}
	}
	return sources
}

func newTestStore(loader loaderFunc, opts ...StoreOption) *Store {
	opts = append([]StoreOption{WithFetchDelay(0)}, opts...)
	return NewStore(loader, arbor.NewLogger(), opts...)
}

func TestStore_NewStoreIsNotInitialized(t *testing.T) {
	store := newTestStore(echoLoader())

	assert.False(t, store.IsInitialized())
	assert.False(t, store.IsRebuilding())
	assert.Empty(t, store.Documents())
	assert.Empty(t, store.Images())

	status := store.Status()
	assert.False(t, status.Initialized)
	assert.Zero(t, status.DocumentCount)
}

func TestStore_Rebuild(t *testing.T) {
	store := newTestStore(echoLoader())
	sources := namedSources("doc", 3)
	sources[1].Classification = "faq"
	sources[1].Remarks = "obs, 配信"

	result, err := store.Rebuild(context.Background(), staticLister(sources...))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Loaded)
	assert.Zero(t, result.Failed)
	assert.True(t, store.IsInitialized())

	docs := store.Documents()
	require.Len(t, docs, 3)
	for i, doc := range docs {
		assert.Equal(t, sources[i].FileName, doc.Source)
		assert.Equal(t, sources[i].URL, doc.URL)
		assert.Equal(t, "content of "+sources[i].FileName, doc.Content)
	}
	assert.Equal(t, "faq", docs[1].Classification)
	assert.Equal(t, "obs, 配信", docs[1].Remarks)

	status := store.Status()
	assert.True(t, status.Initialized)
	assert.Equal(t, 3, status.DocumentCount)
	assert.False(t, status.LastBuildTime.IsZero())
	assert.Empty(t, status.LastError)
}

func TestStore_RebuildRecordsPlaceholderForFailedSource(t *testing.T) {
	loader := loaderFunc(func(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
		if src.FileName == "doc-1" {
			return nil, errors.New("permission denied")
		}
		return &models.LoadedContent{Content: "ok"}, nil
	})
	store := newTestStore(loader)

	result, err := store.Rebuild(context.Background(), staticLister(namedSources("doc", 3)...))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Loaded)
	assert.Equal(t, 1, result.Failed)

	docs := store.Documents()
	require.Len(t, docs, 3)
	assert.Equal(t, "doc-1", docs[1].Source)
	assert.Equal(t, models.DocumentTypeError, docs[1].Type)
	assert.True(t, docs[1].IsError())
	assert.Contains(t, docs[1].Content, "permission denied")
	assert.False(t, docs[0].IsError())
	assert.False(t, docs[2].IsError())
	assert.Equal(t, 1, store.Status().ErrorCount)
}

func TestStore_RebuildWithEmptyListLeavesStoreUntouched(t *testing.T) {
	store := newTestStore(echoLoader())

	_, err := store.Rebuild(context.Background(), staticLister())
	assert.ErrorIs(t, err, ErrNoSources)
	assert.False(t, store.IsInitialized())

	_, err = store.Rebuild(context.Background(), staticLister(namedSources("doc", 2)...))
	require.NoError(t, err)

	_, err = store.Rebuild(context.Background(), staticLister())
	assert.ErrorIs(t, err, ErrNoSources)
	assert.Len(t, store.Documents(), 2)
}

func TestStore_ListerFailureKeepsPreviousCorpus(t *testing.T) {
	store := newTestStore(echoLoader())
	_, err := store.Rebuild(context.Background(), staticLister(namedSources("old", 2)...))
	require.NoError(t, err)

	failing := listerFunc(func(ctx context.Context) ([]models.SourceDescriptor, error) {
		return nil, errors.New("sheet unreachable")
	})
	_, err = store.Rebuild(context.Background(), failing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheet unreachable")

	docs := store.Documents()
	require.Len(t, docs, 2)
	assert.Equal(t, "old-0", docs[0].Source)
	assert.Contains(t, store.Status().LastError, "sheet unreachable")
}

func TestStore_RejectsConcurrentRebuild(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	loader := loaderFunc(func(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
		once.Do(func() { close(started) })
		<-release
		return &models.LoadedContent{Content: "x"}, nil
	})
	store := newTestStore(loader)

	done := make(chan error, 1)
	go func() {
		_, err := store.Rebuild(context.Background(), staticLister(namedSources("doc", 2)...))
		done <- err
	}()

	<-started
	assert.True(t, store.IsRebuilding())
	assert.True(t, store.Status().Rebuilding)

	_, err := store.Rebuild(context.Background(), staticLister(namedSources("other", 1)...))
	assert.ErrorIs(t, err, ErrRebuildInProgress)

	close(release)
	require.NoError(t, <-done)
	assert.False(t, store.IsRebuilding())
	assert.Len(t, store.Documents(), 2)
}

func TestStore_FlattensImages(t *testing.T) {
	loader := loaderFunc(func(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
		return &models.LoadedContent{
			Content: "slides",
			Images: []models.ImageDescriptor{
				{FileName: src.FileName + "-a.png", Position: "image 1", Kind: models.ImageKindEmbedded},
				{FileName: src.FileName + "-b.png", Position: "image 2", Kind: models.ImageKindEmbedded, Source: "explicit"},
			},
		}, nil
	})
	store := newTestStore(loader)

	result, err := store.Rebuild(context.Background(), staticLister(namedSources("deck", 2)...))
	require.NoError(t, err)
	assert.Equal(t, 4, result.ImageCount)

	images := store.Images()
	require.Len(t, images, 4)
	assert.Equal(t, "deck-0-a.png", images[0].FileName)
	assert.Equal(t, "deck-0", images[0].Source)
	assert.Equal(t, "explicit", images[1].Source)
	assert.Equal(t, "deck-1-b.png", images[3].FileName)
	assert.Equal(t, 4, store.Status().ImageCount)
}

func TestStore_PacesFetches(t *testing.T) {
	store := NewStore(echoLoader(), arbor.NewLogger(), WithFetchDelay(30*time.Millisecond))

	start := time.Now()
	_, err := store.Rebuild(context.Background(), staticLister(namedSources("doc", 3)...))
	require.NoError(t, err)

	// First fetch starts immediately, the next two wait one delay each
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestStore_WaitsBetweenSlowFetches(t *testing.T) {
	const delay = 40 * time.Millisecond
	var mu sync.Mutex
	var starts, ends []time.Time
	loader := loaderFunc(func(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
		mu.Lock()
		starts = append(starts, time.Now())
		mu.Unlock()
		time.Sleep(60 * time.Millisecond)
		mu.Lock()
		ends = append(ends, time.Now())
		mu.Unlock()
		return &models.LoadedContent{Content: src.FileName}, nil
	})
	store := NewStore(loader, arbor.NewLogger(), WithFetchDelay(delay))

	_, err := store.Rebuild(context.Background(), staticLister(namedSources("doc", 3)...))
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, starts, 3)
	require.Len(t, ends, 3)
	for i := 0; i+1 < len(starts); i++ {
		t.Run(fmt.Sprintf("gap after fetch %d", i), func(t *testing.T) {
			assert.GreaterOrEqual(t, starts[i+1].Sub(ends[i]), delay)
		})
	}
}

func TestStore_WorkerPoolKeepsSourceOrder(t *testing.T) {
	var inFlight, peak atomic.Int32
	loader := loaderFunc(func(ctx context.Context, src models.SourceDescriptor) (*models.LoadedContent, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return &models.LoadedContent{Content: src.FileName}, nil
	})
	store := newTestStore(loader, WithWorkers(4))

	sources := namedSources("doc", 20)
	_, err := store.Rebuild(context.Background(), staticLister(sources...))
	require.NoError(t, err)

	docs := store.Documents()
	require.Len(t, docs, 20)
	for i := range docs {
		assert.Equal(t, sources[i].FileName, docs[i].Content)
	}
	assert.LessOrEqual(t, peak.Load(), int32(4))
}

func TestStore_CancelledRebuildKeepsPreviousCorpus(t *testing.T) {
	store := NewStore(echoLoader(), arbor.NewLogger(), WithFetchDelay(time.Hour))
	_, err := store.Rebuild(context.Background(), staticLister(namedSources("old", 1)...))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = store.Rebuild(ctx, staticLister(namedSources("new", 3)...))
	require.Error(t, err)

	docs := store.Documents()
	require.Len(t, docs, 1)
	assert.Equal(t, "old-0", docs[0].Source)
	assert.False(t, store.IsRebuilding())
}

func TestStore_ReadersNeverObserveMixedCorpus(t *testing.T) {
	store := newTestStore(echoLoader())
	_, err := store.Rebuild(context.Background(), staticLister(namedSources("old", 5)...))
	require.NoError(t, err)

	stop := make(chan struct{})
	var mixed atomic.Int32
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				docs := store.Documents()
				prefix := strings.SplitN(docs[0].Source, "-", 2)[0]
				want := map[string]int{"old": 5, "new": 7}[prefix]
				if len(docs) != want {
					mixed.Add(1)
				}
				for _, d := range docs {
					if !strings.HasPrefix(d.Source, prefix+"-") {
						mixed.Add(1)
					}
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		prefix, n := "new", 7
		if i%2 == 1 {
			prefix, n = "old", 5
		}
		_, err := store.Rebuild(context.Background(), staticLister(namedSources(prefix, n)...))
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()

	assert.Zero(t, mixed.Load())
}
