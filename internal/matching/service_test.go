package matching

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"assetmatch/internal/domain"
	"assetmatch/internal/providerconfig"
	"assetmatch/internal/providers/asset"
)

type stubSource struct {
	name    string
	results []domain.AssetSearchResult
	err     error
	block   bool
	testErr error
	calls   atomic.Int32
}

func (s *stubSource) Name() string       { return s.name }
func (s *stubSource) RequiresAuth() bool { return true }

func (s *stubSource) SearchAssets(ctx context.Context, _ domain.VisualSearchCriteria) ([]domain.AssetSearchResult, error) {
	s.calls.Add(1)
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	out := make([]domain.AssetSearchResult, len(s.results))
	copy(out, s.results)
	return out, nil
}

func (s *stubSource) TestConnection(context.Context) error { return s.testErr }

type stubAnalyzer struct {
	criteria *domain.VisualSearchCriteria
	err      error
	calls    int
}

func (a *stubAnalyzer) AnalyzeScene(context.Context, string) (*domain.VisualSearchCriteria, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	c := *a.criteria
	return &c, nil
}

func registryWith(sources ...*stubSource) *asset.Registry {
	r := asset.NewRegistry(asset.Options{})
	for _, src := range sources {
		src := src
		r.Register(src.name, func(asset.Config, asset.Options) (asset.Source, error) { return src, nil })
	}
	return r
}

func enabled(name string) domain.ProviderConfig {
	return domain.ProviderConfig{Name: name, Enabled: true, APIKey: "key-" + name}
}

func beachCriteria() *domain.VisualSearchCriteria {
	return &domain.VisualSearchCriteria{
		Style: domain.StyleCinematic,
		Elements: []domain.SceneElement{
			{Type: domain.ElementLocation, Description: "beach at sunset", Importance: 1, Attributes: map[string]any{}},
		},
		Mood: "calm",
	}
}

func beachSource() *stubSource {
	return &stubSource{name: "waves", results: []domain.AssetSearchResult{{
		URL:  "https://cdn.example/beach.mp4",
		Type: domain.AssetVideo,
		Metadata: domain.AssetMetadata{
			Title:       "Beach at sunset",
			Tags:        []string{"beach", "at", "sunset"},
			Description: "Waves on a beach at sunset",
			Style:       "cinematic",
			Mood:        "calm",
		},
	}}}
}

func officeSource() *stubSource {
	return &stubSource{name: "desks", results: []domain.AssetSearchResult{{
		URL:  "https://cdn.example/office.jpg",
		Type: domain.AssetImage,
		Metadata: domain.AssetMetadata{
			Title:       "Open plan office",
			Tags:        []string{"office", "desk"},
			Description: "Open plan office",
		},
	}}}
}

func newService(t *testing.T, opts Options) *Service {
	t.Helper()
	svc, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

func TestFindAssetsRanksAcrossProviders(t *testing.T) {
	beach, office := beachSource(), officeSource()
	svc := newService(t, Options{
		Builder: registryWith(beach, office),
		Configs: providerconfig.NewManager(providerconfig.NewMemoryStore(enabled("waves"), enabled("desks")), nil, nil),
	})

	res, err := svc.FindAssets(context.Background(), "a person walking on a beach at sunset", beachCriteria())
	if err != nil {
		t.Fatalf("FindAssets: %v", err)
	}
	if res.TotalResults != 2 || len(res.Assets) != 2 {
		t.Fatalf("expected 2 results, got %+v", res)
	}
	if res.Assets[0].Provider != "waves" || res.Assets[1].Provider != "desks" {
		t.Fatalf("unexpected order: %s, %s", res.Assets[0].Provider, res.Assets[1].Provider)
	}
	if res.Assets[0].Confidence <= res.Assets[1].Confidence {
		t.Fatalf("beach confidence %.2f must exceed office %.2f", res.Assets[0].Confidence, res.Assets[1].Confidence)
	}
	for _, a := range res.Assets {
		if a.Confidence < 0 || a.Confidence > 1 {
			t.Fatalf("confidence out of range: %v", a.Confidence)
		}
	}
	if len(res.Providers) != 2 {
		t.Fatalf("providers = %v", res.Providers)
	}
}

func TestFindAssetsWithAllProvidersDisabled(t *testing.T) {
	beach, office := beachSource(), officeSource()
	waves, desks := enabled("waves"), enabled("desks")
	waves.Enabled, desks.Enabled = false, false
	svc := newService(t, Options{
		Builder: registryWith(beach, office),
		Configs: providerconfig.NewManager(providerconfig.NewMemoryStore(waves, desks), nil, nil),
	})

	res, err := svc.FindAssets(context.Background(), "a beach", beachCriteria())
	if err != nil {
		t.Fatalf("FindAssets: %v", err)
	}
	if res.Assets == nil || len(res.Assets) != 0 || res.TotalResults != 0 {
		t.Fatalf("expected empty assets, got %+v", res.Assets)
	}
	if res.Providers == nil || len(res.Providers) != 0 {
		t.Fatalf("expected empty providers, got %v", res.Providers)
	}
	if beach.calls.Load() != 0 || office.calls.Load() != 0 {
		t.Fatal("disabled providers must not be searched")
	}
}

func TestFindAssetsIsolatesFailingProvider(t *testing.T) {
	failing := &stubSource{name: "broken", err: errors.New("connection reset")}
	limited := &stubSource{name: "limited"}
	beach := beachSource()
	limitedCfg := enabled("limited")
	limitedCfg.RateLimit = &domain.RateLimit{RequestsPerMinute: 1}
	svc := newService(t, Options{
		Builder: registryWith(failing, limited, beach),
		Configs: providerconfig.NewManager(providerconfig.NewMemoryStore(enabled("broken"), limitedCfg, enabled("waves")), nil, nil),
	})

	ctx := context.Background()
	if _, err := svc.FindAssets(ctx, "beach", beachCriteria()); err != nil {
		t.Fatalf("first FindAssets: %v", err)
	}
	res, err := svc.FindAssets(ctx, "beach", beachCriteria())
	if err != nil {
		t.Fatalf("FindAssets must not fail when a provider fails: %v", err)
	}
	if len(res.Assets) != 1 || res.Assets[0].Provider != "waves" {
		t.Fatalf("expected only the healthy provider's result, got %+v", res.Assets)
	}

	kinds := map[string]string{}
	for _, st := range res.Statuses {
		kinds[st.Provider] = st.ErrorKind
	}
	if kinds["broken"] != "upstream" || kinds["limited"] != "rate_limit" || kinds["waves"] != "" {
		t.Fatalf("statuses = %+v", res.Statuses)
	}
}

func TestFindAssetsBoundsSlowProviders(t *testing.T) {
	slow := &stubSource{name: "slow", block: true}
	beach := beachSource()
	svc := newService(t, Options{
		Builder:         registryWith(slow, beach),
		Configs:         providerconfig.NewManager(providerconfig.NewMemoryStore(enabled("slow"), enabled("waves")), nil, nil),
		ProviderTimeout: 20 * time.Millisecond,
	})

	res, err := svc.FindAssets(context.Background(), "beach", beachCriteria())
	if err != nil {
		t.Fatalf("FindAssets: %v", err)
	}
	if len(res.Assets) != 1 {
		t.Fatalf("expected the fast provider's result, got %d", len(res.Assets))
	}
}

func TestFindAssetsAnalyzesUnstructuredScenes(t *testing.T) {
	analyzer := &stubAnalyzer{criteria: beachCriteria()}
	svc := newService(t, Options{
		Builder:  registryWith(beachSource()),
		Configs:  providerconfig.NewManager(providerconfig.NewMemoryStore(enabled("waves")), nil, nil),
		Analyzer: analyzer,
	})

	res, err := svc.FindAssets(context.Background(), "  a beach at sunset  ", &domain.VisualSearchCriteria{Mood: "calm"})
	if err != nil {
		t.Fatalf("FindAssets: %v", err)
	}
	if analyzer.calls != 1 {
		t.Fatalf("expected one analysis, got %d", analyzer.calls)
	}
	if len(res.Assets) != 1 || res.Assets[0].Confidence == 0 {
		t.Fatalf("expected a scored result, got %+v", res.Assets)
	}

	if _, err := svc.FindAssets(context.Background(), "beach", beachCriteria()); err != nil {
		t.Fatalf("FindAssets: %v", err)
	}
	if analyzer.calls != 1 {
		t.Fatal("structured criteria must skip analysis")
	}
}

func TestFindAssetsErrors(t *testing.T) {
	cases := []struct {
		name        string
		description string
		partial     *domain.VisualSearchCriteria
		analyzer    *stubAnalyzer
		want        error
	}{
		{name: "blank description", description: "   ", partial: beachCriteria(), want: domain.ErrInvalidCriteria},
		{name: "unknown style", description: "beach", partial: &domain.VisualSearchCriteria{Style: "noir"}, want: domain.ErrInvalidCriteria},
		{name: "no analyzer", description: "beach", want: domain.ErrConfiguration},
		{name: "analysis parse failure", description: "beach", analyzer: &stubAnalyzer{err: domain.ErrParse}, want: domain.ErrParse},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := Options{
				Builder: registryWith(beachSource()),
				Configs: providerconfig.NewManager(providerconfig.NewMemoryStore(enabled("waves")), nil, nil),
			}
			if tc.analyzer != nil {
				opts.Analyzer = tc.analyzer
			}
			_, err := newService(t, opts).FindAssets(context.Background(), tc.description, tc.partial)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestInitializeTrustedConfigsWin(t *testing.T) {
	beach := beachSource()
	store := providerconfig.NewMemoryStore(
		domain.ProviderConfig{Name: "waves", Enabled: false, APIKey: "stale"},
		enabled("ghost"),
	)
	svc := newService(t, Options{
		Builder: registryWith(beach),
		Configs: providerconfig.NewManager(store, nil, nil),
		Trusted: []domain.ProviderConfig{enabled(" Waves ")},
	})

	got := svc.GetProviders()
	if len(got) != 1 || got[0] != "waves" {
		t.Fatalf("expected only the trusted provider to be live, got %v", got)
	}
}

func TestAddProvider(t *testing.T) {
	ctx := context.Background()
	beach := beachSource()
	store := providerconfig.NewMemoryStore()
	svc := newService(t, Options{
		Builder: registryWith(beach),
		Configs: providerconfig.NewManager(store, nil, nil),
	})

	ok, err := svc.AddProvider(ctx, domain.ProviderConfig{Name: "waves", Enabled: true, APIKey: ""})
	if ok || !errors.Is(err, domain.ErrConfiguration) {
		t.Fatalf("empty key: ok=%v err=%v", ok, err)
	}
	if list, _ := store.List(ctx); len(list) != 0 {
		t.Fatalf("rejected provider must not be persisted, got %v", list)
	}

	ok, err = svc.AddProvider(ctx, domain.ProviderConfig{Name: "mystery", Enabled: true, APIKey: "k"})
	if ok || !errors.Is(err, asset.ErrUnknownProvider) {
		t.Fatalf("unknown provider: ok=%v err=%v", ok, err)
	}

	beach.testErr = domain.NewProviderError("waves", domain.ErrAuthentication, "invalid key", nil)
	ok, err = svc.AddProvider(ctx, enabled("waves"))
	if ok || !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("failed connection: ok=%v err=%v", ok, err)
	}
	if list, _ := store.List(ctx); len(list) != 0 {
		t.Fatalf("untested provider must not be persisted, got %v", list)
	}

	beach.testErr = nil
	ok, err = svc.AddProvider(ctx, enabled("waves"))
	if !ok || err != nil {
		t.Fatalf("AddProvider: ok=%v err=%v", ok, err)
	}
	if got := svc.GetProviders(); len(got) != 1 || got[0] != "waves" {
		t.Fatalf("providers after add = %v", got)
	}
	configs, err := svc.GetProviderConfigs(ctx)
	if err != nil || len(configs) != 1 {
		t.Fatalf("GetProviderConfigs() = %v, %v", configs, err)
	}
}

func TestRemoveProvider(t *testing.T) {
	ctx := context.Background()
	store := providerconfig.NewMemoryStore(enabled("waves"), enabled("desks"))
	svc := newService(t, Options{
		Builder: registryWith(beachSource(), officeSource()),
		Configs: providerconfig.NewManager(store, nil, nil),
	})

	if err := svc.RemoveProvider(ctx, "Waves"); err != nil {
		t.Fatalf("RemoveProvider: %v", err)
	}
	if err := svc.RemoveProvider(ctx, "waves"); err != nil {
		t.Fatalf("second RemoveProvider: %v", err)
	}
	if got := svc.GetProviders(); len(got) != 1 || got[0] != "desks" {
		t.Fatalf("providers after remove = %v", got)
	}
	if _, err := store.Get(ctx, "waves"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("config must be deleted, got %v", err)
	}
}

func TestRemoveProviderConcurrentWithInitialize(t *testing.T) {
	ctx := context.Background()
	store := providerconfig.NewMemoryStore(enabled("waves"), enabled("desks"))
	svc := newService(t, Options{
		Builder: registryWith(beachSource(), officeSource()),
		Configs: providerconfig.NewManager(store, nil, nil),
	})

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			if err := svc.Initialize(ctx); err != nil {
				t.Errorf("Initialize: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if err := svc.RemoveProvider(ctx, "waves"); err != nil {
				t.Errorf("RemoveProvider: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			_ = svc.GetProviders()
		}()
	}
	wg.Wait()

	if got := svc.GetProviders(); len(got) != 1 || got[0] != "desks" {
		t.Fatalf("removed provider came back: %v", got)
	}
}

func TestInitializeKeepsUnchangedInstances(t *testing.T) {
	ctx := context.Background()
	cfg := enabled("waves")
	cfg.RateLimit = &domain.RateLimit{RequestsPerMinute: 1}
	svc := newService(t, Options{
		Builder: registryWith(beachSource(), officeSource()),
		Configs: providerconfig.NewManager(providerconfig.NewMemoryStore(cfg), nil, nil),
	})

	if _, err := svc.FindAssets(ctx, "beach", beachCriteria()); err != nil {
		t.Fatalf("FindAssets: %v", err)
	}
	if ok, err := svc.AddProvider(ctx, enabled("desks")); !ok {
		t.Fatalf("AddProvider: %v", err)
	}
	res, err := svc.FindAssets(ctx, "beach", beachCriteria())
	if err != nil {
		t.Fatalf("FindAssets: %v", err)
	}
	for _, st := range res.Statuses {
		if st.Provider == "waves" && st.ErrorKind != "rate_limit" {
			t.Fatalf("rate limiter state must survive reinitialization, got %+v", st)
		}
	}
}
