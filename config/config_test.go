package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/recbox/recbox/core"
	"github.com/recbox/recbox/service"
	"github.com/recbox/recbox/store"
)

const yamlConfig = `
recommender:
  mode: hybrid
  collaborative:
    method: item_based
    metric: pearson
    similarity_threshold: 0.2
  filters:
    - type: blacklist
      config:
        item_ids: [2, 4]
    - type: expr
      config:
        expr: 'item.score < 1.5'
`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestLoadFromYAML(t *testing.T) {
	path := writeTempFile(t, "config.yaml", yamlConfig)

	cfg, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}

	rc := cfg.Recommender
	if rc.Mode != "hybrid" {
		t.Errorf("mode = %q", rc.Mode)
	}
	if rc.Collaborative.Method != "item_based" || rc.Collaborative.Metric != "pearson" {
		t.Errorf("collaborative config = %+v", rc.Collaborative)
	}
	if rc.Collaborative.SimilarityThreshold != 0.2 {
		t.Errorf("similarity_threshold = %v", rc.Collaborative.SimilarityThreshold)
	}
	if len(rc.Filters) != 2 || rc.Filters[0].Type != "blacklist" || rc.Filters[1].Type != "expr" {
		t.Errorf("filters = %+v", rc.Filters)
	}
}

func TestLoadFromJSON(t *testing.T) {
	path := writeTempFile(t, "config.json", `{
  "recommender": {
    "mode": "collaborative",
    "collaborative": {"method": "user_based", "metric": "cosine"}
  }
}`)

	cfg, err := LoadFromJSON(path)
	if err != nil {
		t.Fatalf("LoadFromJSON: %v", err)
	}
	if cfg.Recommender.Mode != "collaborative" {
		t.Errorf("mode = %q", cfg.Recommender.Mode)
	}
	if cfg.Recommender.Collaborative.Method != "user_based" {
		t.Errorf("method = %q", cfg.Recommender.Collaborative.Method)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := LoadFromYAML(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("want error for missing file")
	}
}

func TestBuildFilters(t *testing.T) {
	ms := store.NewMemoryStore()
	configs := []FilterConfig{
		{Type: "blacklist", Config: map[string]any{"item_ids": []any{1, 2}}},
		{Type: "expr", Config: map[string]any{"expr": "item.score < 2.0"}},
		{Type: "rated"},
	}

	filters, err := BuildFilters(configs, Deps{Ratings: ms})
	if err != nil {
		t.Fatalf("BuildFilters: %v", err)
	}
	if len(filters) != 3 {
		t.Fatalf("got %d filters", len(filters))
	}
	wantNames := []string{"filter.blacklist", "filter.expr", "filter.rated"}
	for i, f := range filters {
		if f.Name() != wantNames[i] {
			t.Errorf("filter %d = %q, want %q", i, f.Name(), wantNames[i])
		}
	}
}

func TestBuildFiltersErrors(t *testing.T) {
	tests := []struct {
		name    string
		configs []FilterConfig
		deps    Deps
	}{
		{
			name:    "unknown type",
			configs: []FilterConfig{{Type: "teleport"}},
		},
		{
			name:    "expr without expression",
			configs: []FilterConfig{{Type: "expr"}},
		},
		{
			name:    "rated without store",
			configs: []FilterConfig{{Type: "rated"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := BuildFilters(tt.configs, tt.deps); err == nil {
				t.Fatal("want build error")
			}
		})
	}
}

func TestSupportedFilters(t *testing.T) {
	types := SupportedFilters()
	want := map[string]bool{"blacklist": false, "expr": false, "rated": false}
	for _, typ := range types {
		if _, ok := want[typ]; ok {
			want[typ] = true
		}
	}
	for typ, seen := range want {
		if !seen {
			t.Errorf("builtin filter %q not registered", typ)
		}
	}
}

func TestBuildRecommender(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	items := []*core.Item{
		{ID: 1, Name: "Star Wars", Categories: []string{"action", "sci-fi"}},
		{ID: 2, Name: "Notting Hill", Categories: []string{"comedy", "romance"}},
		{ID: 3, Name: "Die Hard", Categories: []string{"action", "thriller"}},
		{ID: 4, Name: "Blade Runner", Categories: []string{"sci-fi", "thriller"}},
	}
	for _, it := range items {
		if err := ms.SaveItem(ctx, it); err != nil {
			t.Fatalf("SaveItem: %v", err)
		}
	}
	if err := ms.SaveUser(ctx, &core.User{ID: 1}); err != nil {
		t.Fatalf("SaveUser: %v", err)
	}
	ratings := []*core.Rating{
		{UserID: 1, ItemID: 1, Value: 5},
		{UserID: 1, ItemID: 3, Value: 4},
	}
	for _, r := range ratings {
		if err := ms.SaveRating(ctx, r); err != nil {
			t.Fatalf("SaveRating: %v", err)
		}
	}

	path := writeTempFile(t, "config.yaml", `
recommender:
  mode: content-based
  filters:
    - type: blacklist
      config:
        item_ids: [2]
`)
	cfg, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}

	r, err := BuildRecommender(ctx, cfg, ms, ms, ms, zerolog.Nop())
	if err != nil {
		t.Fatalf("BuildRecommender: %v", err)
	}
	if r.Mode() != service.ModeContentBased {
		t.Errorf("mode = %q", r.Mode())
	}

	got, err := r.Recommend(ctx, 1, 10, true)
	if err != nil {
		t.Fatalf("Recommend: %v", err)
	}
	// 黑名单挡掉物品 2，已评分的 1 和 3 被排除，只剩物品 4
	if len(got) != 1 || got[0].ItemID != 4 {
		t.Fatalf("want only item 4, got %v", got)
	}
}

func TestBuildRecommenderNilConfig(t *testing.T) {
	ms := store.NewMemoryStore()
	if _, err := BuildRecommender(context.Background(), nil, ms, ms, ms, zerolog.Nop()); err == nil {
		t.Fatal("want error for nil config")
	}
}
