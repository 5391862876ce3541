package repository

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Lixing-Zhang/dog-diet/backend/internal/models"
	"github.com/Lixing-Zhang/dog-diet/backend/pkg/logger"
	"github.com/alicebob/miniredis/v2"
)

// countingRepository counts lookups that reach the backing store
type countingRepository struct {
	IngredientRepository
	gets atomic.Int32
}

func (r *countingRepository) GetByName(ctx context.Context, name string) (*models.IngredientProfile, error) {
	r.gets.Add(1)
	return r.IngredientRepository.GetByName(ctx, name)
}

func newCachedFixture(t *testing.T, mr *miniredis.Miniredis) (*CachedIngredientRepository, *countingRepository) {
	t.Helper()

	backing, err := NewInMemoryIngredientRepository([]models.IngredientProfile{
		{Name: "Wheat", Group: "Grain Group A", FreshWeightG: 400, Nutrients: models.Nutrients{DMG: 350, ProteinG: 50.4}},
		{Name: "Beef liver", Group: "Organ Meat", FreshWeightG: 500, Nutrients: models.Nutrients{DMG: 150, PhosphMg: 1935}},
	})
	if err != nil {
		t.Fatalf("seed backing repository: %v", err)
	}
	counting := &countingRepository{IngredientRepository: backing}

	client, err := NewRedisClient(context.Background(), mr.Addr(), "", 0)
	if err != nil {
		t.Fatalf("NewRedisClient() error = %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	repo := NewCachedIngredientRepository(counting, client, time.Minute, logger.NewWithWriter(io.Discard, "info"))
	return repo, counting
}

func TestCachedIngredientRepository_MissWritesBack(t *testing.T) {
	mr := miniredis.RunT(t)
	repo, backing := newCachedFixture(t, mr)
	ctx := context.Background()

	p, err := repo.GetByName(ctx, "Wheat")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if p.DMG != 350 {
		t.Errorf("dm_g = %v, want 350", p.DMG)
	}
	if !mr.Exists(cacheKey("Wheat")) {
		t.Fatal("expected profile to be written to the cache")
	}
	if ttl := mr.TTL(cacheKey("Wheat")); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}

	if _, err := repo.GetByName(ctx, "Wheat"); err != nil {
		t.Fatalf("second GetByName() error = %v", err)
	}
	if got := backing.gets.Load(); got != 1 {
		t.Errorf("backing lookups = %d, want 1", got)
	}
}

func TestCachedIngredientRepository_Hit(t *testing.T) {
	mr := miniredis.RunT(t)
	repo, backing := newCachedFixture(t, mr)

	cached := models.IngredientProfile{Name: "Wheat", Group: "Grain Group A", Nutrients: models.Nutrients{DMG: 999}}
	data, err := json.Marshal(cached)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := mr.Set(cacheKey("Wheat"), string(data)); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	p, err := repo.GetByName(context.Background(), "Wheat")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if p.DMG != 999 {
		t.Errorf("dm_g = %v, want the cached 999", p.DMG)
	}
	if got := backing.gets.Load(); got != 0 {
		t.Errorf("backing lookups = %d, want 0", got)
	}
}

func TestCachedIngredientRepository_UndecodableEntry(t *testing.T) {
	mr := miniredis.RunT(t)
	repo, backing := newCachedFixture(t, mr)

	if err := mr.Set(cacheKey("Wheat"), "{not json"); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	p, err := repo.GetByName(context.Background(), "Wheat")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if p.DMG != 350 {
		t.Errorf("dm_g = %v, want 350 from the backing store", p.DMG)
	}
	if got := backing.gets.Load(); got != 1 {
		t.Errorf("backing lookups = %d, want 1", got)
	}

	raw, err := mr.Get(cacheKey("Wheat"))
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	var stored models.IngredientProfile
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		t.Errorf("cache entry not replaced with a valid profile: %q", raw)
	}
}

func TestCachedIngredientRepository_NotFoundIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	repo, _ := newCachedFixture(t, mr)

	_, err := repo.GetByName(context.Background(), "Unicorn")
	if !errors.Is(err, ErrIngredientNotFound) {
		t.Fatalf("GetByName() error = %v, want ErrIngredientNotFound", err)
	}
	if mr.Exists(cacheKey("Unicorn")) {
		t.Error("a miss must not be cached")
	}
}

func TestCachedIngredientRepository_RedisDown(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	repo, backing := newCachedFixture(t, mr)
	ctx := context.Background()

	if _, err := repo.GetByName(ctx, "Wheat"); err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}

	mr.Close()

	p, err := repo.GetByName(ctx, "Beef liver")
	if err != nil {
		t.Fatalf("GetByName() with redis down error = %v", err)
	}
	if p.PhosphMg != 1935 {
		t.Errorf("p_mg = %v, want 1935", p.PhosphMg)
	}

	n, err := repo.Upsert(ctx, []models.IngredientProfile{{Name: "Oats", Group: "Grain Group A", Nutrients: models.Nutrients{DMG: 270}}})
	if err != nil || n != 1 {
		t.Errorf("Upsert() with redis down = %d, %v; want 1, nil", n, err)
	}
	if got := backing.gets.Load(); got != 2 {
		t.Errorf("backing lookups = %d, want 2", got)
	}
}

func TestCachedIngredientRepository_ContextCancelled(t *testing.T) {
	mr := miniredis.RunT(t)
	repo, backing := newCachedFixture(t, mr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.GetByName(ctx, "Wheat")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("GetByName() error = %v, want context.Canceled", err)
	}
	if got := backing.gets.Load(); got != 0 {
		t.Errorf("backing lookups = %d, want 0", got)
	}
}

func TestCachedIngredientRepository_UpsertInvalidates(t *testing.T) {
	mr := miniredis.RunT(t)
	repo, _ := newCachedFixture(t, mr)
	ctx := context.Background()

	if _, err := repo.GetByName(ctx, "Wheat"); err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if !mr.Exists(cacheKey("Wheat")) {
		t.Fatal("expected Wheat to be cached")
	}

	updated := models.IngredientProfile{Name: "Wheat", Group: "Grain Group A", FreshWeightG: 400, Nutrients: models.Nutrients{DMG: 360}}
	if _, err := repo.Upsert(ctx, []models.IngredientProfile{updated}); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
	if mr.Exists(cacheKey("Wheat")) {
		t.Error("expected Upsert to invalidate the cached entry")
	}

	p, err := repo.GetByName(ctx, "Wheat")
	if err != nil {
		t.Fatalf("GetByName() error = %v", err)
	}
	if p.DMG != 360 {
		t.Errorf("dm_g = %v, want the upserted 360", p.DMG)
	}
}

func TestCachedIngredientRepository_ListPassesThrough(t *testing.T) {
	mr := miniredis.RunT(t)
	repo, _ := newCachedFixture(t, mr)

	profiles, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(profiles) != 2 {
		t.Errorf("expected 2 profiles, got %d", len(profiles))
	}
}
