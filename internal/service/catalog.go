package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/greenbasket/storefront/internal/dto"
	"github.com/greenbasket/storefront/internal/model"
	"github.com/greenbasket/storefront/internal/remote"
)

const (
	productsCollection = "products"
	catalogCacheKey    = "catalog:grouped"
	catalogCacheTTL    = 60 * time.Second
)

// UngroupedName is the fallback group for catalog rows arriving without
// a name; a malformed row must never fail the whole grouping pass.
const UngroupedName = "Other"

// GroupByName folds flat variant rows into name-grouped products.
// Grouping is pure and stable: group order follows the first occurrence
// of each name, variants keep input order, and the first-seen variant
// supplies the group image. Variants are not sorted by weight or price.
func GroupByName(rows []model.ProductVariant) []model.GroupedProduct {
	index := make(map[string]int, len(rows))
	var groups []model.GroupedProduct
	for _, row := range rows {
		name := row.Name
		if name == "" {
			name = UngroupedName
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, model.GroupedProduct{Name: name, ImageURL: row.ImageURL})
		}
		groups[i].Variants = append(groups[i].Variants, row)
	}
	return groups
}

// FilterGroups applies a session's filter state to grouped products.
// The category sentinel disables the category test; a group matches a
// category when any of its variants does.
func FilterGroups(groups []model.GroupedProduct, filter model.FilterState) []model.GroupedProduct {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	categoryActive := filter.Category != "" && filter.Category != model.AllCategories

	out := make([]model.GroupedProduct, 0, len(groups))
	for _, g := range groups {
		if search != "" && !strings.Contains(strings.ToLower(g.Name), search) {
			continue
		}
		if categoryActive && !groupHasCategory(g, filter.Category) {
			continue
		}
		out = append(out, g)
	}
	return out
}

func groupHasCategory(g model.GroupedProduct, category string) bool {
	for _, v := range g.Variants {
		if v.Category == category {
			return true
		}
	}
	return false
}

// CatalogService fetches product rows from the remote store and serves
// them grouped, with a short-lived cache in front. Admin mutations go
// straight to the remote store and invalidate the cache.
type CatalogService struct {
	store       remote.Store
	redisClient *redis.Client
	log         *slog.Logger
}

func NewCatalogService(store remote.Store, redisClient *redis.Client, log *slog.Logger) *CatalogService {
	return &CatalogService{store: store, redisClient: redisClient, log: log}
}

func (s *CatalogService) List(ctx context.Context) ([]model.GroupedProduct, error) {
	if s.redisClient != nil {
		if cached, err := s.redisClient.Get(ctx, catalogCacheKey).Result(); err == nil {
			var groups []model.GroupedProduct
			if json.Unmarshal([]byte(cached), &groups) == nil {
				return groups, nil
			}
		}
	}

	rows, err := s.store.Select(ctx, productsCollection)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	var variants []model.ProductVariant
	if err := remote.DecodeRows(rows, &variants); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	groups := GroupByName(variants)

	if s.redisClient != nil {
		if data, err := json.Marshal(groups); err == nil {
			s.redisClient.Set(ctx, catalogCacheKey, data, catalogCacheTTL)
		}
	}
	return groups, nil
}

func (s *CatalogService) Create(ctx context.Context, req dto.CreateProductRequest) error {
	row := remote.Row{
		"name":      req.Name,
		"weight":    req.Weight,
		"image_url": req.ImageURL,
		"category":  req.Category,
	}
	if req.Price != nil {
		row["price"] = *req.Price
	}
	if err := s.store.Insert(ctx, productsCollection, []remote.Row{row}); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *CatalogService) Update(ctx context.Context, id int64, req dto.UpdateProductRequest) error {
	patch := remote.Row{}
	if req.Name != nil {
		patch["name"] = *req.Name
	}
	if req.Weight != nil {
		patch["weight"] = *req.Weight
	}
	if req.Price != nil {
		patch["price"] = *req.Price
	}
	if req.ImageURL != nil {
		patch["image_url"] = *req.ImageURL
	}
	if req.Category != nil {
		patch["category"] = *req.Category
	}
	if len(patch) == 0 {
		return nil
	}
	if err := s.store.Update(ctx, productsCollection, patch, remote.Eq("id", id)); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *CatalogService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, productsCollection, remote.Eq("id", id)); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *CatalogService) invalidateCache(ctx context.Context) {
	if s.redisClient != nil {
		s.redisClient.Del(ctx, catalogCacheKey)
	}
}
