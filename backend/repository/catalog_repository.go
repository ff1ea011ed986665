package repository

import (
	"context"

	"classmarket/backend/cache"
	"classmarket/backend/models"

	"gorm.io/gorm"
)

type CatalogRepository struct {
	db    *gorm.DB
	cache *cache.LookupCache
}

func NewCatalogRepository(db *gorm.DB, lookups *cache.LookupCache) *CatalogRepository {
	return &CatalogRepository{db: db, cache: lookups}
}

func (r *CatalogRepository) WithTx(tx *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: tx, cache: r.cache}
}

func (r *CatalogRepository) MainCategoryByName(name string) (*models.MainCategory, error) {
	var category models.MainCategory
	if err := r.db.Where("name = ?", name).First(&category).Error; err != nil {
		return nil, notFound(err, "category")
	}
	return &category, nil
}

func (r *CatalogRepository) SubCategoryByName(name string) (*models.SubCategory, error) {
	var sub models.SubCategory
	if err := r.db.Where("name = ?", name).First(&sub).Error; err != nil {
		return nil, notFound(err, "sub category")
	}
	return &sub, nil
}

func (r *CatalogRepository) DifficultyByName(name string) (*models.Difficulty, error) {
	var difficulty models.Difficulty
	if err := r.db.Where("name = ?", name).First(&difficulty).Error; err != nil {
		return nil, notFound(err, "difficulty")
	}
	return &difficulty, nil
}

// Categories returns every main category with its sub categories, served
// from the lookup cache when possible.
func (r *CatalogRepository) Categories(ctx context.Context) ([]models.MainCategory, error) {
	var categories []models.MainCategory
	if r.cache.Get(ctx, cache.KeyCategories, &categories) {
		return categories, nil
	}
	err := r.db.WithContext(ctx).
		Preload("SubCategories", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Order("id").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	r.cache.Set(ctx, cache.KeyCategories, categories)
	return categories, nil
}

func (r *CatalogRepository) Difficulties(ctx context.Context) ([]models.Difficulty, error) {
	var difficulties []models.Difficulty
	if r.cache.Get(ctx, cache.KeyDifficulties, &difficulties) {
		return difficulties, nil
	}
	if err := r.db.WithContext(ctx).Order("id").Find(&difficulties).Error; err != nil {
		return nil, err
	}
	r.cache.Set(ctx, cache.KeyDifficulties, difficulties)
	return difficulties, nil
}

// Product loads a live (not soft-deleted) product with everything the
// detail page renders.
func (r *CatalogRepository) Product(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("SubCategory").
		Preload("Difficulty").
		Preload("Creator").
		Preload("SubImages", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Preload("Chapters.Lectures", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Preload("Chapters.Lectures.Video").
		Preload("ProductKits.Kit.SubImages", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("id = ? AND is_deleted = ?", id, false).
		First(&product).Error
	if err != nil {
		return nil, notFound(err, "product")
	}
	return &product, nil
}
