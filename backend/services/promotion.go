package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"classmarket/backend/models"
	"classmarket/backend/repository"
	"classmarket/backend/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Promoter turns a finished draft into a published product.
type Promoter struct {
	db     *gorm.DB
	drafts *repository.DraftRepository
	relay  storage.Relay
	log    *zap.Logger
	now    func() time.Time
}

func NewPromoter(db *gorm.DB, relay storage.Relay, log *zap.Logger) *Promoter {
	return &Promoter{
		db:     db,
		drafts: repository.NewDraftRepository(db),
		relay:  relay,
		log:    log.Named("promoter"),
		now:    time.Now,
	}
}

// Promote copies the draft into the catalog and deletes it, all in one
// transaction. Media keys move over unchanged; keys the draft held that no
// published row ends up using are deleted from the relay after commit.
func (p *Promoter) Promote(ctx context.Context, draftID, ownerID uint) (*models.Product, error) {
	var product *models.Product
	var orphans []string

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		drafts := p.drafts.WithTx(tx)
		draft, err := drafts.Graph(draftID)
		if err != nil {
			return err
		}
		if draft.UserID != ownerID {
			return ErrForbidden
		}
		if len(draft.Images) == 0 {
			return fmt.Errorf("%w: draft has no images", ErrIncomplete)
		}

		carried := make(map[string]bool)
		product, err = p.createProduct(tx, draft, carried)
		if err != nil {
			return err
		}
		published, err := p.copyCurriculum(tx, draft, product.ID, carried)
		if err != nil {
			return err
		}
		if err := p.copyContents(tx, draft, product.ID, published, carried); err != nil {
			return err
		}
		if err := p.copyKits(tx, draft, product.ID, carried); err != nil {
			return err
		}

		for _, key := range repository.MediaKeys(draft) {
			if !carried[key] {
				orphans = append(orphans, key)
			}
		}
		return drafts.Delete(draftID)
	})
	if err != nil {
		return nil, err
	}

	media := newMediaBatch(p.relay, p.log)
	media.release(orphans...)
	media.commit(ctx)

	p.log.Info("draft promoted",
		zap.Uint("draft_id", draftID), zap.Uint("product_id", product.ID),
		zap.Uint("user_id", ownerID), zap.Int("dropped_media", len(orphans)))
	return product, nil
}

func (p *Promoter) createProduct(tx *gorm.DB, draft *models.Draft, carried map[string]bool) (*models.Product, error) {
	owner := draft.UserID
	product := &models.Product{
		Name:           draft.Name,
		Price:          draft.Price,
		Sale:           draft.Sale,
		StartDate:      p.now(),
		ThumbnailImage: draft.Images[0].ImageKey,
		MainCategoryID: draft.MainCategoryID,
		SubCategoryID:  draft.SubCategoryID,
		DifficultyID:   draft.DifficultyID,
		CreatorID:      &owner,
	}
	if err := tx.Create(product).Error; err != nil {
		return nil, err
	}
	carried[product.ThumbnailImage] = true

	for _, img := range draft.Images {
		if err := tx.Create(&models.ProductSubImage{ImageURL: img.ImageKey, ProductID: product.ID}).Error; err != nil {
			return nil, err
		}
		carried[img.ImageKey] = true
	}
	return product, nil
}

// copyCurriculum publishes lectures in draft order and returns the
// published lecture id of every draft lecture. Chapters are matched by name
// within the product, so two draft chapters sharing a name collapse into one
// and the first keeps its order and thumbnail.
func (p *Promoter) copyCurriculum(tx *gorm.DB, draft *models.Draft, productID uint, carried map[string]bool) (map[uint]uint, error) {
	published := make(map[uint]uint, len(draft.Lectures))
	for _, dl := range draft.Lectures {
		if dl.DraftChapter == nil {
			return nil, fmt.Errorf("chapter of lecture %q: %w", dl.Name, ErrNotFound)
		}

		var chapter models.Chapter
		err := tx.Where("name = ? AND product_id = ?", dl.DraftChapter.Name, productID).First(&chapter).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			chapter = models.Chapter{
				Name:           dl.DraftChapter.Name,
				ProductID:      productID,
				Order:          dl.DraftChapter.Order,
				ThumbnailImage: dl.DraftChapter.ThumbnailKey,
			}
			if err := tx.Create(&chapter).Error; err != nil {
				return nil, err
			}
			if chapter.ThumbnailImage != "" {
				carried[chapter.ThumbnailImage] = true
			}
		} else if err != nil {
			return nil, err
		}

		video := models.LectureVideo{VideoURL: dl.VideoKey, Duration: dl.Duration}
		if err := tx.Create(&video).Error; err != nil {
			return nil, err
		}
		if dl.VideoKey != "" {
			carried[dl.VideoKey] = true
		}

		lecture := models.Lecture{
			Name:      dl.Name,
			ProductID: productID,
			VideoID:   &video.ID,
			ChapterID: &chapter.ID,
			Order:     dl.Order,
		}
		if err := tx.Create(&lecture).Error; err != nil {
			return nil, err
		}
		published[dl.ID] = lecture.ID
	}
	return published, nil
}

// copyContents attaches each content block to the lecture published from
// its own draft lecture. Lecture names may repeat, so names are never used
// to resolve the target.
func (p *Promoter) copyContents(tx *gorm.DB, draft *models.Draft, productID uint, published map[uint]uint, carried map[string]bool) error {
	for _, dc := range draft.LectureContents {
		lectureID, ok := published[dc.DraftLectureID]
		if !ok {
			return fmt.Errorf("lecture %d of content %d: %w", dc.DraftLectureID, dc.ID, ErrNotFound)
		}

		desc := models.LectureContentDescription{}
		if dc.Description != nil {
			desc.Description = dc.Description.Description
		}
		if err := tx.Create(&desc).Error; err != nil {
			return err
		}
		content := models.LectureContent{
			DescriptionID: &desc.ID,
			LectureID:     lectureID,
			ProductID:     productID,
			Order:         dc.Order,
		}
		if dc.Image != nil {
			image := models.LectureContentImageURL{ImageURL: dc.Image.ImageKey}
			if err := tx.Create(&image).Error; err != nil {
				return err
			}
			content.ImageID = &image.ID
			carried[dc.Image.ImageKey] = true
		}
		if err := tx.Omit("Description", "Image").Create(&content).Error; err != nil {
			return err
		}
	}
	return nil
}

// copyKits attaches one catalog kit per draft kit image. Kits are shared
// across products and matched by name; a missing kit is created with the
// image as its main image. Every image is also kept as a kit sub image.
func (p *Promoter) copyKits(tx *gorm.DB, draft *models.Draft, productID uint, carried map[string]bool) error {
	for _, ki := range draft.KitImages {
		if ki.DraftKit == nil {
			return fmt.Errorf("kit of image %d: %w", ki.ID, ErrNotFound)
		}

		var kit models.Kit
		err := tx.Where("name = ?", ki.DraftKit.Name).Order("id").First(&kit).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			kit = models.Kit{Name: ki.DraftKit.Name, MainImageURL: ki.ImageKey}
			if ki.DraftKit.Price != nil {
				kit.Price = *ki.DraftKit.Price
			}
			if err := tx.Create(&kit).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		if err := tx.Create(&models.KitSubImageURL{ImageURL: ki.ImageKey, KitID: kit.ID}).Error; err != nil {
			return err
		}
		carried[ki.ImageKey] = true

		link := models.ProductKit{ProductID: productID, KitID: kit.ID}
		if err := tx.Where(models.ProductKit{ProductID: productID, KitID: kit.ID}).
			Omit("Kit").
			FirstOrCreate(&link).Error; err != nil {
			return err
		}
	}
	return nil
}
