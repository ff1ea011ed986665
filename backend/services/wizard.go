package services

import (
	"context"
	"errors"
	"time"

	"classmarket/backend/models"
	"classmarket/backend/repository"
	"classmarket/backend/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Wizard drives the four authoring steps of a draft. Each save replaces the
// step's data wholesale inside one transaction.
type Wizard struct {
	db      *gorm.DB
	drafts  *repository.DraftRepository
	catalog *repository.CatalogRepository
	relay   storage.Relay
	log     *zap.Logger
}

func NewWizard(db *gorm.DB, catalog *repository.CatalogRepository, relay storage.Relay, log *zap.Logger) *Wizard {
	return &Wizard{
		db:      db,
		drafts:  repository.NewDraftRepository(db),
		catalog: catalog,
		relay:   relay,
		log:     log.Named("wizard"),
	}
}

type BasicInfoInput struct {
	CategoryName    *string  `json:"categoryName" validate:"required"`
	SubCategoryName *string  `json:"subCategoryName" validate:"required"`
	DifficultyName  *string  `json:"difficultyName" validate:"required"`
	Name            *string  `json:"name" validate:"required,min=1,max=100"`
	Price           *int64   `json:"price" validate:"required,gte=0"`
	Sale            *float64 `json:"sale" validate:"required,gte=0,lte=1"`
}

type CurriculumInput struct {
	Chapters []ChapterInput `json:"chapters" validate:"required,dive"`
}

type ChapterInput struct {
	Name     *string        `json:"name" validate:"required,max=100"`
	Lectures []LectureInput `json:"lectures" validate:"required,dive"`
}

type LectureInput struct {
	Name *string `json:"name" validate:"required,max=100"`
}

type LectureContentsInput struct {
	Lectures []LectureContentInput `json:"lectures" validate:"required,dive"`
}

type LectureContentInput struct {
	LectureID *uint          `json:"lecture_id" validate:"required"`
	Contents  []ContentInput `json:"contents" validate:"required,dive"`
}

type ContentInput struct {
	Description *string `json:"description" validate:"required,max=500"`
}

type KitsInput struct {
	Kits []KitInput `json:"kits" validate:"required,dive"`
}

type KitInput struct {
	Name  *string `json:"name" validate:"required,max=100"`
	Price *int64  `json:"price" validate:"omitempty,gte=0"`
}

type BasicInfoView struct {
	Categories           []models.MainCategory `json:"categories"`
	Difficulties         []models.Difficulty   `json:"difficulties"`
	TemporaryInformation *DraftInfo            `json:"temporaryInformation"`
}

type DraftInfo struct {
	MainCategoryID *uint    `json:"mainCategoryId"`
	SubCategoryID  *uint    `json:"subCategoryId"`
	DifficultyID   *uint    `json:"difficultyId"`
	Name           string   `json:"name"`
	Price          int64    `json:"price"`
	Sale           float64  `json:"sale"`
	Images         []string `json:"images"`
}

type ChapterView struct {
	ChapterID uint          `json:"chapterId"`
	Name      string        `json:"name"`
	Order     int           `json:"order"`
	MainImage *string       `json:"mainImage"`
	Lectures  []LectureView `json:"lectures"`
}

type LectureView struct {
	LectureID uint           `json:"lectureId"`
	Name      string         `json:"name"`
	Order     int            `json:"order"`
	VideoURL  *string        `json:"videoUrl,omitempty"`
	Duration  *time.Duration `json:"duration,omitempty"`
	Contents  []ContentView  `json:"contents,omitempty"`
}

type ContentView struct {
	Image       *string `json:"image"`
	Description string  `json:"description"`
	Order       int     `json:"order"`
}

type KitView struct {
	ID     uint     `json:"id"`
	Name   string   `json:"name"`
	Price  *int64   `json:"price"`
	Images []string `json:"images"`
}

// LectureOrders numbers a flattened lecture list. The counter restarts at 1
// whenever a name differs from the name right before it and increments
// while the same name repeats, so [x x y y y] becomes [1 2 1 2 3].
func LectureOrders(names []string) []int {
	orders := make([]int, len(names))
	for i, name := range names {
		if i > 0 && names[i-1] == name {
			orders[i] = orders[i-1] + 1
		} else {
			orders[i] = 1
		}
	}
	return orders
}

// inTx runs fn in a transaction and settles the relay side effects it
// recorded according to the outcome.
func (w *Wizard) inTx(ctx context.Context, fn func(tx *gorm.DB, media *mediaBatch) error) error {
	media := newMediaBatch(w.relay, w.log)
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(tx, media)
	})
	if err != nil {
		media.rollback(ctx)
		return err
	}
	media.commit(ctx)
	return nil
}

// owned loads a draft and checks it belongs to ownerID.
func owned(drafts *repository.DraftRepository, draftID, ownerID uint) (*models.Draft, error) {
	draft, err := drafts.Find(draftID)
	if err != nil {
		return nil, err
	}
	if draft.UserID != ownerID {
		return nil, ErrForbidden
	}
	return draft, nil
}

// readable is owned for the read side: a missing draft yields (nil, nil).
func (w *Wizard) readable(ctx context.Context, draftID, ownerID uint) (*models.Draft, error) {
	draft, err := owned(w.drafts.WithTx(w.db.WithContext(ctx)), draftID, ownerID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return draft, err
}

func (w *Wizard) SaveBasicInfo(ctx context.Context, draftID, ownerID uint, in BasicInfoInput, images []storage.Blob) error {
	if err := checkPayload(in); err != nil {
		return err
	}
	return w.inTx(ctx, func(tx *gorm.DB, media *mediaBatch) error {
		drafts := w.drafts.WithTx(tx)
		catalog := w.catalog.WithTx(tx)
		category, err := catalog.MainCategoryByName(*in.CategoryName)
		if err != nil {
			return err
		}
		sub, err := catalog.SubCategoryByName(*in.SubCategoryName)
		if err != nil {
			return err
		}
		difficulty, err := catalog.DifficultyByName(*in.DifficultyName)
		if err != nil {
			return err
		}

		draft, err := owned(drafts, draftID, ownerID)
		isNew := errors.Is(err, ErrNotFound)
		if err != nil && !isNew {
			return err
		}
		if isNew {
			draft = &models.Draft{ID: draftID, UserID: ownerID}
		}
		draft.MainCategoryID = &category.ID
		draft.SubCategoryID = &sub.ID
		draft.DifficultyID = &difficulty.ID
		draft.Name = *in.Name
		draft.Price = *in.Price
		draft.Sale = *in.Sale
		if err := drafts.Save(draft, isNew); err != nil {
			return err
		}

		old, err := drafts.DeleteImages(draftID)
		if err != nil {
			return err
		}
		media.release(old...)
		for _, blob := range images {
			key, err := media.put(ctx, storage.NewImageKey(), blob)
			if err != nil {
				return err
			}
			if err := drafts.CreateImage(&models.DraftImage{ImageKey: key, DraftID: draftID}); err != nil {
				return err
			}
		}
		w.log.Info("draft basic info saved",
			zap.Uint("draft_id", draftID), zap.Uint("user_id", ownerID), zap.Int("images", len(images)))
		return nil
	})
}

func (w *Wizard) BasicInfo(ctx context.Context, draftID, ownerID uint) (*BasicInfoView, error) {
	categories, err := w.catalog.Categories(ctx)
	if err != nil {
		return nil, err
	}
	difficulties, err := w.catalog.Difficulties(ctx)
	if err != nil {
		return nil, err
	}
	view := &BasicInfoView{Categories: categories, Difficulties: difficulties}

	draft, err := w.readable(ctx, draftID, ownerID)
	if err != nil || draft == nil {
		return view, err
	}
	images, err := w.drafts.WithTx(w.db.WithContext(ctx)).Images(draftID)
	if err != nil {
		return nil, err
	}
	info := &DraftInfo{
		MainCategoryID: draft.MainCategoryID,
		SubCategoryID:  draft.SubCategoryID,
		DifficultyID:   draft.DifficultyID,
		Name:           draft.Name,
		Price:          draft.Price,
		Sale:           draft.Sale,
		Images:         make([]string, 0, len(images)),
	}
	for _, img := range images {
		info.Images = append(info.Images, w.relay.URL(img.ImageKey))
	}
	view.TemporaryInformation = info
	return view, nil
}

// SaveCurriculum replaces the draft's chapters and lectures. Thumbnails are
// consumed in chapter order; chapters past the last file get none.
func (w *Wizard) SaveCurriculum(ctx context.Context, draftID, ownerID uint, in CurriculumInput, thumbnails []storage.Blob) error {
	if err := checkPayload(in); err != nil {
		return err
	}
	return w.inTx(ctx, func(tx *gorm.DB, media *mediaBatch) error {
		drafts := w.drafts.WithTx(tx)
		if _, err := owned(drafts, draftID, ownerID); err != nil {
			return err
		}
		old, err := drafts.DeleteChapters(draftID)
		if err != nil {
			return err
		}
		media.release(old...)

		queue := blobQueue(thumbnails)
		var names []string
		var chapterIDs []uint
		for i, ch := range in.Chapters {
			chapter := models.DraftChapter{Name: *ch.Name, DraftID: draftID, Order: i + 1}
			if blob, ok := queue.next(); ok {
				key, err := media.put(ctx, storage.NewImageKey(), blob)
				if err != nil {
					return err
				}
				chapter.ThumbnailKey = key
			}
			if err := drafts.CreateChapter(&chapter); err != nil {
				return err
			}
			for _, l := range ch.Lectures {
				names = append(names, *l.Name)
				chapterIDs = append(chapterIDs, chapter.ID)
			}
		}

		for i, order := range LectureOrders(names) {
			lecture := models.DraftLecture{
				Name:           names[i],
				DraftChapterID: chapterIDs[i],
				DraftID:        draftID,
				Order:          order,
			}
			if err := drafts.CreateLecture(&lecture); err != nil {
				return err
			}
		}
		w.log.Info("draft curriculum saved",
			zap.Uint("draft_id", draftID), zap.Int("chapters", len(in.Chapters)), zap.Int("lectures", len(names)))
		return nil
	})
}

func (w *Wizard) Curriculum(ctx context.Context, draftID, ownerID uint) ([]ChapterView, error) {
	draft, err := w.readable(ctx, draftID, ownerID)
	if err != nil || draft == nil {
		return []ChapterView{}, err
	}
	chapters, err := w.drafts.WithTx(w.db.WithContext(ctx)).Chapters(draftID)
	if err != nil {
		return nil, err
	}
	views := make([]ChapterView, 0, len(chapters))
	for _, ch := range chapters {
		view := ChapterView{
			ChapterID: ch.ID,
			Name:      ch.Name,
			Order:     ch.Order,
			MainImage: storage.URLOrNil(w.relay, ch.ThumbnailKey),
			Lectures:  make([]LectureView, 0, len(ch.Lectures)),
		}
		for _, l := range ch.Lectures {
			view.Lectures = append(view.Lectures, LectureView{LectureID: l.ID, Name: l.Name, Order: l.Order})
		}
		views = append(views, view)
	}
	return views, nil
}

// SaveLectureContents replaces every content row of the draft. Each listed
// lecture takes the next pending video, if any, and each content block the
// next pending image, if any.
func (w *Wizard) SaveLectureContents(ctx context.Context, draftID, ownerID uint, in LectureContentsInput, videos, images []storage.Blob) error {
	if err := checkPayload(in); err != nil {
		return err
	}
	return w.inTx(ctx, func(tx *gorm.DB, media *mediaBatch) error {
		drafts := w.drafts.WithTx(tx)
		if _, err := owned(drafts, draftID, ownerID); err != nil {
			return err
		}
		old, err := drafts.DeleteLectureContents(draftID)
		if err != nil {
			return err
		}
		media.release(old...)

		videoQueue, imageQueue := blobQueue(videos), blobQueue(images)
		for _, entry := range in.Lectures {
			lecture, err := drafts.Lecture(draftID, *entry.LectureID)
			if err != nil {
				return err
			}
			if blob, ok := videoQueue.next(); ok {
				key, err := media.put(ctx, storage.NewVideoKey(), blob)
				if err != nil {
					return err
				}
				media.release(lecture.VideoKey)
				if err := drafts.SetLectureVideo(lecture.ID, key); err != nil {
					return err
				}
			}

			for i, c := range entry.Contents {
				var image *models.DraftContentImage
				if blob, ok := imageQueue.next(); ok {
					key, err := media.put(ctx, storage.NewImageKey(), blob)
					if err != nil {
						return err
					}
					image = &models.DraftContentImage{ImageKey: key, DraftLectureID: lecture.ID, DraftID: draftID}
				}
				err := drafts.CreateContent(image,
					&models.DraftContentDescription{Description: *c.Description, DraftLectureID: lecture.ID, DraftID: draftID},
					&models.DraftLectureContent{DraftLectureID: lecture.ID, DraftID: draftID, Order: i + 1},
				)
				if err != nil {
					return err
				}
			}
		}
		w.log.Info("draft lecture contents saved",
			zap.Uint("draft_id", draftID), zap.Int("lectures", len(in.Lectures)),
			zap.Int("videos", len(videos)), zap.Int("images", len(images)))
		return nil
	})
}

// LectureContents renders the curriculum with each lecture's video and
// content blocks.
func (w *Wizard) LectureContents(ctx context.Context, draftID, ownerID uint) ([]ChapterView, error) {
	draft, err := w.readable(ctx, draftID, ownerID)
	if err != nil || draft == nil {
		return []ChapterView{}, err
	}
	drafts := w.drafts.WithTx(w.db.WithContext(ctx))
	chapters, err := drafts.Chapters(draftID)
	if err != nil {
		return nil, err
	}
	contents, err := drafts.LectureContents(draftID)
	if err != nil {
		return nil, err
	}
	byLecture := make(map[uint][]ContentView)
	for _, c := range contents {
		view := ContentView{Order: c.Order}
		if c.Image != nil {
			view.Image = storage.URLOrNil(w.relay, c.Image.ImageKey)
		}
		if c.Description != nil {
			view.Description = c.Description.Description
		}
		byLecture[c.DraftLectureID] = append(byLecture[c.DraftLectureID], view)
	}

	views := make([]ChapterView, 0, len(chapters))
	for _, ch := range chapters {
		view := ChapterView{
			ChapterID: ch.ID,
			Name:      ch.Name,
			Order:     ch.Order,
			MainImage: storage.URLOrNil(w.relay, ch.ThumbnailKey),
			Lectures:  make([]LectureView, 0, len(ch.Lectures)),
		}
		for _, l := range ch.Lectures {
			lv := LectureView{
				LectureID: l.ID,
				Name:      l.Name,
				Order:     l.Order,
				VideoURL:  storage.URLOrNil(w.relay, l.VideoKey),
				Duration:  l.Duration,
				Contents:  byLecture[l.ID],
			}
			if lv.Contents == nil {
				lv.Contents = []ContentView{}
			}
			view.Lectures = append(view.Lectures, lv)
		}
		views = append(views, view)
	}
	return views, nil
}

// SaveKits replaces the draft's kits. Each kit takes the next pending image,
// if any.
func (w *Wizard) SaveKits(ctx context.Context, draftID, ownerID uint, in KitsInput, images []storage.Blob) error {
	if err := checkPayload(in); err != nil {
		return err
	}
	return w.inTx(ctx, func(tx *gorm.DB, media *mediaBatch) error {
		drafts := w.drafts.WithTx(tx)
		if _, err := owned(drafts, draftID, ownerID); err != nil {
			return err
		}
		old, err := drafts.DeleteKits(draftID)
		if err != nil {
			return err
		}
		media.release(old...)

		queue := blobQueue(images)
		for _, k := range in.Kits {
			kit := models.DraftKit{Name: *k.Name, Price: k.Price, DraftID: draftID}
			if err := drafts.CreateKit(&kit); err != nil {
				return err
			}
			blob, ok := queue.next()
			if !ok {
				continue
			}
			key, err := media.put(ctx, storage.NewImageKey(), blob)
			if err != nil {
				return err
			}
			if err := drafts.CreateKitImage(&models.DraftKitImage{ImageKey: key, DraftKitID: kit.ID, DraftID: draftID}); err != nil {
				return err
			}
		}
		w.log.Info("draft kits saved", zap.Uint("draft_id", draftID), zap.Int("kits", len(in.Kits)))
		return nil
	})
}

func (w *Wizard) Kits(ctx context.Context, draftID, ownerID uint) ([]KitView, error) {
	draft, err := w.readable(ctx, draftID, ownerID)
	if err != nil || draft == nil {
		return []KitView{}, err
	}
	kits, err := w.drafts.WithTx(w.db.WithContext(ctx)).Kits(draftID)
	if err != nil {
		return nil, err
	}
	views := make([]KitView, 0, len(kits))
	for _, k := range kits {
		view := KitView{ID: k.ID, Name: k.Name, Price: k.Price, Images: make([]string, 0, len(k.Images))}
		for _, img := range k.Images {
			view.Images = append(view.Images, w.relay.URL(img.ImageKey))
		}
		views = append(views, view)
	}
	return views, nil
}
