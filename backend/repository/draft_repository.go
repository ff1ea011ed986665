package repository

import (
	"classmarket/backend/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DraftRepository reads and rewrites the draft tables. Every method runs on
// the handle it was built with, so bind it to a transaction with WithTx
// before mutating.
type DraftRepository struct {
	db *gorm.DB
}

func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

func (r *DraftRepository) WithTx(tx *gorm.DB) *DraftRepository {
	return &DraftRepository{db: tx}
}

func (r *DraftRepository) Find(id uint) (*models.Draft, error) {
	var draft models.Draft
	if err := r.db.First(&draft, id).Error; err != nil {
		return nil, notFound(err, "draft")
	}
	return &draft, nil
}

// Save inserts a new draft or updates the scalar columns of an existing one.
func (r *DraftRepository) Save(draft *models.Draft, isNew bool) error {
	if isNew {
		return r.db.Omit(clause.Associations).Create(draft).Error
	}
	return r.db.Omit(clause.Associations).Save(draft).Error
}

func (r *DraftRepository) Images(draftID uint) ([]models.DraftImage, error) {
	var images []models.DraftImage
	err := r.db.Where("draft_id = ?", draftID).Order("id").Find(&images).Error
	return images, err
}

func (r *DraftRepository) CreateImage(image *models.DraftImage) error {
	return r.db.Create(image).Error
}

// DeleteImages removes every gallery image of the draft and returns the
// media keys that were referenced.
func (r *DraftRepository) DeleteImages(draftID uint) ([]string, error) {
	images, err := r.Images(draftID)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(images))
	for _, img := range images {
		keys = append(keys, img.ImageKey)
	}
	if err := r.db.Where("draft_id = ?", draftID).Delete(&models.DraftImage{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// Chapters returns the curriculum ordered by chapter and lecture position.
func (r *DraftRepository) Chapters(draftID uint) ([]models.DraftChapter, error) {
	var chapters []models.DraftChapter
	err := r.db.
		Preload("Lectures", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("draft_id = ?", draftID).
		Order("sort_order, id").
		Find(&chapters).Error
	return chapters, err
}

func (r *DraftRepository) CreateChapter(chapter *models.DraftChapter) error {
	return r.db.Omit(clause.Associations).Create(chapter).Error
}

func (r *DraftRepository) CreateLecture(lecture *models.DraftLecture) error {
	return r.db.Omit(clause.Associations).Create(lecture).Error
}

// Lecture returns a lecture only when it belongs to the given draft.
func (r *DraftRepository) Lecture(draftID, lectureID uint) (*models.DraftLecture, error) {
	var lecture models.DraftLecture
	if err := r.db.Where("id = ? AND draft_id = ?", lectureID, draftID).First(&lecture).Error; err != nil {
		return nil, notFound(err, "lecture")
	}
	return &lecture, nil
}

func (r *DraftRepository) SetLectureVideo(lectureID uint, key string) error {
	return r.db.Model(&models.DraftLecture{}).Where("id = ?", lectureID).Update("video_key", key).Error
}

// DeleteChapters wipes the curriculum together with everything hanging off
// the lectures, returning thumbnail, video and content image keys.
func (r *DraftRepository) DeleteChapters(draftID uint) ([]string, error) {
	keys, err := r.DeleteLectureContents(draftID)
	if err != nil {
		return nil, err
	}

	var lectures []models.DraftLecture
	if err := r.db.Where("draft_id = ?", draftID).Find(&lectures).Error; err != nil {
		return nil, err
	}
	for _, l := range lectures {
		if l.VideoKey != "" {
			keys = append(keys, l.VideoKey)
		}
	}
	var chapters []models.DraftChapter
	if err := r.db.Where("draft_id = ?", draftID).Find(&chapters).Error; err != nil {
		return nil, err
	}
	for _, c := range chapters {
		if c.ThumbnailKey != "" {
			keys = append(keys, c.ThumbnailKey)
		}
	}

	if err := r.db.Where("draft_id = ?", draftID).Delete(&models.DraftLecture{}).Error; err != nil {
		return nil, err
	}
	if err := r.db.Where("draft_id = ?", draftID).Delete(&models.DraftChapter{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *DraftRepository) CreateContent(image *models.DraftContentImage, desc *models.DraftContentDescription, content *models.DraftLectureContent) error {
	if image != nil {
		if err := r.db.Create(image).Error; err != nil {
			return err
		}
		content.ImageID = &image.ID
	}
	if err := r.db.Create(desc).Error; err != nil {
		return err
	}
	content.DescriptionID = &desc.ID
	return r.db.Omit(clause.Associations).Create(content).Error
}

// LectureContents returns the draft's content rows with their image,
// description and owning lecture, in lecture then position order.
func (r *DraftRepository) LectureContents(draftID uint) ([]models.DraftLectureContent, error) {
	var contents []models.DraftLectureContent
	err := r.db.
		Preload("Image").
		Preload("Description").
		Preload("DraftLecture").
		Where("draft_id = ?", draftID).
		Order("draft_lecture_id, sort_order, id").
		Find(&contents).Error
	return contents, err
}

// DeleteLectureContents removes content rows, content images and
// descriptions of the draft and returns the content image keys.
func (r *DraftRepository) DeleteLectureContents(draftID uint) ([]string, error) {
	var images []models.DraftContentImage
	if err := r.db.Where("draft_id = ?", draftID).Find(&images).Error; err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(images))
	for _, img := range images {
		keys = append(keys, img.ImageKey)
	}
	if err := r.db.Where("draft_id = ?", draftID).Delete(&models.DraftLectureContent{}).Error; err != nil {
		return nil, err
	}
	if err := r.db.Where("draft_id = ?", draftID).Delete(&models.DraftContentImage{}).Error; err != nil {
		return nil, err
	}
	if err := r.db.Where("draft_id = ?", draftID).Delete(&models.DraftContentDescription{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

func (r *DraftRepository) Kits(draftID uint) ([]models.DraftKit, error) {
	var kits []models.DraftKit
	err := r.db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Where("draft_id = ?", draftID).
		Order("id").
		Find(&kits).Error
	return kits, err
}

func (r *DraftRepository) CreateKit(kit *models.DraftKit) error {
	return r.db.Omit(clause.Associations).Create(kit).Error
}

func (r *DraftRepository) CreateKitImage(image *models.DraftKitImage) error {
	return r.db.Omit(clause.Associations).Create(image).Error
}

func (r *DraftRepository) DeleteKits(draftID uint) ([]string, error) {
	var images []models.DraftKitImage
	if err := r.db.Where("draft_id = ?", draftID).Find(&images).Error; err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(images))
	for _, img := range images {
		keys = append(keys, img.ImageKey)
	}
	if err := r.db.Where("draft_id = ?", draftID).Delete(&models.DraftKitImage{}).Error; err != nil {
		return nil, err
	}
	if err := r.db.Where("draft_id = ?", draftID).Delete(&models.DraftKit{}).Error; err != nil {
		return nil, err
	}
	return keys, nil
}

// Graph loads the whole draft for promotion. Lectures come back in creation
// order, which is chapter order followed by position inside the chapter.
func (r *DraftRepository) Graph(draftID uint) (*models.Draft, error) {
	var draft models.Draft
	err := r.db.
		Preload("Images", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Preload("Lectures", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Lectures.DraftChapter").
		Preload("LectureContents", func(db *gorm.DB) *gorm.DB { return db.Order("draft_lecture_id, sort_order, id") }).
		Preload("LectureContents.Image").
		Preload("LectureContents.Description").
		Preload("LectureContents.DraftLecture").
		Preload("Kits", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("KitImages", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("KitImages.DraftKit").
		First(&draft, draftID).Error
	if err != nil {
		return nil, notFound(err, "draft")
	}
	return &draft, nil
}

// MediaKeys lists every media key a loaded draft graph references.
func MediaKeys(draft *models.Draft) []string {
	var keys []string
	add := func(k string) {
		if k != "" {
			keys = append(keys, k)
		}
	}
	for _, img := range draft.Images {
		add(img.ImageKey)
	}
	for _, c := range draft.Chapters {
		add(c.ThumbnailKey)
	}
	for _, l := range draft.Lectures {
		add(l.VideoKey)
	}
	for _, c := range draft.LectureContents {
		if c.Image != nil {
			add(c.Image.ImageKey)
		}
	}
	for _, k := range draft.KitImages {
		add(k.ImageKey)
	}
	return keys
}

// Delete removes the draft and all of its child rows.
func (r *DraftRepository) Delete(draftID uint) error {
	if _, err := r.DeleteKits(draftID); err != nil {
		return err
	}
	if _, err := r.DeleteChapters(draftID); err != nil {
		return err
	}
	if _, err := r.DeleteImages(draftID); err != nil {
		return err
	}
	return r.db.Delete(&models.Draft{}, draftID).Error
}
