package services

import (
	"context"
	"errors"
	"testing"

	"classmarket/backend/models"
	"classmarket/backend/repository"
	"classmarket/backend/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func (f *fixture) promoter() *Promoter {
	return NewPromoter(f.db, f.relay, zap.NewNop())
}

// fullDraft builds a draft with a cover image, chapters A [a1 a2] and B [b1],
// one content block per lecture and the given kits.
func (f *fixture) fullDraft(t *testing.T, draftID, owner uint, kits ...string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.wizard.SaveBasicInfo(ctx, draftID, owner, basicInfo("Course"), []storage.Blob{blob("cover")}))
	require.NoError(t, f.wizard.SaveCurriculum(ctx, draftID, owner,
		curriculum(map[string][]string{"A": {"a1", "a2"}, "B": {"b1"}}, "A", "B"),
		[]storage.Blob{blob("thumbA"), blob("thumbB")}))

	chapters, err := f.wizard.Curriculum(ctx, draftID, owner)
	require.NoError(t, err)
	var entries []LectureContentInput
	for _, ch := range chapters {
		for _, l := range ch.Lectures {
			entries = append(entries, LectureContentInput{
				LectureID: uintp(l.LectureID),
				Contents:  []ContentInput{{Description: strp("about " + l.Name)}},
			})
		}
	}
	require.NoError(t, f.wizard.SaveLectureContents(ctx, draftID, owner,
		LectureContentsInput{Lectures: entries},
		[]storage.Blob{blob("v1"), blob("v2"), blob("v3")},
		[]storage.Blob{blob("content")}))

	in := KitsInput{Kits: []KitInput{}}
	images := make([]storage.Blob, 0, len(kits))
	for _, k := range kits {
		in.Kits = append(in.Kits, KitInput{Name: strp(k), Price: i64p(500)})
		images = append(images, blob(k))
	}
	require.NoError(t, f.wizard.SaveKits(ctx, draftID, owner, in, images))
}

func TestPromoteCopiesDraft(t *testing.T) {
	f := newFixture(t)
	f.fullDraft(t, 5, 1, "Brush")
	keysBefore := f.relay.Keys()

	product, err := f.promoter().Promote(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.Equal(t, "Course", product.Name)
	assert.Equal(t, int64(10000), product.Price)
	require.NotNil(t, product.CreatorID)
	assert.Equal(t, uint(1), *product.CreatorID)

	loaded, err := repository.NewCatalogRepository(f.db, nil).Product(context.Background(), product.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Chapters, 2)
	assert.Equal(t, "A", loaded.Chapters[0].Name)
	assert.Equal(t, 1, loaded.Chapters[0].Order)
	assert.NotEmpty(t, loaded.Chapters[0].ThumbnailImage)
	assert.Equal(t, "B", loaded.Chapters[1].Name)
	require.Len(t, loaded.Chapters[0].Lectures, 2)
	assert.Equal(t, "a1", loaded.Chapters[0].Lectures[0].Name)
	assert.Equal(t, "a2", loaded.Chapters[0].Lectures[1].Name)
	require.NotNil(t, loaded.Chapters[0].Lectures[0].Video)
	assert.NotEmpty(t, loaded.Chapters[0].Lectures[0].Video.VideoURL)
	require.Len(t, loaded.SubImages, 1)
	assert.Equal(t, loaded.ThumbnailImage, loaded.SubImages[0].ImageURL)
	require.Len(t, loaded.ProductKits, 1)
	assert.Equal(t, "Brush", loaded.ProductKits[0].Kit.Name)
	assert.Equal(t, int64(500), loaded.ProductKits[0].Kit.Price)

	var contents []models.LectureContent
	require.NoError(t, f.db.Where("product_id = ?", product.ID).Find(&contents).Error)
	assert.Len(t, contents, 3)
	var withImage int
	for _, c := range contents {
		if c.ImageID != nil {
			withImage++
		}
	}
	assert.Equal(t, 1, withImage)

	_, err = repository.NewDraftRepository(f.db).Find(5)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.ElementsMatch(t, keysBefore, f.relay.Keys(), "carried media stays in the relay")
}

func TestPromoteWithoutImagesIsIncomplete(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.wizard.SaveBasicInfo(context.Background(), 5, 1, basicInfo("Course"), nil))

	_, err := f.promoter().Promote(context.Background(), 5, 1)
	assert.True(t, errors.Is(err, ErrIncomplete))

	_, err = repository.NewDraftRepository(f.db).Find(5)
	assert.NoError(t, err)
}

func TestPromoteOwnership(t *testing.T) {
	f := newFixture(t)
	f.fullDraft(t, 5, 1)

	_, err := f.promoter().Promote(context.Background(), 5, 2)
	assert.True(t, errors.Is(err, ErrForbidden))

	_, err = f.promoter().Promote(context.Background(), 77, 1)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestPromoteRollsBackOnUnresolvedLecture(t *testing.T) {
	f := newFixture(t)
	f.fullDraft(t, 5, 1)
	f.fullDraft(t, 6, 1)

	// A content row of draft 5 pointing at a lecture that only exists in
	// draft 6 cannot be resolved inside the promoted product.
	drafts := repository.NewDraftRepository(f.db)
	ghost := models.DraftLecture{Name: "ghost", DraftChapterID: 1, DraftID: 6, Order: 1}
	require.NoError(t, drafts.CreateLecture(&ghost))
	require.NoError(t, drafts.CreateContent(nil,
		&models.DraftContentDescription{Description: "lost", DraftLectureID: ghost.ID, DraftID: 5},
		&models.DraftLectureContent{DraftLectureID: ghost.ID, DraftID: 5, Order: 1},
	))
	keysBefore := f.relay.Keys()

	_, err := f.promoter().Promote(context.Background(), 5, 1)
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)

	var products, chapters, lectures int64
	require.NoError(t, f.db.Model(&models.Product{}).Count(&products).Error)
	require.NoError(t, f.db.Model(&models.Chapter{}).Count(&chapters).Error)
	require.NoError(t, f.db.Model(&models.Lecture{}).Count(&lectures).Error)
	assert.Zero(t, products)
	assert.Zero(t, chapters)
	assert.Zero(t, lectures)

	_, err = drafts.Find(5)
	assert.NoError(t, err)
	assert.ElementsMatch(t, keysBefore, f.relay.Keys())
}

func TestPromoteSharesKitsAcrossCreators(t *testing.T) {
	f := newFixture(t)
	f.fullDraft(t, 5, 1, "Brush")
	f.fullDraft(t, 6, 2, "Brush")

	first, err := f.promoter().Promote(context.Background(), 5, 1)
	require.NoError(t, err)
	second, err := f.promoter().Promote(context.Background(), 6, 2)
	require.NoError(t, err)

	var kits []models.Kit
	require.NoError(t, f.db.Preload("SubImages").Find(&kits).Error)
	require.Len(t, kits, 1)
	assert.Len(t, kits[0].SubImages, 2)

	var links []models.ProductKit
	require.NoError(t, f.db.Where("kit_id = ?", kits[0].ID).Order("product_id").Find(&links).Error)
	require.Len(t, links, 2)
	assert.Equal(t, first.ID, links[0].ProductID)
	assert.Equal(t, second.ID, links[1].ProductID)
}

func TestPromoteMergesChaptersByName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.wizard.SaveBasicInfo(ctx, 5, 1, basicInfo("Course"), []storage.Blob{blob("cover")}))
	require.NoError(t, f.wizard.SaveCurriculum(ctx, 5, 1, CurriculumInput{Chapters: []ChapterInput{
		{Name: strp("Intro"), Lectures: []LectureInput{{Name: strp("hello")}}},
		{Name: strp("Intro"), Lectures: []LectureInput{{Name: strp("again")}}},
	}}, []storage.Blob{blob("t1"), blob("t2")}))
	require.Len(t, f.relay.Keys(), 3)

	product, err := f.promoter().Promote(ctx, 5, 1)
	require.NoError(t, err)

	var chapters []models.Chapter
	require.NoError(t, f.db.Preload("Lectures").Where("product_id = ?", product.ID).Find(&chapters).Error)
	require.Len(t, chapters, 1)
	assert.Equal(t, 1, chapters[0].Order)
	assert.Len(t, chapters[0].Lectures, 2)

	// The second chapter's thumbnail is not referenced anymore.
	keys := f.relay.Keys()
	assert.Len(t, keys, 2)
	assert.Contains(t, keys, chapters[0].ThumbnailImage)
	assert.Contains(t, keys, product.ThumbnailImage)
}

func TestPromoteKeepsContentOnItsOwnLecture(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.wizard.SaveBasicInfo(ctx, 5, 1, basicInfo("Course"), []storage.Blob{blob("cover")}))
	require.NoError(t, f.wizard.SaveCurriculum(ctx, 5, 1,
		curriculum(map[string][]string{"A": {"x"}, "B": {"x"}}, "A", "B"), nil))

	chapters, err := f.wizard.Curriculum(ctx, 5, 1)
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	var entries []LectureContentInput
	for _, ch := range chapters {
		require.Len(t, ch.Lectures, 1)
		entries = append(entries, LectureContentInput{
			LectureID: uintp(ch.Lectures[0].LectureID),
			Contents:  []ContentInput{{Description: strp("for " + ch.Name)}},
		})
	}
	require.NoError(t, f.wizard.SaveLectureContents(ctx, 5, 1, LectureContentsInput{Lectures: entries}, nil, nil))

	product, err := f.promoter().Promote(ctx, 5, 1)
	require.NoError(t, err)

	var published []models.Chapter
	require.NoError(t, f.db.Preload("Lectures").Where("product_id = ?", product.ID).Order("sort_order, id").Find(&published).Error)
	require.Len(t, published, 2)
	for _, ch := range published {
		require.Len(t, ch.Lectures, 1)
		assert.Equal(t, "x", ch.Lectures[0].Name)

		var contents []models.LectureContent
		require.NoError(t, f.db.Preload("Description").Where("lecture_id = ?", ch.Lectures[0].ID).Find(&contents).Error)
		require.Len(t, contents, 1, "chapter %s", ch.Name)
		assert.Equal(t, "for "+ch.Name, contents[0].Description.Description)
	}
}
