package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"classmarket/backend/cache"
	"classmarket/backend/models"
	"classmarket/backend/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func seedDraft(t *testing.T, db *gorm.DB, id, owner uint) {
	t.Helper()
	repo := NewDraftRepository(db)
	require.NoError(t, repo.Save(&models.Draft{ID: id, UserID: owner, Name: "draft", Price: 1000}, true))
	require.NoError(t, repo.CreateImage(&models.DraftImage{ImageKey: "images/cover", DraftID: id}))

	chapter := models.DraftChapter{Name: "Intro", ThumbnailKey: "images/thumb", DraftID: id, Order: 1}
	require.NoError(t, repo.CreateChapter(&chapter))
	lecture := models.DraftLecture{Name: "Hello", VideoKey: "videos/v1", DraftChapterID: chapter.ID, DraftID: id, Order: 1}
	require.NoError(t, repo.CreateLecture(&lecture))

	require.NoError(t, repo.CreateContent(
		&models.DraftContentImage{ImageKey: "images/content", DraftLectureID: lecture.ID, DraftID: id},
		&models.DraftContentDescription{Description: "first", DraftLectureID: lecture.ID, DraftID: id},
		&models.DraftLectureContent{DraftLectureID: lecture.ID, DraftID: id, Order: 1},
	))

	kit := models.DraftKit{Name: "Brush", DraftID: id}
	require.NoError(t, repo.CreateKit(&kit))
	require.NoError(t, repo.CreateKitImage(&models.DraftKitImage{ImageKey: "images/kit", DraftKitID: kit.ID, DraftID: id}))
}

func TestDraftRepositoryFindMissing(t *testing.T) {
	repo := NewDraftRepository(testutil.NewDB(t))
	_, err := repo.Find(42)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDraftRepositoryGraphAndMediaKeys(t *testing.T) {
	db := testutil.NewDB(t)
	seedDraft(t, db, 7, 1)

	graph, err := NewDraftRepository(db).Graph(7)
	require.NoError(t, err)
	require.Len(t, graph.Lectures, 1)
	require.NotNil(t, graph.Lectures[0].DraftChapter)
	assert.Equal(t, "Intro", graph.Lectures[0].DraftChapter.Name)
	require.Len(t, graph.LectureContents, 1)
	assert.Equal(t, "first", graph.LectureContents[0].Description.Description)
	require.Len(t, graph.KitImages, 1)
	assert.Equal(t, "Brush", graph.KitImages[0].DraftKit.Name)

	assert.ElementsMatch(t,
		[]string{"images/cover", "images/thumb", "videos/v1", "images/content", "images/kit"},
		MediaKeys(graph))
}

func TestDraftRepositoryDeleteChaptersReturnsMedia(t *testing.T) {
	db := testutil.NewDB(t)
	seedDraft(t, db, 7, 1)
	repo := NewDraftRepository(db)

	keys, err := repo.DeleteChapters(7)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"images/content", "videos/v1", "images/thumb"}, keys)

	chapters, err := repo.Chapters(7)
	require.NoError(t, err)
	assert.Empty(t, chapters)
	contents, err := repo.LectureContents(7)
	require.NoError(t, err)
	assert.Empty(t, contents)
}

func TestDraftRepositoryLectureScopedToDraft(t *testing.T) {
	db := testutil.NewDB(t)
	seedDraft(t, db, 7, 1)
	seedDraft(t, db, 8, 1)
	repo := NewDraftRepository(db)

	chapters, err := repo.Chapters(8)
	require.NoError(t, err)
	otherLecture := chapters[0].Lectures[0].ID

	_, err = repo.Lecture(7, otherLecture)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = repo.Lecture(8, otherLecture)
	assert.NoError(t, err)
}

func TestDraftRepositoryDelete(t *testing.T) {
	db := testutil.NewDB(t)
	seedDraft(t, db, 7, 1)
	repo := NewDraftRepository(db)

	require.NoError(t, repo.Delete(7))
	_, err := repo.Find(7)
	assert.True(t, errors.Is(err, ErrNotFound))

	for _, table := range []interface{}{
		&models.DraftImage{}, &models.DraftChapter{}, &models.DraftLecture{},
		&models.DraftLectureContent{}, &models.DraftContentImage{},
		&models.DraftContentDescription{}, &models.DraftKit{}, &models.DraftKitImage{},
	} {
		var n int64
		require.NoError(t, db.Model(table).Count(&n).Error)
		assert.Zero(t, n)
	}
}

func TestCatalogRepositoryLookups(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewCatalogRepository(db, nil)

	category, err := repo.MainCategoryByName("커리어")
	require.NoError(t, err)
	assert.Equal(t, "커리어", category.Name)

	_, err = repo.SubCategoryByName("없는 카테고리")
	assert.True(t, errors.Is(err, ErrNotFound))

	categories, err := repo.Categories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 3)
	assert.Equal(t, "크리에이티브", categories[0].Name)
	assert.Len(t, categories[0].SubCategories, 4)

	difficulties, err := repo.Difficulties(context.Background())
	require.NoError(t, err)
	assert.Len(t, difficulties, 4)
}

func TestCatalogRepositoryServesCachedLookups(t *testing.T) {
	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	lookups := cache.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute, zap.NewNop())
	repo := NewCatalogRepository(db, lookups)
	ctx := context.Background()

	difficulties, err := repo.Difficulties(ctx)
	require.NoError(t, err)
	require.Len(t, difficulties, 4)
	assert.True(t, mr.Exists(cache.KeyDifficulties))

	require.NoError(t, db.Create(&models.Difficulty{Name: "마스터"}).Error)
	difficulties, err = repo.Difficulties(ctx)
	require.NoError(t, err)
	assert.Len(t, difficulties, 4)

	lookups.Invalidate(ctx, cache.LookupKeys...)
	difficulties, err = repo.Difficulties(ctx)
	require.NoError(t, err)
	assert.Len(t, difficulties, 5)
}
