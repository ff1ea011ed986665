package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"classmarket/backend/config"
	"classmarket/backend/models"
	"classmarket/backend/routes"
	"classmarket/backend/storage"
	"classmarket/backend/testutil"
	"classmarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testApp struct {
	app   *fiber.App
	db    *gorm.DB
	cfg   *config.Config
	relay *storage.MemoryRelay
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{JWTSecret: "testsecret", JWTTTLHours: 1}
	relay := storage.NewMemoryRelay("http://cdn.test/")

	app := fiber.New()
	routes.SetupRoutes(app, db, cfg, routes.Deps{Relay: relay, Log: zap.NewNop()})
	return &testApp{app: app, db: db, cfg: cfg, relay: relay}
}

func (ta *testApp) token(t *testing.T, user models.User) string {
	t.Helper()
	token, err := utils.GenerateJWTToken(user.ID, ta.cfg)
	require.NoError(t, err)
	return "Bearer " + token
}

type response struct {
	Status int
	Body   map[string]interface{}
}

func (r response) code() string {
	msg, _ := r.Body["message"].(string)
	return msg
}

func (r response) data() map[string]interface{} {
	data, _ := r.Body["data"].(map[string]interface{})
	return data
}

func (ta *testApp) do(t *testing.T, req *http.Request, token string) response {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := response{Status: resp.StatusCode, Body: map[string]interface{}{}}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.Body), string(raw))
	}
	return out
}

func jsonRequest(method, path string, body interface{}) *http.Request {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

// multipartRequest builds a wizard request: a "body" JSON field plus file
// parts keyed by field name.
func multipartRequest(t *testing.T, path, body string, files map[string][]string) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if body != "" {
		require.NoError(t, w.WriteField("body", body))
	}
	for field, names := range files {
		for _, name := range names {
			part, err := w.CreateFormFile(field, name)
			require.NoError(t, err)
			_, err = part.Write([]byte("content of " + name))
			require.NoError(t, err)
		}
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestRegisterAndLogin(t *testing.T) {
	ta := newTestApp(t)

	res := ta.do(t, jsonRequest(http.MethodPost, "/api/auth/register", map[string]interface{}{
		"name": "painter", "email": "Painter@Example.com", "password": "password123",
	}), "")
	require.Equal(t, fiber.StatusCreated, res.Status)
	assert.Equal(t, "painter@example.com", res.data()["email"])

	res = ta.do(t, jsonRequest(http.MethodPost, "/api/auth/register", map[string]interface{}{
		"name": "other", "email": "painter@example.com", "password": "password123",
	}), "")
	assert.Equal(t, fiber.StatusConflict, res.Status)
	assert.Equal(t, "DUPLICATED_INFORMATION", res.code())

	res = ta.do(t, jsonRequest(http.MethodPost, "/api/auth/register", map[string]interface{}{
		"name": "nopass", "email": "nopass@example.com",
	}), "")
	assert.Equal(t, fiber.StatusBadRequest, res.Status)
	assert.Equal(t, "KEY_ERROR", res.code())

	res = ta.do(t, jsonRequest(http.MethodPost, "/api/auth/register", map[string]interface{}{
		"name": "short", "email": "short@example.com", "password": "short",
	}), "")
	assert.Equal(t, "INVALID_PASSWORD", res.code())

	res = ta.do(t, jsonRequest(http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email": "painter@example.com", "password": "wrongpass1",
	}), "")
	assert.Equal(t, fiber.StatusUnauthorized, res.Status)
	assert.Equal(t, "INVALID_PASSWORD", res.code())

	res = ta.do(t, jsonRequest(http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email": "ghost@example.com", "password": "password123",
	}), "")
	assert.Equal(t, "NO_EXIST_USER", res.code())

	res = ta.do(t, jsonRequest(http.MethodPost, "/api/auth/login", map[string]interface{}{
		"email": "painter@example.com", "password": "password123",
	}), "")
	require.Equal(t, fiber.StatusOK, res.Status)
	token, _ := res.data()["token"].(string)
	require.NotEmpty(t, token)

	res = ta.do(t, httptest.NewRequest(http.MethodGet, "/api/user/profile", nil), "Bearer "+token)
	require.Equal(t, fiber.StatusOK, res.Status)
	assert.Equal(t, "painter", res.data()["nickName"])
}

func TestCreatorRoutesRequireToken(t *testing.T) {
	ta := newTestApp(t)

	res := ta.do(t, httptest.NewRequest(http.MethodGet, "/api/creator/1/first", nil), "")
	assert.Equal(t, fiber.StatusUnauthorized, res.Status)

	res = ta.do(t, httptest.NewRequest(http.MethodGet, "/api/creator/1/first", nil), "Bearer garbage")
	assert.Equal(t, fiber.StatusUnauthorized, res.Status)
}

func TestCreatorRequestErrors(t *testing.T) {
	ta := newTestApp(t)
	owner := testutil.CreateUser(t, ta.db, "owner", true)
	token := ta.token(t, owner)

	res := ta.do(t, multipartRequest(t, "/api/creator/abc/first", `{}`, nil), token)
	assert.Equal(t, fiber.StatusBadRequest, res.Status)
	assert.Equal(t, "TYPE_ERROR", res.code())

	res = ta.do(t, multipartRequest(t, "/api/creator/1/first", "", nil), token)
	assert.Equal(t, fiber.StatusBadRequest, res.Status)
	assert.Equal(t, "KEY_ERROR", res.code())

	res = ta.do(t, multipartRequest(t, "/api/creator/1/first", `{"name": 3`, nil), token)
	assert.Equal(t, "TYPE_ERROR", res.code())

	res = ta.do(t, multipartRequest(t, "/api/creator/1/first", `{"name": "no category"}`, nil), token)
	assert.Equal(t, "KEY_ERROR", res.code())

	res = ta.do(t, multipartRequest(t, "/api/creator/1/second", `{"chapters": []}`, nil), token)
	assert.Equal(t, fiber.StatusNotFound, res.Status)
	assert.Equal(t, "NOT_FOUND", res.code())

	res = ta.do(t, httptest.NewRequest(http.MethodPost, "/api/creator/1/create", nil), token)
	assert.Equal(t, fiber.StatusNotFound, res.Status)
	assert.Empty(t, ta.relay.Keys())
}

func TestCreatorRejectsBrokenMultipart(t *testing.T) {
	ta := newTestApp(t)
	owner := testutil.CreateUser(t, ta.db, "owner", true)
	token := ta.token(t, owner)

	for _, path := range []string{"/api/creator/1/first", "/api/creator/1/third"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("--cut\r\nContent-Disposition: form-data; name=\"body\"\r\n\r\n{}"))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=cut")
		res := ta.do(t, req, token)
		assert.Equal(t, fiber.StatusBadRequest, res.Status, path)
		assert.Equal(t, "INVALID_FILE", res.code(), path)
	}

	// A request without a multipart body simply carries no files.
	res := ta.do(t, jsonRequest(http.MethodPost, "/api/creator/1/first", map[string]string{"name": "x"}), token)
	assert.Equal(t, fiber.StatusBadRequest, res.Status)
	assert.Equal(t, "KEY_ERROR", res.code())
	assert.Empty(t, ta.relay.Keys())
}

func TestRegisterCannotGrantCreator(t *testing.T) {
	ta := newTestApp(t)

	res := ta.do(t, jsonRequest(http.MethodPost, "/api/auth/register", map[string]interface{}{
		"name": "sneaky", "email": "sneaky@example.com", "password": "password123", "isCreator": true,
	}), "")
	require.Equal(t, fiber.StatusCreated, res.Status)

	var user models.User
	require.NoError(t, ta.db.Where("email = ?", "sneaky@example.com").First(&user).Error)
	assert.False(t, user.IsCreator)

	res = ta.do(t, httptest.NewRequest(http.MethodGet, "/api/creator/stats", nil), ta.token(t, user))
	assert.Equal(t, fiber.StatusForbidden, res.Status)
	assert.Equal(t, "CREATOR_ONLY", res.code())
}

const basicInfoBody = `{
	"categoryName": "크리에이티브",
	"subCategoryName": "드로잉",
	"difficultyName": "입문자",
	"name": "Watercolor basics",
	"price": 50000,
	"sale": 0.2
}`

func TestCreatorWizardToProduct(t *testing.T) {
	ta := newTestApp(t)
	owner := testutil.CreateUser(t, ta.db, "owner", true)
	token := ta.token(t, owner)

	res := ta.do(t, httptest.NewRequest(http.MethodGet, "/api/creator/1/first", nil), token)
	require.Equal(t, fiber.StatusOK, res.Status)
	assert.Nil(t, res.data()["temporaryInformation"])
	assert.Len(t, res.data()["categories"], 3)

	res = ta.do(t, multipartRequest(t, "/api/creator/1/first", basicInfoBody,
		map[string][]string{"files": {"cover.bin", "side.bin"}}), token)
	require.Equal(t, fiber.StatusCreated, res.Status, res.Body)
	assert.Equal(t, "SUCCESS", res.Body["message"])
	assert.Len(t, ta.relay.Keys(), 2)

	res = ta.do(t, httptest.NewRequest(http.MethodGet, "/api/creator/1/first", nil), token)
	info, _ := res.data()["temporaryInformation"].(map[string]interface{})
	require.NotNil(t, info)
	assert.Equal(t, "Watercolor basics", info["name"])
	assert.Len(t, info["images"], 2)

	curriculum := `{"chapters": [
		{"name": "Tools", "lectures": [{"name": "Brushes"}, {"name": "Paper"}]},
		{"name": "Color", "lectures": [{"name": "Mixing"}]}
	]}`
	res = ta.do(t, multipartRequest(t, "/api/creator/1/second", curriculum,
		map[string][]string{"files": {"tools.bin", "color.bin"}}), token)
	require.Equal(t, fiber.StatusCreated, res.Status, res.Body)

	res = ta.do(t, httptest.NewRequest(http.MethodGet, "/api/creator/1/second", nil), token)
	chapters, _ := res.data()["chapters"].([]interface{})
	require.Len(t, chapters, 2)
	first := chapters[0].(map[string]interface{})
	lectures := first["lectures"].([]interface{})
	require.Len(t, lectures, 2)
	lectureID := uint(lectures[0].(map[string]interface{})["lectureId"].(float64))

	contents := fmt.Sprintf(`{"lectures": [{"lecture_id": %d, "contents": [{"description": "Pick a round brush"}]}]}`, lectureID)
	res = ta.do(t, multipartRequest(t, "/api/creator/1/third", contents,
		map[string][]string{"videos": {"brushes.mp4"}, "images": {"brush.bin"}}), token)
	require.Equal(t, fiber.StatusCreated, res.Status, res.Body)

	res = ta.do(t, multipartRequest(t, "/api/creator/1/fourth", `{"kits": [{"name": "Brush set", "price": 12000}]}`,
		map[string][]string{"files": {"kit.bin"}}), token)
	require.Equal(t, fiber.StatusCreated, res.Status, res.Body)

	res = ta.do(t, httptest.NewRequest(http.MethodGet, "/api/creator/1/fourth", nil), token)
	assert.Len(t, res.data()["kits"], 1)

	res = ta.do(t, httptest.NewRequest(http.MethodPost, "/api/creator/1/create", nil), token)
	require.Equal(t, fiber.StatusCreated, res.Status, res.Body)
	productID := uint(res.data()["productId"].(float64))

	var drafts int64
	require.NoError(t, ta.db.Model(&models.Draft{}).Count(&drafts).Error)
	assert.Zero(t, drafts)

	res = ta.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/products/%d", productID), nil), "")
	require.Equal(t, fiber.StatusOK, res.Status, res.Body)
	product := res.data()
	assert.Equal(t, "Watercolor basics", product["title"])
	assert.Equal(t, float64(40000), product["price"])
	assert.Equal(t, float64(20), product["sale"])
	assert.Equal(t, "owner", product["classOwner"])
	assert.Equal(t, "입문자 대상", product["difficulty"])
	assert.Len(t, product["curriculum"], 2)
	assert.Len(t, product["kitInfo"], 1)
	assert.Len(t, product["subImages"], 2)
	mainImage, _ := product["mainImage"].(string)
	assert.True(t, strings.HasPrefix(mainImage, "http://cdn.test/images/"), mainImage)
}

func TestDraftOfAnotherCreatorIsForbidden(t *testing.T) {
	ta := newTestApp(t)
	owner := testutil.CreateUser(t, ta.db, "owner", true)
	intruder := testutil.CreateUser(t, ta.db, "intruder", true)

	res := ta.do(t, multipartRequest(t, "/api/creator/3/first", basicInfoBody, nil), ta.token(t, owner))
	require.Equal(t, fiber.StatusCreated, res.Status, res.Body)

	for _, path := range []string{"/api/creator/3/first", "/api/creator/3/second", "/api/creator/3/fourth"} {
		res = ta.do(t, httptest.NewRequest(http.MethodGet, path, nil), ta.token(t, intruder))
		assert.Equal(t, fiber.StatusForbidden, res.Status, path)
		assert.Equal(t, "FORBIDDEN", res.code(), path)
	}

	res = ta.do(t, multipartRequest(t, "/api/creator/3/first", basicInfoBody, nil), ta.token(t, intruder))
	assert.Equal(t, fiber.StatusForbidden, res.Status)

	res = ta.do(t, httptest.NewRequest(http.MethodPost, "/api/creator/3/create", nil), ta.token(t, intruder))
	assert.Equal(t, fiber.StatusForbidden, res.Status)
}

func TestProductNotExist(t *testing.T) {
	ta := newTestApp(t)
	deleted := models.Product{Name: "Gone", Price: 1000, IsDeleted: true}
	require.NoError(t, ta.db.Create(&deleted).Error)

	for _, path := range []string{"/api/products/999", fmt.Sprintf("/api/products/%d", deleted.ID)} {
		res := ta.do(t, httptest.NewRequest(http.MethodGet, path, nil), "")
		assert.Equal(t, fiber.StatusNotFound, res.Status, path)
		assert.Equal(t, "PRODUCT_NOT_EXIST", res.code(), path)
	}

	res := ta.do(t, httptest.NewRequest(http.MethodGet, "/api/products/abc", nil), "")
	assert.Equal(t, "TYPE_ERROR", res.code())
}

func TestProductLikeAndRecentlyViewed(t *testing.T) {
	ta := newTestApp(t)
	user := testutil.CreateUser(t, ta.db, "viewer", false)
	token := ta.token(t, user)
	product := models.Product{Name: "Pottery", Price: 30000}
	require.NoError(t, ta.db.Create(&product).Error)
	path := fmt.Sprintf("/api/products/%d", product.ID)

	res := ta.do(t, httptest.NewRequest(http.MethodPost, path+"/like", nil), token)
	require.Equal(t, fiber.StatusOK, res.Status)
	assert.Equal(t, true, res.data()["isLike"])
	assert.Equal(t, float64(1), res.data()["likeCount"])

	for i := 0; i < 2; i++ {
		res = ta.do(t, httptest.NewRequest(http.MethodGet, path, nil), token)
		require.Equal(t, fiber.StatusOK, res.Status)
		assert.Equal(t, true, res.data()["isLike"])
	}
	var views int64
	require.NoError(t, ta.db.Model(&models.RecentlyView{}).Count(&views).Error)
	assert.Equal(t, int64(1), views)

	res = ta.do(t, httptest.NewRequest(http.MethodGet, "/api/user/likes", nil), token)
	require.Equal(t, fiber.StatusOK, res.Status)
	assert.Equal(t, float64(1), res.Body["total"])

	res = ta.do(t, httptest.NewRequest(http.MethodPost, path+"/like", nil), token)
	assert.Equal(t, false, res.data()["isLike"])
	assert.Equal(t, float64(0), res.data()["likeCount"])
}

func TestSearchProducts(t *testing.T) {
	ta := newTestApp(t)
	var drawing models.SubCategory
	require.NoError(t, ta.db.Where("name = ?", "드로잉").First(&drawing).Error)
	require.NoError(t, ta.db.Create(&models.Product{Name: "Pencil sketching", Price: 1000, SubCategoryID: &drawing.ID}).Error)
	require.NoError(t, ta.db.Create(&models.Product{Name: "Stock investing", Price: 1000}).Error)
	require.NoError(t, ta.db.Create(&models.Product{Name: "Hidden sketch", Price: 1000, IsDeleted: true}).Error)

	res := ta.do(t, httptest.NewRequest(http.MethodGet, "/api/products?search=SKETCH", nil), "")
	require.Equal(t, fiber.StatusOK, res.Status)
	assert.Equal(t, float64(1), res.Body["total"])

	res = ta.do(t, httptest.NewRequest(http.MethodGet, "/api/products?category=%EB%93%9C%EB%A1%9C%EC%9E%89", nil), "")
	assert.Equal(t, float64(1), res.Body["total"])

	res = ta.do(t, httptest.NewRequest(http.MethodGet, "/api/products?sort=popular&page_size=1", nil), "")
	assert.Equal(t, float64(2), res.Body["total"])
	assert.Len(t, res.Body["data"], 1)
}

func TestOverviewLookups(t *testing.T) {
	ta := newTestApp(t)

	res := ta.do(t, httptest.NewRequest(http.MethodGet, "/api/overview/lookups", nil), "")
	require.Equal(t, fiber.StatusOK, res.Status)
	assert.Len(t, res.data()["categories"], 3)
	assert.Len(t, res.data()["difficulties"], 4)

	res = ta.do(t, httptest.NewRequest(http.MethodGet, "/api/overview", nil), "")
	require.Equal(t, fiber.StatusOK, res.Status)
	assert.Len(t, res.data()["newest"], 0)
}

func TestCreatorStatsIsCreatorOnly(t *testing.T) {
	ta := newTestApp(t)
	student := testutil.CreateUser(t, ta.db, "student", false)

	res := ta.do(t, httptest.NewRequest(http.MethodGet, "/api/creator/stats", nil), ta.token(t, student))
	assert.Equal(t, fiber.StatusForbidden, res.Status)
	assert.Equal(t, "CREATOR_ONLY", res.code())
}

func TestPurchaseProgressAndStats(t *testing.T) {
	ta := newTestApp(t)
	creator := testutil.CreateUser(t, ta.db, "maker", true)
	student := testutil.CreateUser(t, ta.db, "learner", false)
	studentToken := ta.token(t, student)

	product := models.Product{Name: "Knitting", Price: 10000, Sale: 0.1, CreatorID: &creator.ID}
	require.NoError(t, ta.db.Create(&product).Error)
	chapter := models.Chapter{Name: "Basics", ProductID: product.ID, Order: 1}
	require.NoError(t, ta.db.Create(&chapter).Error)
	lecture := models.Lecture{Name: "Casting on", ProductID: product.ID, ChapterID: &chapter.ID, Order: 1}
	require.NoError(t, ta.db.Create(&lecture).Error)
	base := fmt.Sprintf("/api/products/%d", product.ID)
	progressPath := fmt.Sprintf("%s/lectures/%d/progress", base, lecture.ID)

	res := ta.do(t, httptest.NewRequest(http.MethodPost, progressPath, nil), studentToken)
	assert.Equal(t, fiber.StatusForbidden, res.Status)
	assert.Equal(t, "NOT_PURCHASED", res.code())

	res = ta.do(t, httptest.NewRequest(http.MethodGet, base+"/order", nil), studentToken)
	require.Equal(t, fiber.StatusOK, res.Status, res.Body)
	assert.Equal(t, "Knitting", res.data()["className"])

	res = ta.do(t, jsonRequest(http.MethodPost, base+"/order", map[string]interface{}{
		"name": "learner", "phoneNumber": "010-0000-0000", "paymentMethod": "bitcoin",
	}), studentToken)
	assert.Equal(t, "INVALID_VALUE", res.code())

	res = ta.do(t, jsonRequest(http.MethodPost, base+"/order", map[string]interface{}{
		"name": "learner", "phoneNumber": "010-0000-0000", "paymentMethod": "card",
	}), studentToken)
	require.Equal(t, fiber.StatusCreated, res.Status, res.Body)
	assert.Equal(t, float64(9000), res.data()["paidPrice"])

	for i := 0; i < 2; i++ {
		res = ta.do(t, httptest.NewRequest(http.MethodPost, progressPath, nil), studentToken)
		require.Equal(t, fiber.StatusOK, res.Status, res.Body)
	}
	assert.Equal(t, float64(1), res.data()["completed"])
	assert.Equal(t, float64(100), res.data()["completionRate"])

	res = ta.do(t, jsonRequest(http.MethodPost, base+"/communities", map[string]interface{}{
		"description": "My first row",
	}), studentToken)
	require.Equal(t, fiber.StatusCreated, res.Status, res.Body)

	res = ta.do(t, httptest.NewRequest(http.MethodGet, "/api/creator/stats", nil), ta.token(t, creator))
	require.Equal(t, fiber.StatusOK, res.Status, res.Body)
	assert.Equal(t, float64(1), res.data()["totalOrders"])
	assert.Equal(t, float64(9000), res.data()["totalRevenue"])
	products := res.data()["products"].([]interface{})
	require.Len(t, products, 1)
	stats := products[0].(map[string]interface{})
	assert.Equal(t, float64(1), stats["students"])
	assert.Equal(t, float64(1), stats["communityPosts"])
	assert.Equal(t, float64(1), stats["completedLectures"])

	res = ta.do(t, httptest.NewRequest(http.MethodGet, "/api/creator/stats?start_date=yesterday", nil), ta.token(t, creator))
	assert.Equal(t, "INVALID_DATE", res.code())
}
