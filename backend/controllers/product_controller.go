package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"classmarket/backend/config"
	"classmarket/backend/models"
	"classmarket/backend/repository"
	"classmarket/backend/storage"
	"classmarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductController struct {
	DB      *gorm.DB
	Cfg     *config.Config
	Catalog *repository.CatalogRepository
	Relay   storage.Relay
	Log     *zap.Logger
}

func NewProductController(db *gorm.DB, cfg *config.Config, catalog *repository.CatalogRepository, relay storage.Relay, log *zap.Logger) *ProductController {
	return &ProductController{DB: db, Cfg: cfg, Catalog: catalog, Relay: relay, Log: log.Named("product")}
}

// productCard is the short product summary used by listings.
func productCard(db *gorm.DB, relay storage.Relay, p models.Product) fiber.Map {
	var likes int64
	db.Model(&models.ProductLike{}).Where("product_id = ?", p.ID).Count(&likes)

	card := fiber.Map{
		"classId":         p.ID,
		"title":           p.Name,
		"thumbnail":       storage.URLOrNil(relay, p.ThumbnailImage),
		"price":           p.Price,
		"sale":            int(p.Sale * 100),
		"discountedPrice": p.DiscountedPrice(),
		"likeCount":       likes,
	}
	if p.SubCategory != nil {
		card["subCategoryName"] = p.SubCategory.Name
	}
	if p.Creator != nil {
		card["classOwner"] = p.Creator.NickName
	}
	return card
}

// availability renders when a class can be taken relative to now.
func availability(start, now time.Time) string {
	y, m, d := now.Date()
	tomorrow := time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
	if start.Before(tomorrow) {
		return "바로 수강 가능"
	}
	return fmt.Sprintf("%d월 %d일 부터 수강 가능", int(start.Month()), start.Day())
}

func (pc *ProductController) communityUser(u *models.User) fiber.Map {
	if u == nil {
		return fiber.Map{}
	}
	return fiber.Map{
		"id":           u.ID,
		"nickName":     u.NickName,
		"profileImage": storage.URLOrNil(pc.Relay, u.ProfileImage),
	}
}

// GetProduct godoc
// @Summary Product detail
// @Description Returns a published class with its curriculum, kits and community. Signed-in callers get isLike and a recently-viewed entry.
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /products/{id} [get]
func (pc *ProductController) GetProduct(c *fiber.Ctx) error {
	productID, ok := idParam(c, "id")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "id")
	}

	product, err := pc.Catalog.Product(c.UserContext(), productID)
	if errors.Is(err, repository.ErrNotFound) {
		return fail(c, fiber.StatusNotFound, "PRODUCT_NOT_EXIST")
	}
	if err != nil {
		return respondError(c, pc.Log, err)
	}

	var likeCount int64
	pc.DB.Model(&models.ProductLike{}).Where("product_id = ?", product.ID).Count(&likeCount)

	isLike := false
	if userID := utils.CurrentUserID(c); userID != 0 {
		var n int64
		pc.DB.Model(&models.ProductLike{}).Where("user_id = ? AND product_id = ?", userID, product.ID).Count(&n)
		isLike = n > 0

		view := models.RecentlyView{UserID: userID, ProductID: product.ID}
		if err := pc.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&view).Error; err != nil {
			pc.Log.Warn("could not record recently viewed product", zap.Uint("product_id", product.ID), zap.Error(err))
		}
	}

	subImages := make([]fiber.Map, 0, len(product.SubImages))
	for _, img := range product.SubImages {
		subImages = append(subImages, fiber.Map{"imageUrl": pc.Relay.URL(img.ImageURL)})
	}

	curriculum := make([]fiber.Map, 0, len(product.Chapters))
	for _, ch := range product.Chapters {
		lectures := make([]fiber.Map, 0, len(ch.Lectures))
		for i, l := range ch.Lectures {
			lecture := fiber.Map{"lectureId": l.ID, "lectureNum": i + 1, "lectureTitle": l.Name}
			if l.Video != nil {
				lecture["lectureVideoUrl"] = storage.URLOrNil(pc.Relay, l.Video.VideoURL)
			}
			lectures = append(lectures, lecture)
		}
		curriculum = append(curriculum, fiber.Map{
			"thumbnailImage": storage.URLOrNil(pc.Relay, ch.ThumbnailImage),
			"chapterName":    ch.Name,
			"order":          ch.Order,
			"chapterDetail":  lectures,
		})
	}

	kits := make([]fiber.Map, 0, len(product.ProductKits))
	for _, pk := range product.ProductKits {
		subs := make([]fiber.Map, 0, len(pk.Kit.SubImages))
		for _, s := range pk.Kit.SubImages {
			subs = append(subs, fiber.Map{"subImageUrl": pc.Relay.URL(s.ImageURL)})
		}
		kits = append(kits, fiber.Map{
			"kitId":        pk.Kit.ID,
			"mainImageUrl": storage.URLOrNil(pc.Relay, pk.Kit.MainImageURL),
			"kitName":      pk.Kit.Name,
			"price":        pk.Kit.Price,
			"description":  pk.Kit.Description,
			"subImageUrls": subs,
		})
	}

	var posts []models.Community
	if err := pc.DB.Preload("User").Where("product_id = ?", product.ID).Order("updated_at DESC").Find(&posts).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch community")
	}
	community := make([]fiber.Map, 0, len(posts))
	creatorCommunity := make([]fiber.Map, 0)
	creatorInfo := fiber.Map{}
	for _, post := range posts {
		entry := fiber.Map{
			"communityUserInfo":      pc.communityUser(post.User),
			"communityCommentedDate": post.UpdatedAt.Format("2006.01.02."),
			"comment":                post.Description,
			"communityId":            post.ID,
		}
		community = append(community, entry)
		if product.CreatorID != nil && post.UserID == *product.CreatorID {
			if len(creatorCommunity) == 0 {
				creatorInfo = pc.communityUser(post.User)
			}
			creatorCommunity = append(creatorCommunity, entry)
		}
	}

	classOwner := ""
	if product.Creator != nil {
		classOwner = product.Creator.NickName
	}
	subCategory, difficulty := "", ""
	if product.SubCategory != nil {
		subCategory = product.SubCategory.Name
	}
	if product.Difficulty != nil {
		difficulty = product.Difficulty.Name + " 대상"
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"classId":          product.ID,
		"mainImage":        storage.URLOrNil(pc.Relay, product.ThumbnailImage),
		"subImages":        subImages,
		"title":            product.Name,
		"subCategoryName":  subCategory,
		"classOwner":       classOwner,
		"isTakeClass":      availability(product.StartDate, time.Now()),
		"sale":             int(product.Sale * 100),
		"price":            product.DiscountedPrice(),
		"originalPrice":    product.Price,
		"difficulty":       difficulty,
		"likeCount":        likeCount,
		"isLike":           isLike,
		"curriculum":       curriculum,
		"kitInfo":          kits,
		"creatorInfo":      creatorInfo,
		"creatorCommunity": creatorCommunity,
		"community":        community,
	})
}

// ToggleLike likes the product, or removes the like if it already exists.
func (pc *ProductController) ToggleLike(c *fiber.Ctx) error {
	productID, ok := idParam(c, "id")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "id")
	}
	userID := utils.CurrentUserID(c)

	var product models.Product
	if err := pc.DB.Where("id = ? AND is_deleted = ?", productID, false).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusNotFound, "PRODUCT_NOT_EXIST")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	liked := false
	err := pc.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&models.ProductLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		liked = true
		return tx.Create(&models.ProductLike{UserID: userID, ProductID: productID}).Error
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not update like")
	}

	var count int64
	pc.DB.Model(&models.ProductLike{}).Where("product_id = ?", productID).Count(&count)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"isLike": liked, "likeCount": count})
}

// SearchProducts godoc
// @Summary Search classes
// @Description Lists published classes filtered by name and category
// @Tags products
// @Produce json
// @Param search query string false "Name contains"
// @Param category query string false "Main or sub category name"
// @Param sort query string false "newest|popular" default(newest)
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Page size" default(10)
// @Success 200 {object} utils.PaginatedResponse
// @Router /products [get]
func (pc *ProductController) SearchProducts(c *fiber.Ctx) error {
	search := strings.TrimSpace(c.Query("search"))
	category := strings.TrimSpace(c.Query("category"))
	sort := c.Query("sort", "newest")
	page, pageSize := pageParams(c)

	query := pc.DB.Model(&models.Product{}).Where("products.is_deleted = ?", false)
	if search != "" {
		query = query.Where("LOWER(products.name) LIKE ?", "%"+strings.ToLower(search)+"%")
	}
	if category != "" {
		query = query.
			Joins("LEFT JOIN main_categories ON main_categories.id = products.main_category_id").
			Joins("LEFT JOIN sub_categories ON sub_categories.id = products.sub_category_id").
			Where("main_categories.name = ? OR sub_categories.name = ?", category, category)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch products")
	}

	switch sort {
	case "popular":
		query = query.Order("(SELECT COUNT(*) FROM product_likes WHERE product_likes.product_id = products.id) DESC").
			Order("products.id DESC")
	default:
		query = query.Order("products.created_at DESC").Order("products.id DESC")
	}

	var products []models.Product
	if err := query.Preload("SubCategory").Preload("Creator").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&products).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch products")
	}

	cards := make([]fiber.Map, 0, len(products))
	for _, p := range products {
		cards = append(cards, productCard(pc.DB, pc.Relay, p))
	}
	return utils.Paginate(c, cards, total, page, pageSize)
}
