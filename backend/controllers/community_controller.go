package controllers

import (
	"errors"

	"classmarket/backend/config"
	"classmarket/backend/models"
	"classmarket/backend/storage"
	"classmarket/backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CommunityController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Relay storage.Relay
}

func NewCommunityController(db *gorm.DB, cfg *config.Config, relay storage.Relay) *CommunityController {
	return &CommunityController{DB: db, Cfg: cfg, Relay: relay}
}

// AddPostRequest defines the request body for a community post
type AddPostRequest struct {
	Description string `json:"description" validate:"required,max=1000" example:"Finished my first drawing!"`
}

// AddCommentRequest defines the request body for a comment on a post
type AddCommentRequest struct {
	Content string `json:"content" validate:"required,max=500" example:"Looks great"`
}

// AddPost godoc
// @Summary Post to a class community
// @Tags community
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param input body AddPostRequest true "Post"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /products/{id}/communities [post]
func (cc *CommunityController) AddPost(c *fiber.Ctx) error {
	productID, ok := idParam(c, "id")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "id")
	}

	var input AddPostRequest
	if err := c.BodyParser(&input); err != nil {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "Cannot parse JSON")
	}
	if err := utils.Validator().Struct(input); err != nil {
		return utils.ValidationError(c, utils.ValidationErrors(err))
	}

	var product models.Product
	if err := cc.DB.Where("id = ? AND is_deleted = ?", productID, false).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fail(c, fiber.StatusNotFound, "PRODUCT_NOT_EXIST")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	post := models.Community{
		Description: input.Description,
		UserID:      utils.CurrentUserID(c),
		ProductID:   product.ID,
	}
	if err := cc.DB.Omit("User").Create(&post).Error; err != nil {
		return utils.InternalServerError(c, "Could not create post")
	}
	return utils.Created(c, fiber.Map{"communityId": post.ID})
}

// GetPosts godoc
// @Summary List a class community
// @Tags community
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} utils.PaginatedResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /products/{id}/communities [get]
func (cc *CommunityController) GetPosts(c *fiber.Ctx) error {
	productID, ok := idParam(c, "id")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "id")
	}
	page, pageSize := pageParams(c)

	var total int64
	cc.DB.Model(&models.Community{}).Where("product_id = ?", productID).Count(&total)

	var posts []models.Community
	if err := cc.DB.Preload("User").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Likes").
		Where("product_id = ?", productID).
		Order("updated_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&posts).Error; err != nil {
		return utils.InternalServerError(c, "Could not fetch posts")
	}

	result := make([]fiber.Map, 0, len(posts))
	for _, post := range posts {
		comments := make([]fiber.Map, 0, len(post.Comments))
		for _, cm := range post.Comments {
			comments = append(comments, fiber.Map{
				"commentId": cm.ID,
				"userId":    cm.UserID,
				"content":   cm.Content,
				"createdAt": cm.CreatedAt,
			})
		}
		author := fiber.Map{}
		if post.User != nil {
			author = fiber.Map{
				"id":           post.User.ID,
				"nickName":     post.User.NickName,
				"profileImage": storage.URLOrNil(cc.Relay, post.User.ProfileImage),
			}
		}
		result = append(result, fiber.Map{
			"communityId":       post.ID,
			"communityUserInfo": author,
			"comment":           post.Description,
			"likeCount":         len(post.Likes),
			"comments":          comments,
			"updatedAt":         post.UpdatedAt,
		})
	}
	return utils.Paginate(c, result, total, page, pageSize)
}

func (cc *CommunityController) findPost(c *fiber.Ctx) (*models.Community, error) {
	postID, ok := idParam(c, "id")
	if !ok {
		return nil, fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "id")
	}
	var post models.Community
	if err := cc.DB.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fail(c, fiber.StatusNotFound, "COMMUNITY_NOT_EXIST")
		}
		return nil, utils.InternalServerError(c, "Could not query database")
	}
	return &post, nil
}

func (cc *CommunityController) AddComment(c *fiber.Ctx) error {
	post, err := cc.findPost(c)
	if post == nil {
		return err
	}

	var input AddCommentRequest
	if err := c.BodyParser(&input); err != nil {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "Cannot parse JSON")
	}
	if err := utils.Validator().Struct(input); err != nil {
		return utils.ValidationError(c, utils.ValidationErrors(err))
	}

	comment := models.CommunityComment{Content: input.Content, UserID: utils.CurrentUserID(c), CommunityID: post.ID}
	if err := cc.DB.Create(&comment).Error; err != nil {
		return utils.InternalServerError(c, "Could not create comment")
	}
	return utils.Created(c, fiber.Map{"commentId": comment.ID})
}

// ToggleLike likes a post, or removes an existing like.
func (cc *CommunityController) ToggleLike(c *fiber.Ctx) error {
	post, err := cc.findPost(c)
	if post == nil {
		return err
	}
	userID := utils.CurrentUserID(c)

	liked := false
	err = cc.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND community_id = ?", userID, post.ID).Delete(&models.CommunityLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
		liked = true
		return tx.Create(&models.CommunityLike{UserID: userID, CommunityID: post.ID}).Error
	})
	if err != nil {
		return utils.InternalServerError(c, "Could not update like")
	}

	var count int64
	cc.DB.Model(&models.CommunityLike{}).Where("community_id = ?", post.ID).Count(&count)
	return utils.Success(c, fiber.StatusOK, fiber.Map{"isLike": liked, "likeCount": count})
}
