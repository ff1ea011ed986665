package controllers

import (
	"fmt"
	"strings"

	"classmarket/backend/config"
	"classmarket/backend/services"
	"classmarket/backend/storage"
	"classmarket/backend/utils"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// CreatorController serves the draft wizard and its promotion.
type CreatorController struct {
	Cfg      *config.Config
	Wizard   *services.Wizard
	Promoter *services.Promoter
	Log      *zap.Logger
}

func NewCreatorController(cfg *config.Config, wizard *services.Wizard, promoter *services.Promoter, log *zap.Logger) *CreatorController {
	return &CreatorController{Cfg: cfg, Wizard: wizard, Promoter: promoter, Log: log.Named("creator")}
}

// decodeBody unmarshals the JSON document carried in the multipart "body"
// field into dst.
func decodeBody(c *fiber.Ctx, dst interface{}) error {
	raw := c.FormValue("body")
	if raw == "" {
		return fmt.Errorf("%w: body", services.ErrKey)
	}
	if err := sonic.UnmarshalString(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errType, err)
	}
	return nil
}

// formFiles returns the uploaded files of a multipart field in request
// order. A request that is not multipart has no files; a multipart body
// that cannot be parsed is an error.
func formFiles(c *fiber.Ctx, field string) ([]storage.Blob, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	return storage.BlobsFromFileHeaders(form.File[field])
}

// GetBasicInfo godoc
// @Summary Read wizard step 1
// @Description Returns the draft's basic info together with the category and difficulty tables
// @Tags creator
// @Produce json
// @Param draftId path int true "Draft ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /creator/{draftId}/first [get]
func (cc *CreatorController) GetBasicInfo(c *fiber.Ctx) error {
	draftID, ok := idParam(c, "draftId")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "draftId")
	}
	view, err := cc.Wizard.BasicInfo(c.UserContext(), draftID, utils.CurrentUserID(c))
	if err != nil {
		return respondError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, view)
}

// SaveBasicInfo godoc
// @Summary Save wizard step 1
// @Description Upserts the draft and replaces its images with the uploaded files
// @Tags creator
// @Accept mpfd
// @Produce json
// @Param draftId path int true "Draft ID"
// @Param body formData string true "services.BasicInfoInput as JSON"
// @Param files formData file false "Draft images"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /creator/{draftId}/first [post]
func (cc *CreatorController) SaveBasicInfo(c *fiber.Ctx) error {
	draftID, ok := idParam(c, "draftId")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "draftId")
	}
	files, err := formFiles(c, "files")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_FILE", err.Error())
	}
	var input services.BasicInfoInput
	if err := decodeBody(c, &input); err != nil {
		return respondError(c, cc.Log, err)
	}
	if err := cc.Wizard.SaveBasicInfo(c.UserContext(), draftID, utils.CurrentUserID(c), input, files); err != nil {
		return respondError(c, cc.Log, err)
	}
	return utils.Message(c, fiber.StatusCreated, "SUCCESS")
}

func (cc *CreatorController) GetCurriculum(c *fiber.Ctx) error {
	draftID, ok := idParam(c, "draftId")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "draftId")
	}
	chapters, err := cc.Wizard.Curriculum(c.UserContext(), draftID, utils.CurrentUserID(c))
	if err != nil {
		return respondError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"chapters": chapters})
}

func (cc *CreatorController) SaveCurriculum(c *fiber.Ctx) error {
	draftID, ok := idParam(c, "draftId")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "draftId")
	}
	files, err := formFiles(c, "files")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_FILE", err.Error())
	}
	var input services.CurriculumInput
	if err := decodeBody(c, &input); err != nil {
		return respondError(c, cc.Log, err)
	}
	if err := cc.Wizard.SaveCurriculum(c.UserContext(), draftID, utils.CurrentUserID(c), input, files); err != nil {
		return respondError(c, cc.Log, err)
	}
	return utils.Message(c, fiber.StatusCreated, "SUCCESS")
}

func (cc *CreatorController) GetLectureContents(c *fiber.Ctx) error {
	draftID, ok := idParam(c, "draftId")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "draftId")
	}
	chapters, err := cc.Wizard.LectureContents(c.UserContext(), draftID, utils.CurrentUserID(c))
	if err != nil {
		return respondError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"chapters": chapters})
}

// SaveLectureContents godoc
// @Summary Save wizard step 3
// @Description Replaces lecture content blocks. Videos and images are consumed in request order.
// @Tags creator
// @Accept mpfd
// @Produce json
// @Param draftId path int true "Draft ID"
// @Param body formData string true "services.LectureContentsInput as JSON"
// @Param videos formData file false "Lecture videos"
// @Param images formData file false "Content images"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /creator/{draftId}/third [post]
func (cc *CreatorController) SaveLectureContents(c *fiber.Ctx) error {
	draftID, ok := idParam(c, "draftId")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "draftId")
	}
	videos, err := formFiles(c, "videos")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_FILE", err.Error())
	}
	images, err := formFiles(c, "images")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_FILE", err.Error())
	}
	var input services.LectureContentsInput
	if err := decodeBody(c, &input); err != nil {
		return respondError(c, cc.Log, err)
	}
	if err := cc.Wizard.SaveLectureContents(c.UserContext(), draftID, utils.CurrentUserID(c), input, videos, images); err != nil {
		return respondError(c, cc.Log, err)
	}
	return utils.Message(c, fiber.StatusCreated, "SUCCESS")
}

func (cc *CreatorController) GetKits(c *fiber.Ctx) error {
	draftID, ok := idParam(c, "draftId")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "draftId")
	}
	kits, err := cc.Wizard.Kits(c.UserContext(), draftID, utils.CurrentUserID(c))
	if err != nil {
		return respondError(c, cc.Log, err)
	}
	return utils.Success(c, fiber.StatusOK, fiber.Map{"kits": kits})
}

func (cc *CreatorController) SaveKits(c *fiber.Ctx) error {
	draftID, ok := idParam(c, "draftId")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "draftId")
	}
	files, err := formFiles(c, "files")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "INVALID_FILE", err.Error())
	}
	var input services.KitsInput
	if err := decodeBody(c, &input); err != nil {
		return respondError(c, cc.Log, err)
	}
	if err := cc.Wizard.SaveKits(c.UserContext(), draftID, utils.CurrentUserID(c), input, files); err != nil {
		return respondError(c, cc.Log, err)
	}
	return utils.Message(c, fiber.StatusCreated, "SUCCESS")
}

// Promote godoc
// @Summary Publish a draft
// @Description Copies the draft into the catalog as a product and deletes the draft
// @Tags creator
// @Produce json
// @Param draftId path int true "Draft ID"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 403 {object} utils.ErrorResponse
// @Failure 404 {object} utils.ErrorResponse
// @Security ApiKeyAuth
// @Router /creator/{draftId}/create [post]
func (cc *CreatorController) Promote(c *fiber.Ctx) error {
	draftID, ok := idParam(c, "draftId")
	if !ok {
		return fail(c, fiber.StatusBadRequest, "TYPE_ERROR", "draftId")
	}
	product, err := cc.Promoter.Promote(c.UserContext(), draftID, utils.CurrentUserID(c))
	if err != nil {
		return respondError(c, cc.Log, err)
	}
	return utils.Created(c, fiber.Map{"productId": product.ID})
}
