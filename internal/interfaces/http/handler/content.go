package handler

import (
	"io"
	"time"

	contentapp "github.com/autopecas/backend/internal/application/content"
	"github.com/autopecas/backend/internal/domain/content"
	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

func listQuery(req dto.ListRequest) contentapp.ListQuery {
	return contentapp.ListQuery{
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   req.Search,
		Active:   req.Active,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
	}
}

// MessageHandler manages storefront messages
type MessageHandler struct {
	BaseHandler
	messageService *contentapp.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *contentapp.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// MessageRequest holds the editable fields of a message
type MessageRequest struct {
	Title    string     `json:"title" binding:"required,max=120"`
	Body     string     `json:"body" binding:"max=2000"`
	Kind     string     `json:"kind" binding:"omitempty,oneof=info warning promo"`
	Active   bool       `json:"active"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	Position int        `json:"position" binding:"min=0"`
}

func (r MessageRequest) input() content.MessageInput {
	return content.MessageInput{
		Title:    r.Title,
		Body:     r.Body,
		Kind:     content.MessageKind(r.Kind),
		Active:   r.Active,
		StartsAt: r.StartsAt,
		EndsAt:   r.EndsAt,
		Position: r.Position,
	}
}

// Visible godoc
// @ID           listStorefrontMessages
// @Summary      Active storefront messages
// @Tags         storefront
// @Produce      json
// @Success      200 {object} APIResponse[[]contentapp.MessageDTO]
// @Router       /storefront/messages [get]
func (h *MessageHandler) Visible(c *gin.Context) {
	items, err := h.messageService.Visible(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// List godoc
// @ID           listAdminMessages
// @Summary      List messages
// @Tags         admin-messages
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "Page"
// @Param        page_size query int    false "Page size"
// @Param        search    query string false "Title search"
// @Param        active    query bool   false "Active filter"
// @Success      200 {object} APIResponse[[]contentapp.MessageDTO]
// @Router       /admin/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	result, err := h.messageService.List(c.Request.Context(), listQuery(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get godoc
// @ID           getAdminMessage
// @Summary      Get message
// @Tags         admin-messages
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Message ID"
// @Success      200 {object} APIResponse[contentapp.MessageDTO]
// @Failure      404 {object} ErrorResponse
// @Router       /admin/messages/{id} [get]
func (h *MessageHandler) Get(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	msg, err := h.messageService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, msg)
}

// Create godoc
// @ID           createAdminMessage
// @Summary      Create message
// @Tags         admin-messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body MessageRequest true "Message"
// @Success      201 {object} APIResponse[contentapp.MessageDTO]
// @Failure      400 {object} ErrorResponse
// @Router       /admin/messages [post]
func (h *MessageHandler) Create(c *gin.Context) {
	var req MessageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	msg, err := h.messageService.Create(c.Request.Context(), req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, msg)
}

// Update godoc
// @ID           updateAdminMessage
// @Summary      Update message
// @Tags         admin-messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string         true "Message ID"
// @Param        request body MessageRequest true "Message"
// @Success      200 {object} APIResponse[contentapp.MessageDTO]
// @Failure      404 {object} ErrorResponse
// @Router       /admin/messages/{id} [put]
func (h *MessageHandler) Update(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req MessageRequest
	if !h.BindJSON(c, &req) {
		return
	}
	msg, err := h.messageService.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, msg)
}

// Delete godoc
// @ID           deleteAdminMessage
// @Summary      Delete message
// @Tags         admin-messages
// @Security     BearerAuth
// @Param        id path string true "Message ID"
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Router       /admin/messages/{id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.messageService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// BrandHandler manages storefront brands
type BrandHandler struct {
	BaseHandler
	brandService *contentapp.BrandService
}

// NewBrandHandler creates a new brand handler
func NewBrandHandler(brandService *contentapp.BrandService) *BrandHandler {
	return &BrandHandler{brandService: brandService}
}

// BrandRequest holds the editable fields of a brand
type BrandRequest struct {
	Name     string `json:"name" binding:"required,max=80"`
	Slug     string `json:"slug" binding:"omitempty,max=80,slug"`
	Active   bool   `json:"active"`
	Position int    `json:"position" binding:"min=0"`
}

func (r BrandRequest) input() content.BrandInput {
	return content.BrandInput{Name: r.Name, Slug: r.Slug, Active: r.Active, Position: r.Position}
}

// Active godoc
// @ID           listStorefrontBrands
// @Summary      Active storefront brands
// @Tags         storefront
// @Produce      json
// @Success      200 {object} APIResponse[[]contentapp.BrandDTO]
// @Router       /storefront/brands [get]
func (h *BrandHandler) Active(c *gin.Context) {
	items, err := h.brandService.Active(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// List godoc
// @ID           listAdminBrands
// @Summary      List brands
// @Tags         admin-brands
// @Produce      json
// @Security     BearerAuth
// @Param        page      query int    false "Page"
// @Param        page_size query int    false "Page size"
// @Param        search    query string false "Name search"
// @Success      200 {object} APIResponse[[]contentapp.BrandDTO]
// @Router       /admin/brands [get]
func (h *BrandHandler) List(c *gin.Context) {
	var req dto.ListRequest
	if !h.BindQuery(c, &req) {
		return
	}
	result, err := h.brandService.List(c.Request.Context(), listQuery(req))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Get godoc
// @ID           getAdminBrand
// @Summary      Get brand
// @Tags         admin-brands
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Brand ID"
// @Success      200 {object} APIResponse[contentapp.BrandDTO]
// @Failure      404 {object} ErrorResponse
// @Router       /admin/brands/{id} [get]
func (h *BrandHandler) Get(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	brand, err := h.brandService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, brand)
}

// Create godoc
// @ID           createAdminBrand
// @Summary      Create brand
// @Tags         admin-brands
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body BrandRequest true "Brand"
// @Success      201 {object} APIResponse[contentapp.BrandDTO]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /admin/brands [post]
func (h *BrandHandler) Create(c *gin.Context) {
	var req BrandRequest
	if !h.BindJSON(c, &req) {
		return
	}
	brand, err := h.brandService.Create(c.Request.Context(), req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, brand)
}

// Update godoc
// @ID           updateAdminBrand
// @Summary      Update brand
// @Tags         admin-brands
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path string       true "Brand ID"
// @Param        request body BrandRequest true "Brand"
// @Success      200 {object} APIResponse[contentapp.BrandDTO]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /admin/brands/{id} [put]
func (h *BrandHandler) Update(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req BrandRequest
	if !h.BindJSON(c, &req) {
		return
	}
	brand, err := h.brandService.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, brand)
}

// Delete godoc
// @ID           deleteAdminBrand
// @Summary      Delete brand
// @Tags         admin-brands
// @Security     BearerAuth
// @Param        id path string true "Brand ID"
// @Success      204
// @Router       /admin/brands/{id} [delete]
func (h *BrandHandler) Delete(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.brandService.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// UploadLogo godoc
// @ID           uploadAdminBrandLogo
// @Summary      Upload brand logo
// @Tags         admin-brands
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string true "Brand ID"
// @Param        file formData file   true "PNG, JPEG, WebP or SVG up to 2 MB"
// @Success      200 {object} APIResponse[contentapp.BrandDTO]
// @Failure      400 {object} ErrorResponse
// @Router       /admin/brands/{id}/logo [post]
func (h *BrandHandler) UploadLogo(c *gin.Context) {
	id, ok := h.ParseUUIDParam(c, "id")
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		h.Error(c, dto.ErrCodeValidationRequired, "Envie o arquivo do logo no campo file")
		return
	}
	if fh.Size > contentapp.MaxLogoSize {
		h.Error(c, dto.ErrCodeInvalidInput, "Logo excede o tamanho máximo de 2 MB")
		return
	}
	f, err := fh.Open()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, contentapp.MaxLogoSize+1))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	brand, err := h.brandService.UploadLogo(c.Request.Context(), id, data, fh.Header.Get("Content-Type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, brand)
}
