package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	sigeapp "github.com/autopecas/backend/internal/application/sige"
	"github.com/autopecas/backend/internal/domain/sige"
	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SigeHandler exposes the SIGE admin panels and the connection settings
type SigeHandler struct {
	BaseHandler
	proxy      *sigeapp.ProxyService
	connection *sigeapp.ConnectionService
}

// NewSigeHandler creates a new SIGE handler
func NewSigeHandler(proxy *sigeapp.ProxyService, connection *sigeapp.ConnectionService) *SigeHandler {
	return &SigeHandler{proxy: proxy, connection: connection}
}

// Resources godoc
// @ID           listSigeResources
// @Summary      SIGE resource registry
// @Tags         admin-sige
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[[]sige.Resource]
// @Router       /admin/sige/resources [get]
func (h *SigeHandler) Resources(c *gin.Context) {
	h.Success(c, h.proxy.Resources())
}

// Search godoc
// @ID           searchSigeResource
// @Summary      Search a SIGE resource
// @Description  Query parameters are forwarded to SIGE; empty ones are dropped
// @Tags         admin-sige
// @Produce      json
// @Security     BearerAuth
// @Param        resource path string true "Resource key"
// @Success      200 {object} APIResponse[any]
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /admin/sige/{resource} [get]
func (h *SigeHandler) Search(c *gin.Context) {
	h.execute(c, http.StatusOK, sigeapp.ProxyInput{
		Resource: c.Param("resource"),
		Verb:     sige.VerbSearch,
		Query:    c.Request.URL.Query(),
	})
}

// Create godoc
// @ID           createSigeResource
// @Summary      Create a SIGE record
// @Description  The body is sent to SIGE as typed; it must be valid JSON with the required fields
// @Tags         admin-sige
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        resource path string true "Resource key"
// @Param        request  body object true "Record"
// @Success      201 {object} APIResponse[any]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /admin/sige/{resource} [post]
func (h *SigeHandler) Create(c *gin.Context) {
	body, ok := h.rawBody(c)
	if !ok {
		return
	}
	h.execute(c, http.StatusCreated, sigeapp.ProxyInput{
		Resource: c.Param("resource"),
		Verb:     sige.VerbCreate,
		Body:     body,
	})
}

// Update godoc
// @ID           updateSigeResource
// @Summary      Update a SIGE record
// @Description  Without a key in the path, the key is read from the body
// @Tags         admin-sige
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        resource path string true "Resource key"
// @Param        key      path string true "Record key"
// @Param        request  body object true "Record"
// @Success      200 {object} APIResponse[any]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /admin/sige/{resource}/{key} [put]
func (h *SigeHandler) Update(c *gin.Context) {
	body, ok := h.rawBody(c)
	if !ok {
		return
	}
	h.execute(c, http.StatusOK, sigeapp.ProxyInput{
		Resource: c.Param("resource"),
		Verb:     sige.VerbUpdate,
		Key:      c.Param("key"),
		Body:     body,
	})
}

// Delete godoc
// @ID           deleteSigeResource
// @Summary      Delete a SIGE record
// @Tags         admin-sige
// @Produce      json
// @Security     BearerAuth
// @Param        resource path string true "Resource key"
// @Param        key      path string true "Record key"
// @Success      200 {object} APIResponse[any]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /admin/sige/{resource}/{key} [delete]
func (h *SigeHandler) Delete(c *gin.Context) {
	h.execute(c, http.StatusOK, sigeapp.ProxyInput{
		Resource: c.Param("resource"),
		Verb:     sige.VerbDelete,
		Key:      c.Param("key"),
	})
}

func (h *SigeHandler) execute(c *gin.Context, status int, in sigeapp.ProxyInput) {
	data, err := h.proxy.Execute(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	c.JSON(status, dto.NewSuccessResponse(data))
}

func (h *SigeHandler) rawBody(c *gin.Context) ([]byte, bool) {
	body, err := c.GetRawData()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, dto.ErrCodeRequestTooLarge, "Requisição excede o tamanho máximo permitido")
			return nil, false
		}
		h.BadRequest(c, "Não foi possível ler o corpo da requisição")
		return nil, false
	}
	return body, true
}

// ConnectionStatus godoc
// @ID           getSigeConnection
// @Summary      SIGE connection status
// @Tags         admin-sige
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[sige.Status]
// @Router       /admin/sige-connection [get]
func (h *SigeHandler) ConnectionStatus(c *gin.Context) {
	status, err := h.connection.Status(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Connect godoc
// @ID           connectSige
// @Summary      Connect the store SIGE account
// @Tags         admin-sige
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body sigeapp.ConnectInput true "SIGE credentials"
// @Success      200 {object} APIResponse[sige.Status]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /admin/sige-connection/connect [post]
func (h *SigeHandler) Connect(c *gin.Context) {
	var req sigeapp.ConnectInput
	if !h.BindJSON(c, &req) {
		return
	}
	status, err := h.connection.Connect(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Refresh godoc
// @ID           refreshSige
// @Summary      Refresh the SIGE session
// @Tags         admin-sige
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[sige.Status]
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /admin/sige-connection/refresh [post]
func (h *SigeHandler) Refresh(c *gin.Context) {
	status, err := h.connection.Refresh(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// Disconnect godoc
// @ID           disconnectSige
// @Summary      Remove the stored SIGE session
// @Tags         admin-sige
// @Security     BearerAuth
// @Success      204
// @Router       /admin/sige-connection [delete]
func (h *SigeHandler) Disconnect(c *gin.Context) {
	if err := h.connection.Disconnect(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
