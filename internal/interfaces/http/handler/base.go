package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/infrastructure/logger"
	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/autopecas/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response, deriving the status from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponseWithRequestID(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// HandleError converts an error into the response envelope. Domain errors
// keep their message; anything else is logged and answered as a 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, dto.NormalizeErrorCode(domainErr.Code), domainErr.Message)
		return
	}

	logger.L(c.Request.Context()).Error("Unhandled error",
		zap.String("route", c.FullPath()),
		zap.Error(err),
	)
	_ = c.Error(err)
	h.Error(c, dto.ErrCodeInternal, "Erro interno do servidor")
}

// BindJSON decodes and validates the request body, answering the error
// response itself. It reports whether the handler may proceed.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	err := c.ShouldBindJSON(obj)
	if err == nil {
		return true
	}
	h.bindError(c, err)
	return false
}

// BindQuery binds and validates query parameters
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	err := c.ShouldBindQuery(obj)
	if err == nil {
		return true
	}
	h.bindError(c, err)
	return false
}

func (h *BaseHandler) bindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
			"Dados inválidos", middleware.GetRequestID(c), middleware.ValidationDetails(verrs)))
		return
	}

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		h.Error(c, dto.ErrCodeRequestTooLarge, "Requisição excede o tamanho máximo permitido")
		return
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		h.Error(c, dto.ErrCodeInvalidJSON, "JSON inválido")
		return
	}

	h.Error(c, dto.ErrCodeBadRequest, "Requisição inválida: "+err.Error())
}

// ParseUUIDParam reads a UUID path parameter, answering 400 when malformed
func (h *BaseHandler) ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.Error(c, dto.ErrCodeInvalidInput, "Identificador inválido")
		return uuid.Nil, false
	}
	return id, true
}
