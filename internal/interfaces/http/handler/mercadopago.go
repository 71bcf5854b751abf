package handler

import (
	"errors"
	"net/http"

	mpapp "github.com/autopecas/backend/internal/application/mercadopago"
	"github.com/autopecas/backend/internal/domain/payment"
	"github.com/autopecas/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// MercadoPagoHandler manages the Mercado Pago credentials and proxies the
// admin calls made with them.
type MercadoPagoHandler struct {
	BaseHandler
	credentials *mpapp.CredentialService
	payments    *mpapp.PaymentService
}

// NewMercadoPagoHandler creates a new Mercado Pago handler
func NewMercadoPagoHandler(credentials *mpapp.CredentialService, payments *mpapp.PaymentService) *MercadoPagoHandler {
	return &MercadoPagoHandler{credentials: credentials, payments: payments}
}

// GetCredentials godoc
// @ID           getMercadoPagoCredentials
// @Summary      Stored Mercado Pago keys
// @Description  Secrets are masked; configured is false when nothing is stored
// @Tags         admin-mercadopago
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[mpapp.CredentialsView]
// @Router       /admin/mercadopago/credentials [get]
func (h *MercadoPagoHandler) GetCredentials(c *gin.Context) {
	view, err := h.credentials.Get(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// SaveCredentials godoc
// @ID           saveMercadoPagoCredentials
// @Summary      Save Mercado Pago keys
// @Description  An empty webhook_secret keeps the stored one
// @Tags         admin-mercadopago
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body mpapp.SaveCredentialsInput true "Keys"
// @Success      200 {object} APIResponse[mpapp.CredentialsView]
// @Failure      400 {object} ErrorResponse
// @Router       /admin/mercadopago/credentials [put]
func (h *MercadoPagoHandler) SaveCredentials(c *gin.Context) {
	var req mpapp.SaveCredentialsInput
	if !h.BindJSON(c, &req) {
		return
	}
	view, err := h.credentials.Save(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, view)
}

// DeleteCredentials godoc
// @ID           deleteMercadoPagoCredentials
// @Summary      Remove Mercado Pago keys
// @Tags         admin-mercadopago
// @Security     BearerAuth
// @Success      204
// @Router       /admin/mercadopago/credentials [delete]
func (h *MercadoPagoHandler) DeleteCredentials(c *gin.Context) {
	if err := h.credentials.Delete(c.Request.Context()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// TestCredentials godoc
// @ID           testMercadoPagoCredentials
// @Summary      Test the stored access token
// @Tags         admin-mercadopago
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[mpapp.TestResult]
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /admin/mercadopago/credentials/test [post]
func (h *MercadoPagoHandler) TestCredentials(c *gin.Context) {
	result, err := h.credentials.Test(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// PaymentMethods godoc
// @ID           listMercadoPagoPaymentMethods
// @Summary      Payment methods available to the account
// @Tags         admin-mercadopago
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[any]
// @Failure      422 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /admin/mercadopago/payment-methods [get]
func (h *MercadoPagoHandler) PaymentMethods(c *gin.Context) {
	data, err := h.payments.PaymentMethods(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}

// CreatePreference godoc
// @ID           createMercadoPagoPreference
// @Summary      Create a Checkout Pro preference
// @Tags         admin-mercadopago
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body payment.PreferenceRequest true "Preference"
// @Success      201 {object} APIResponse[payment.Preference]
// @Failure      400 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /admin/mercadopago/preferences [post]
func (h *MercadoPagoHandler) CreatePreference(c *gin.Context) {
	var req payment.PreferenceRequest
	if !h.BindJSON(c, &req) {
		return
	}
	pref, err := h.payments.CreatePreference(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, pref)
}

// SearchPayments godoc
// @ID           searchMercadoPagoPayments
// @Summary      Search payments
// @Description  Query parameters are forwarded to /v1/payments/search
// @Tags         admin-mercadopago
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} APIResponse[any]
// @Failure      502 {object} ErrorResponse
// @Router       /admin/mercadopago/payments [get]
func (h *MercadoPagoHandler) SearchPayments(c *gin.Context) {
	data, err := h.payments.SearchPayments(c.Request.Context(), c.Request.URL.Query())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, data)
}

// GetPayment godoc
// @ID           getMercadoPagoPayment
// @Summary      Get payment
// @Tags         admin-mercadopago
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Payment ID"
// @Success      200 {object} APIResponse[payment.Payment]
// @Failure      404 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /admin/mercadopago/payments/{id} [get]
func (h *MercadoPagoHandler) GetPayment(c *gin.Context) {
	p, err := h.payments.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, p)
}

// Webhook godoc
// @ID           receiveMercadoPagoWebhook
// @Summary      Mercado Pago notification
// @Description  Verified with the x-signature header and the stored webhook secret
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        x-signature  header string true  "ts=...,v1=..."
// @Param        x-request-id header string true  "Notification request ID"
// @Param        data.id      query  string false "Resource ID"
// @Success      200 {object} APIResponse[mpapp.WebhookResult]
// @Failure      400 {object} ErrorResponse
// @Failure      401 {object} ErrorResponse
// @Router       /webhooks/mercadopago [post]
func (h *MercadoPagoHandler) Webhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.Error(c, dto.ErrCodeRequestTooLarge, "Requisição excede o tamanho máximo permitido")
			return
		}
		h.BadRequest(c, "Não foi possível ler a notificação")
		return
	}

	result, err := h.payments.HandleWebhook(c.Request.Context(), mpapp.WebhookInput{
		Payload:   payload,
		Signature: c.GetHeader("x-signature"),
		RequestID: c.GetHeader("x-request-id"),
		DataID:    c.Query("data.id"),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
