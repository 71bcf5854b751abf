package payment

import (
	"encoding/json"
	"strings"

	"github.com/autopecas/backend/internal/domain/payment"
)

// mercadoPagoError is the error body of the Mercado Pago API
type mercadoPagoError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
	Cause   []struct {
		Code        any    `json:"code"`
		Description string `json:"description"`
	} `json:"cause"`
}

func (e mercadoPagoError) text() string {
	parts := make([]string, 0, 2)
	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Error != "" {
		parts = append(parts, e.Error)
	}
	for _, c := range e.Cause {
		if c.Description != "" {
			parts = append(parts, c.Description)
			break
		}
	}
	return strings.Join(parts, ": ")
}

// mercadoPagoWebhook is the notification body posted to the webhook URL
type mercadoPagoWebhook struct {
	ID     any    `json:"id"`
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// mercadoPagoPreference is the wire form of a preference; amounts are JSON numbers
type mercadoPagoPreference struct {
	Items             []mercadoPagoItem `json:"items"`
	ExternalReference string            `json:"external_reference,omitempty"`
	NotificationURL   string            `json:"notification_url,omitempty"`
	BackURLs          map[string]string `json:"back_urls,omitempty"`
	AutoReturn        string            `json:"auto_return,omitempty"`
}

type mercadoPagoItem struct {
	ID          string      `json:"id,omitempty"`
	Title       string      `json:"title"`
	Quantity    int         `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
	CurrencyID  string      `json:"currency_id"`
	PictureURL  string      `json:"picture_url,omitempty"`
	Description string      `json:"description,omitempty"`
}

func toMercadoPagoPreference(req payment.PreferenceRequest, notificationURL string) mercadoPagoPreference {
	pref := mercadoPagoPreference{
		Items:             make([]mercadoPagoItem, 0, len(req.Items)),
		ExternalReference: req.ExternalReference,
		NotificationURL:   req.NotificationURL,
		BackURLs:          req.BackURLs,
		AutoReturn:        req.AutoReturn,
	}
	if pref.NotificationURL == "" {
		pref.NotificationURL = notificationURL
	}
	for _, it := range req.Items {
		currency := it.CurrencyID
		if currency == "" {
			currency = "BRL"
		}
		pref.Items = append(pref.Items, mercadoPagoItem{
			ID:          it.ID,
			Title:       it.Title,
			Quantity:    it.Quantity,
			UnitPrice:   json.Number(it.UnitPrice.StringFixed(2)),
			CurrencyID:  currency,
			PictureURL:  it.PictureURL,
			Description: it.Description,
		})
	}
	return pref
}
