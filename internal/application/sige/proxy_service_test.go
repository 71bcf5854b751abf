package sige

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/domain/sige"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProxyService_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("search drops empty filters", func(t *testing.T) {
		api := new(MockAPI)
		svc := NewProxyService(api, zap.NewNop())
		api.On("Do", ctx, sige.Request{
			Method: http.MethodGet,
			Path:   "/cliente",
			Query:  url.Values{"nome": {"Silva"}},
		}).Return(json.RawMessage(`[{"codigo":1}]`), nil)

		data, err := svc.Execute(ctx, ProxyInput{
			Resource: "customers",
			Verb:     sige.VerbSearch,
			Query:    url.Values{"nome": {"Silva"}, "cpfCnpj": {""}, "cidade": {"  "}},
		})
		require.NoError(t, err)
		assert.JSONEq(t, `[{"codigo":1}]`, string(data))
		api.AssertExpectations(t)
	})

	t.Run("invalid JSON makes no SIGE call", func(t *testing.T) {
		api := new(MockAPI)
		svc := NewProxyService(api, zap.NewNop())

		_, err := svc.Execute(ctx, ProxyInput{Resource: "customers", Verb: sige.VerbCreate, Body: []byte(`{"nome": "João",}`)})
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidJSON)
		assert.Contains(t, err.Error(), "JSON inválido: ")
		api.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
	})

	t.Run("empty body is invalid JSON", func(t *testing.T) {
		svc := NewProxyService(new(MockAPI), zap.NewNop())
		_, err := svc.Execute(ctx, ProxyInput{Resource: "customers", Verb: sige.VerbCreate, Body: []byte("  ")})
		assert.ErrorIs(t, err, shared.ErrInvalidJSON)
	})

	t.Run("create requires fields", func(t *testing.T) {
		api := new(MockAPI)
		svc := NewProxyService(api, zap.NewNop())

		_, err := svc.Execute(ctx, ProxyInput{Resource: "customers", Verb: sige.VerbCreate, Body: []byte(`{"nome":"João","cpfCnpj":""}`)})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Equal(t, "Campos obrigatórios ausentes: cpfCnpj", err.Error())
		api.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
	})

	t.Run("create forwards body", func(t *testing.T) {
		api := new(MockAPI)
		svc := NewProxyService(api, zap.NewNop())
		body := `{"nome":"João","cpfCnpj":"12345678909"}`
		api.On("Do", ctx, sige.Request{Method: http.MethodPost, Path: "/cliente", Body: json.RawMessage(body)}).
			Return(json.RawMessage(`{"codigo":77}`), nil)

		data, err := svc.Execute(ctx, ProxyInput{Resource: "customers", Verb: sige.VerbCreate, Body: []byte(" " + body + "\n")})
		require.NoError(t, err)
		assert.JSONEq(t, `{"codigo":77}`, string(data))
	})

	t.Run("update takes key from body", func(t *testing.T) {
		api := new(MockAPI)
		svc := NewProxyService(api, zap.NewNop())
		api.On("Do", ctx, mock.MatchedBy(func(r sige.Request) bool {
			return r.Method == http.MethodPut && r.Path == "/pedido/1234"
		})).Return(json.RawMessage(`{}`), nil)

		_, err := svc.Execute(ctx, ProxyInput{Resource: "orders", Verb: sige.VerbUpdate, Body: []byte(`{"numero":1234,"observacao":"urgente"}`)})
		require.NoError(t, err)
		api.AssertExpectations(t)
	})

	t.Run("large numeric key keeps every digit", func(t *testing.T) {
		api := new(MockAPI)
		svc := NewProxyService(api, zap.NewNop())
		api.On("Do", ctx, mock.MatchedBy(func(r sige.Request) bool {
			return r.Method == http.MethodPut && r.Path == "/pedido/9007199254740993"
		})).Return(json.RawMessage(`{}`), nil)

		_, err := svc.Execute(ctx, ProxyInput{Resource: "orders", Verb: sige.VerbUpdate, Body: []byte(`{"numero":9007199254740993}`)})
		require.NoError(t, err)
		api.AssertExpectations(t)
	})

	t.Run("trailing content is invalid JSON", func(t *testing.T) {
		api := new(MockAPI)
		svc := NewProxyService(api, zap.NewNop())
		_, err := svc.Execute(ctx, ProxyInput{Resource: "orders", Verb: sige.VerbUpdate, Body: []byte(`{"numero":1} {"numero":2}`)})
		assert.ErrorIs(t, err, shared.ErrInvalidJSON)
		api.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
	})

	t.Run("update without key", func(t *testing.T) {
		svc := NewProxyService(new(MockAPI), zap.NewNop())
		_, err := svc.Execute(ctx, ProxyInput{Resource: "orders", Verb: sige.VerbUpdate, Body: []byte(`{"observacao":"x"}`)})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Contains(t, err.Error(), "numero")
	})

	t.Run("delete escapes key", func(t *testing.T) {
		api := new(MockAPI)
		svc := NewProxyService(api, zap.NewNop())
		api.On("Do", ctx, sige.Request{Method: http.MethodDelete, Path: "/cliente/A%2FB"}).Return(nil, nil)

		_, err := svc.Execute(ctx, ProxyInput{Resource: "customers", Verb: sige.VerbDelete, Key: "A/B"})
		require.NoError(t, err)
	})

	t.Run("unsupported verb", func(t *testing.T) {
		svc := NewProxyService(new(MockAPI), zap.NewNop())
		_, err := svc.Execute(ctx, ProxyInput{Resource: "invoices", Verb: sige.VerbDelete, Key: "1"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("unknown resource", func(t *testing.T) {
		svc := NewProxyService(new(MockAPI), zap.NewNop())
		_, err := svc.Execute(ctx, ProxyInput{Resource: "nope", Verb: sige.VerbSearch})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("upstream error is returned as is", func(t *testing.T) {
		api := new(MockAPI)
		svc := NewProxyService(api, zap.NewNop())
		api.On("Do", ctx, mock.Anything).Return(nil, shared.ErrRateLimited)

		_, err := svc.Execute(ctx, ProxyInput{Resource: "sellers", Verb: sige.VerbSearch})
		assert.ErrorIs(t, err, shared.ErrRateLimited)
	})
}

func TestProxyService_Resources(t *testing.T) {
	svc := NewProxyService(new(MockAPI), zap.NewNop())
	assert.Len(t, svc.Resources(), 22)
}
