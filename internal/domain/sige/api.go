package sige

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/shopspring/decimal"
)

// Credentials are the store account credentials exchanged for a token pair
type Credentials struct {
	User     string
	Password string
	AppKey   string
}

// AuthAPI exchanges credentials and refresh tokens for token pairs
type AuthAPI interface {
	Login(ctx context.Context, creds Credentials) (Token, error)
	Refresh(ctx context.Context, refreshToken string) (Token, error)
}

// TokenProvider supplies a valid bearer token for SIGE calls
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// Request is one authenticated call to the SIGE REST API
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   json.RawMessage
}

// API performs authenticated SIGE calls and returns the raw response JSON
type API interface {
	Do(ctx context.Context, req Request) (json.RawMessage, error)
}

// ProductRecord is a product as listed by SIGE
type ProductRecord struct {
	Codigo    string          `json:"codigo"`
	Descricao string          `json:"descricao"`
	Categoria string          `json:"categoria"`
	Marca     string          `json:"marca"`
	Preco     decimal.Decimal `json:"preco"`
	Ativo     bool            `json:"ativo"`
}

// ProductLister pages through the SIGE product catalog
type ProductLister interface {
	ListProducts(ctx context.Context, page, pageSize int) ([]ProductRecord, error)
}
