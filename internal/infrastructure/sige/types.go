package sige

import (
	"time"

	"github.com/autopecas/backend/internal/domain/sige"
	"github.com/shopspring/decimal"
)

// sigeLoginRequest is the body of POST /auth/login
type sigeLoginRequest struct {
	Usuario string `json:"usuario"`
	Senha   string `json:"senha"`
	AppKey  string `json:"appKey,omitempty"`
}

// sigeRefreshRequest is the body of POST /auth/refresh
type sigeRefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// sigeTokenResponse is returned by both auth endpoints
type sigeTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Conta        string `json:"conta"`
}

func (r sigeTokenResponse) toToken(now time.Time) sige.Token {
	return sige.Token{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    now.Add(time.Duration(r.ExpiresIn) * time.Second),
		Account:      r.Conta,
	}
}

// sigeBalance is one row of GET /produto/saldo
type sigeBalance struct {
	Codigo    string          `json:"codigo"`
	Saldo     decimal.Decimal `json:"saldo"`
	Reservado decimal.Decimal `json:"reservado"`
}

// sigePrice is one row of GET /produto/preco
type sigePrice struct {
	Codigo           string           `json:"codigo"`
	Preco            decimal.Decimal  `json:"preco"`
	PrecoPromocional *decimal.Decimal `json:"precoPromocional"`
}

// sigeErrorResponse is the error body SIGE returns on 4xx/5xx
type sigeErrorResponse struct {
	Mensagem string `json:"mensagem"`
	Erro     string `json:"erro"`
}

func (e sigeErrorResponse) message() string {
	if e.Mensagem != "" {
		return e.Mensagem
	}
	return e.Erro
}
