package sige

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/autopecas/backend/internal/domain/catalog"
	"github.com/autopecas/backend/internal/domain/sige"
)

// Balances looks up stock for many SKUs in one GET /produto/saldo call
func (c *Client) Balances(ctx context.Context, skus []string) (map[string]catalog.Balance, error) {
	result := make(map[string]catalog.Balance, len(skus))
	if len(skus) == 0 {
		return result, nil
	}
	var rows []sigeBalance
	if err := c.getJSON(ctx, "/produto/saldo", codesQuery(skus), &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		result[r.Codigo] = catalog.Balance{SKU: r.Codigo, Qty: r.Saldo, Reserved: r.Reservado}
	}
	return result, nil
}

// Prices looks up prices for many SKUs in one GET /produto/preco call
func (c *Client) Prices(ctx context.Context, skus []string) (map[string]catalog.Price, error) {
	result := make(map[string]catalog.Price, len(skus))
	if len(skus) == 0 {
		return result, nil
	}
	var rows []sigePrice
	if err := c.getJSON(ctx, "/produto/preco", codesQuery(skus), &rows); err != nil {
		return nil, err
	}
	for _, r := range rows {
		result[r.Codigo] = catalog.Price{SKU: r.Codigo, Price: r.Preco, PromoPrice: r.PrecoPromocional}
	}
	return result, nil
}

// ListProducts returns one page of the SIGE product catalog, 1-based
func (c *Client) ListProducts(ctx context.Context, page, pageSize int) ([]sige.ProductRecord, error) {
	query := url.Values{
		"pagina":        {strconv.Itoa(page)},
		"tamanhoPagina": {strconv.Itoa(pageSize)},
	}
	var records []sige.ProductRecord
	if err := c.getJSON(ctx, "/produto", query, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func codesQuery(skus []string) url.Values {
	return url.Values{"codigos": {strings.Join(skus, ",")}}
}

var (
	_ catalog.BalanceSource = (*Client)(nil)
	_ catalog.PriceSource   = (*Client)(nil)
	_ sige.ProductLister    = (*Client)(nil)
)
