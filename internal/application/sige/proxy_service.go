package sige

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/autopecas/backend/internal/domain/shared"
	"github.com/autopecas/backend/internal/domain/sige"
	"go.uber.org/zap"
)

// ProxyInput is one admin panel action on a SIGE resource
type ProxyInput struct {
	Resource string
	Verb     sige.Verb
	Key      string
	Query    url.Values
	// Body is the free-text JSON typed by the admin
	Body []byte
}

// ProxyService forwards admin panel actions to the SIGE API after the
// presence and JSON checks the panels perform.
type ProxyService struct {
	api    sige.API
	logger *zap.Logger
}

// NewProxyService creates a new proxy service
func NewProxyService(api sige.API, logger *zap.Logger) *ProxyService {
	return &ProxyService{api: api, logger: logger}
}

// Resources lists the registry
func (s *ProxyService) Resources() []sige.Resource {
	return sige.Resources()
}

// Execute validates the input and performs the SIGE call. Invalid input never
// reaches the network.
func (s *ProxyService) Execute(ctx context.Context, in ProxyInput) (json.RawMessage, error) {
	resource, ok := sige.Lookup(in.Resource)
	if !ok {
		return nil, shared.ErrNotFound.WithMessage("Recurso SIGE desconhecido: " + in.Resource)
	}
	if !resource.Supports(in.Verb) {
		return nil, shared.ErrInvalidInput.WithMessage(fmt.Sprintf("Operação %s não suportada para %s", in.Verb, resource.Label))
	}

	req, err := buildRequest(resource, in)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := s.api.Do(ctx, req)
	fields := []zap.Field{
		zap.String("resource", resource.Key),
		zap.String("verb", string(in.Verb)),
		zap.Duration("latency", time.Since(start)),
	}
	if err != nil {
		s.logger.Warn("SIGE proxy call failed", append(fields, zap.Error(err))...)
		return nil, err
	}
	s.logger.Debug("SIGE proxy call", fields...)
	return data, nil
}

func buildRequest(resource sige.Resource, in ProxyInput) (sige.Request, error) {
	switch in.Verb {
	case sige.VerbSearch:
		return sige.Request{Method: http.MethodGet, Path: resource.Path, Query: compactQuery(in.Query)}, nil

	case sige.VerbCreate:
		body, fields, err := parseBody(in.Body)
		if err != nil {
			return sige.Request{}, err
		}
		if missing := missingFields(resource.Required, fields); len(missing) > 0 {
			return sige.Request{}, shared.ErrInvalidInput.WithMessage("Campos obrigatórios ausentes: " + strings.Join(missing, ", "))
		}
		return sige.Request{Method: http.MethodPost, Path: resource.Path, Body: body}, nil

	case sige.VerbUpdate:
		body, fields, err := parseBody(in.Body)
		if err != nil {
			return sige.Request{}, err
		}
		key := strings.TrimSpace(in.Key)
		if key == "" {
			key = keyFromBody(fields, resource.KeyParam)
		}
		if key == "" {
			return sige.Request{}, missingKey(resource)
		}
		return sige.Request{Method: http.MethodPut, Path: resource.ItemPath(url.PathEscape(key)), Body: body}, nil

	case sige.VerbDelete:
		key := strings.TrimSpace(in.Key)
		if key == "" {
			return sige.Request{}, missingKey(resource)
		}
		return sige.Request{Method: http.MethodDelete, Path: resource.ItemPath(url.PathEscape(key))}, nil
	}
	return sige.Request{}, shared.ErrInvalidInput.WithMessage("Operação inválida: " + string(in.Verb))
}

// parseBody checks the free-text JSON. Object bodies also return their
// fields, with numbers kept as json.Number.
func parseBody(raw []byte) (json.RawMessage, map[string]any, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return nil, nil, shared.ErrInvalidJSON.WithMessage("JSON inválido: corpo vazio")
	}
	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()
	var parsed any
	if err := dec.Decode(&parsed); err != nil {
		return nil, nil, shared.ErrInvalidJSON.WithMessage("JSON inválido: " + err.Error())
	}
	if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
		return nil, nil, shared.ErrInvalidJSON.WithMessage("JSON inválido: conteúdo após o valor")
	}
	fields, _ := parsed.(map[string]any)
	return json.RawMessage(trimmed), fields, nil
}

func missingFields(required []string, fields map[string]any) []string {
	var missing []string
	for _, name := range required {
		if isBlank(fields[name]) {
			missing = append(missing, name)
		}
	}
	return missing
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	}
	return false
}

func keyFromBody(fields map[string]any, keyParam string) string {
	if keyParam == "" || fields == nil {
		return ""
	}
	switch v := fields[keyParam].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	}
	return ""
}

func missingKey(resource sige.Resource) error {
	param := resource.KeyParam
	if param == "" {
		param = "chave"
	}
	return shared.ErrInvalidInput.WithMessage("Informe o campo chave (" + param + ")")
}

// compactQuery drops empty filters so SIGE sees only what the admin typed
func compactQuery(q url.Values) url.Values {
	out := url.Values{}
	for k, vs := range q {
		for _, v := range vs {
			if v = strings.TrimSpace(v); v != "" {
				out.Add(k, v)
			}
		}
	}
	return out
}
