package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target carries the same code, so a message-specific
// copy still matches its sentinel with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the error with a more specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors. Messages are shown verbatim to storefront and admin users.
var (
	ErrNotFound       = NewDomainError("NOT_FOUND", "Registro não encontrado")
	ErrAlreadyExists  = NewDomainError("ALREADY_EXISTS", "Registro já existe")
	ErrInvalidInput   = NewDomainError("INVALID_INPUT", "Dados inválidos")
	ErrInvalidJSON    = NewDomainError("INVALID_JSON", "JSON inválido")
	ErrUnauthorized   = NewDomainError("UNAUTHORIZED", "Não autorizado")
	ErrSessionExpired = NewDomainError("SESSION_EXPIRED", "Sessão expirada. Faça login novamente.")
	ErrForbidden      = NewDomainError("FORBIDDEN", "Acesso negado")
	ErrInvalidState   = NewDomainError("INVALID_STATE", "Operação não permitida no estado atual")
	ErrUpstream       = NewDomainError("UPSTREAM_ERROR", "Falha na comunicação com o serviço externo")
	ErrRateLimited    = NewDomainError("RATE_LIMITED", "Limite de requisições excedido, tente novamente em instantes")
)
