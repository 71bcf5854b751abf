package sige

import (
	"sort"
	"strings"
)

// Verb is an operation an admin panel can perform on a SIGE resource
type Verb string

const (
	VerbSearch Verb = "search"
	VerbCreate Verb = "create"
	VerbUpdate Verb = "update"
	VerbDelete Verb = "delete"
)

// Resource describes one SIGE endpoint family exposed to the back-office
type Resource struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Path     string   `json:"path"`
	Verbs    []Verb   `json:"verbs"`
	Required []string `json:"required,omitempty"`
	KeyParam string   `json:"key_param,omitempty"`
}

// Supports returns true if the resource accepts the verb
func (r Resource) Supports(v Verb) bool {
	for _, rv := range r.Verbs {
		if rv == v {
			return true
		}
	}
	return false
}

// ItemPath returns the path of a single record
func (r Resource) ItemPath(key string) string {
	return strings.TrimSuffix(r.Path, "/") + "/" + key
}

var (
	searchOnly = []Verb{VerbSearch}
	crud       = []Verb{VerbSearch, VerbCreate, VerbUpdate, VerbDelete}
	noDelete   = []Verb{VerbSearch, VerbCreate, VerbUpdate}
)

var registry = map[string]Resource{}

func register(r Resource) {
	registry[r.Key] = r
}

func init() {
	register(Resource{Key: "customers", Label: "Clientes", Path: "/cliente", Verbs: crud, Required: []string{"nome", "cpfCnpj"}, KeyParam: "codigo"})
	register(Resource{Key: "customer-complement", Label: "Complemento de cliente", Path: "/cliente/complemento", Verbs: noDelete, Required: []string{"codigoCliente"}, KeyParam: "codigoCliente"})
	register(Resource{Key: "customer-addresses", Label: "Endereços de cliente", Path: "/cliente/endereco", Verbs: crud, Required: []string{"codigoCliente", "cep"}, KeyParam: "codigo"})
	register(Resource{Key: "customer-contacts", Label: "Contatos de cliente", Path: "/cliente/contato", Verbs: crud, Required: []string{"codigoCliente", "nome"}, KeyParam: "codigo"})
	register(Resource{Key: "products", Label: "Produtos", Path: "/produto", Verbs: crud, Required: []string{"codigo", "descricao"}, KeyParam: "codigo"})
	register(Resource{Key: "product-prices", Label: "Preços de produto", Path: "/produto/preco", Verbs: []Verb{VerbSearch, VerbUpdate}, KeyParam: "codigo"})
	register(Resource{Key: "product-balances", Label: "Saldos de estoque", Path: "/produto/saldo", Verbs: searchOnly})
	register(Resource{Key: "product-images", Label: "Imagens de produto", Path: "/produto/imagem", Verbs: []Verb{VerbSearch, VerbCreate, VerbDelete}, Required: []string{"codigoProduto", "url"}, KeyParam: "codigo"})
	register(Resource{Key: "product-grades", Label: "Grades de produto", Path: "/produto/grade", Verbs: searchOnly})
	register(Resource{Key: "categories", Label: "Categorias", Path: "/categoria", Verbs: crud, Required: []string{"nome"}, KeyParam: "codigo"})
	register(Resource{Key: "subcategories", Label: "Subcategorias", Path: "/subcategoria", Verbs: crud, Required: []string{"codigoCategoria", "nome"}, KeyParam: "codigo"})
	register(Resource{Key: "brands", Label: "Marcas", Path: "/marca", Verbs: crud, Required: []string{"nome"}, KeyParam: "codigo"})
	register(Resource{Key: "orders", Label: "Pedidos", Path: "/pedido", Verbs: noDelete, Required: []string{"codigoCliente", "itens"}, KeyParam: "numero"})
	register(Resource{Key: "order-items", Label: "Itens de pedido", Path: "/pedido/item", Verbs: searchOnly})
	register(Resource{Key: "order-status", Label: "Situação de pedido", Path: "/pedido/situacao", Verbs: []Verb{VerbSearch, VerbUpdate}, KeyParam: "numero"})
	register(Resource{Key: "invoices", Label: "Notas fiscais", Path: "/notafiscal", Verbs: searchOnly})
	register(Resource{Key: "payment-methods", Label: "Formas de pagamento", Path: "/formapagamento", Verbs: searchOnly})
	register(Resource{Key: "price-lists", Label: "Tabelas de preço", Path: "/tabelapreco", Verbs: searchOnly})
	register(Resource{Key: "carriers", Label: "Transportadoras", Path: "/transportadora", Verbs: noDelete, Required: []string{"nome"}, KeyParam: "codigo"})
	register(Resource{Key: "sellers", Label: "Vendedores", Path: "/vendedor", Verbs: searchOnly})
	register(Resource{Key: "warehouses", Label: "Depósitos", Path: "/deposito", Verbs: searchOnly})
	register(Resource{Key: "companies", Label: "Empresas", Path: "/empresa", Verbs: searchOnly})
}

// Lookup returns the resource registered under key
func Lookup(key string) (Resource, bool) {
	r, ok := registry[key]
	return r, ok
}

// Resources returns all registered resources ordered by key
func Resources() []Resource {
	out := make([]Resource, 0, len(registry))
	for _, r := range registry {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
