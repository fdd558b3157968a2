// Package fiscal contiene catálogos y validaciones de códigos fiscales brasileños
// usados por los motores de cálculo: UF, NCM y CFOP.
package fiscal

import (
	"sort"
	"strings"
	"unicode"
)

// =============================================================================
// Unidades Federativas (IBGE)
// =============================================================================

// ufNames nombres de las 27 unidades federativas, indexados por sigla.
var ufNames = map[string]string{
	"AC": "Acre", "AL": "Alagoas", "AP": "Amapá", "AM": "Amazonas", "BA": "Bahia",
	"CE": "Ceará", "DF": "Distrito Federal", "ES": "Espírito Santo", "GO": "Goiás",
	"MA": "Maranhão", "MT": "Mato Grosso", "MS": "Mato Grosso do Sul", "MG": "Minas Gerais",
	"PA": "Pará", "PB": "Paraíba", "PR": "Paraná", "PE": "Pernambuco", "PI": "Piauí",
	"RJ": "Rio de Janeiro", "RN": "Rio Grande do Norte", "RS": "Rio Grande do Sul",
	"RO": "Rondônia", "RR": "Roraima", "SC": "Santa Catarina", "SP": "São Paulo",
	"SE": "Sergipe", "TO": "Tocantins",
}

// NormalizeUF devuelve la sigla en mayúsculas y sin espacios.
func NormalizeUF(uf string) string {
	return strings.ToUpper(strings.TrimSpace(uf))
}

// IsValidUF indica si la sigla corresponde a una UF brasileña.
func IsValidUF(uf string) bool {
	_, ok := ufNames[NormalizeUF(uf)]
	return ok
}

// UFName devuelve el nombre de la UF o "" si no existe.
func UFName(uf string) string {
	return ufNames[NormalizeUF(uf)]
}

// UFs devuelve todas las siglas ordenadas.
func UFs() []string {
	out := make([]string, 0, len(ufNames))
	for uf := range ufNames {
		out = append(out, uf)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// NCM - Nomenclatura Comum do Mercosul (8 dígitos)
// =============================================================================

// NormalizeNCM elimina puntos y espacios: "2203.00.00" -> "22030000".
func NormalizeNCM(ncm string) string {
	return digitsOnly(ncm)
}

// IsValidNCM indica si el NCM normalizado tiene 8 dígitos.
func IsValidNCM(ncm string) bool {
	return len(NormalizeNCM(ncm)) == 8
}

// =============================================================================
// CFOP - Código Fiscal de Operações e Prestações (4 dígitos)
// Primer dígito: 1/2/3 entradas, 5 salida interna, 6 salida interestatal, 7 exterior.
// Grupos x.4xx: operaciones con mercadería sujeta a sustitución tributaria.
// =============================================================================

const (
	CFOPGroupInternalOut   = '5'
	CFOPGroupInterstateOut = '6'
)

// NormalizeCFOP elimina separadores: "5.405" -> "5405".
func NormalizeCFOP(cfop string) string {
	return digitsOnly(cfop)
}

// IsSTRelevantCFOP indica si el CFOP pertenece a los grupos 5.4xx/6.4xx
// (salidas de mercadería sujeta al régimen de sustitución tributaria).
func IsSTRelevantCFOP(cfop string) bool {
	c := NormalizeCFOP(cfop)
	if len(c) != 4 {
		return false
	}
	return (c[0] == CFOPGroupInternalOut || c[0] == CFOPGroupInterstateOut) && c[1] == '4'
}

// IsValidCFOP indica si el CFOP normalizado tiene 4 dígitos y grupo conocido.
func IsValidCFOP(cfop string) bool {
	c := NormalizeCFOP(cfop)
	return len(c) == 4 && c[0] >= '1' && c[0] <= '7' && c[0] != '4'
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
