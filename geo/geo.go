// Package geo holds the static tables of Brazilian federative units (UFs)
// and the five macro-regions they belong to.
package geo

import "sort"

// Region names, in publication order.
const (
	Norte       = "Norte"
	Nordeste    = "Nordeste"
	CentroOeste = "Centro-Oeste"
	Sudeste     = "Sudeste"
	Sul         = "Sul"
)

// Country is the label of national aggregates.
const Country = "Brasil"

var regions = []string{Norte, Nordeste, CentroOeste, Sudeste, Sul}

var ufByName = map[string]string{
	"Acre": "AC", "Alagoas": "AL", "Amapá": "AP", "Amazonas": "AM",
	"Bahia": "BA", "Ceará": "CE", "Distrito Federal": "DF", "Espírito Santo": "ES",
	"Goiás": "GO", "Maranhão": "MA", "Mato Grosso": "MT", "Mato Grosso do Sul": "MS",
	"Minas Gerais": "MG", "Pará": "PA", "Paraíba": "PB", "Paraná": "PR",
	"Pernambuco": "PE", "Piauí": "PI", "Rio de Janeiro": "RJ", "Rio Grande do Norte": "RN",
	"Rio Grande do Sul": "RS", "Rondônia": "RO", "Roraima": "RR", "Santa Catarina": "SC",
	"São Paulo": "SP", "Sergipe": "SE", "Tocantins": "TO",
}

var regionByUF = map[string]string{
	"AC": Norte, "AP": Norte, "AM": Norte, "PA": Norte, "RO": Norte, "RR": Norte, "TO": Norte,
	"AL": Nordeste, "BA": Nordeste, "CE": Nordeste, "MA": Nordeste, "PB": Nordeste,
	"PE": Nordeste, "PI": Nordeste, "RN": Nordeste, "SE": Nordeste,
	"DF": CentroOeste, "GO": CentroOeste, "MT": CentroOeste, "MS": CentroOeste,
	"ES": Sudeste, "MG": Sudeste, "RJ": Sudeste, "SP": Sudeste,
	"PR": Sul, "RS": Sul, "SC": Sul,
}

// UFCode returns the two-letter code of a UF given its full name, e.g.
// "São Paulo" → "SP". Aggregates such as "Brasil" or region names are not
// UFs.
func UFCode(name string) (string, bool) {
	code, ok := ufByName[name]
	return code, ok
}

// Region returns the region of a UF code.
func Region(uf string) string {
	return regionByUF[uf]
}

// Regions returns the five region names in publication order.
func Regions() []string {
	return append([]string(nil), regions...)
}

// IsRegion reports whether name is one of the five regions.
func IsRegion(name string) bool {
	for _, r := range regions {
		if r == name {
			return true
		}
	}
	return false
}

// UFs returns the sorted UF codes of a region.
func UFs(region string) []string {
	var ufs []string
	for uf, r := range regionByUF {
		if r == region {
			ufs = append(ufs, uf)
		}
	}
	sort.Strings(ufs)
	return ufs
}
