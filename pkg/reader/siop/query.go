package siop

import (
	"fmt"
	"strings"

	"github.com/fdepm/painel/pkg/api"
)

// Breakdown selects the dimensions the expenditure rows are grouped by.
type Breakdown struct {
	Nature       bool // GND
	Action       bool
	Source       bool // funding source
	Descriptions bool
}

// FullBreakdown groups by every dimension and includes descriptions.
var FullBreakdown = Breakdown{Nature: true, Action: true, Source: true, Descriptions: true}

type dimension struct {
	predicate string
	node      string
	code      string
	desc      string
	enabled   func(Breakdown) bool
}

var dimensions = []dimension{
	{"loa:temAcao", "?acao", api.ColActionCode, api.ColActionDesc, func(b Breakdown) bool { return b.Action }},
	{"loa:temGND", "?gnd", api.ColNatureCode, api.ColNatureDesc, func(b Breakdown) bool { return b.Nature }},
	{"loa:temFonteRecursos", "?fonte", api.ColSourceCode, api.ColSourceDesc, func(b Breakdown) bool { return b.Source }},
}

type measure struct {
	predicate string
	column    string
}

var measures = []measure{
	{"loa:valorDotacaoInicial", api.ColInitial},
	{"loa:valorLeiMaisCredito", api.ColAllocated},
	{"loa:valorEmpenhado", api.ColCommitted},
	{"loa:valorLiquidado", api.ColLiquidated},
	{"loa:valorPago", api.ColPaid},
}

// Columns returns the result columns a query with this breakdown projects,
// dimensions first.
func (b Breakdown) Columns() []string {
	var cols []string
	for _, d := range dimensions {
		if !d.enabled(b) {
			continue
		}
		cols = append(cols, d.code)
		if b.Descriptions {
			cols = append(cols, d.desc)
		}
	}
	for _, m := range measures {
		cols = append(cols, m.column)
	}
	return cols
}

// BuildQuery returns the SPARQL query summing budget execution for one fiscal
// year and budget unit. unitCode must be numeric.
func BuildQuery(year int, unitCode string, b Breakdown) (string, error) {
	if unitCode == "" || strings.Trim(unitCode, "0123456789") != "" {
		return "", fmt.Errorf("invalid unit code %q", unitCode)
	}

	var groupVars []string
	for _, d := range dimensions {
		if !d.enabled(b) {
			continue
		}
		groupVars = append(groupVars, "?"+d.code)
		if b.Descriptions {
			groupVars = append(groupVars, "?"+d.desc)
		}
	}

	var q strings.Builder
	q.WriteString("PREFIX loa: <http://vocab.e.gov.br/2013/09/loa#>\n")
	q.WriteString("PREFIX rdfs: <http://www.w3.org/2000/01/rdf-schema#>\n")

	q.WriteString("SELECT")
	for _, v := range groupVars {
		q.WriteString(" " + v)
	}
	for i, m := range measures {
		fmt.Fprintf(&q, " (SUM(?v%d) AS ?%s)", i, m.column)
	}
	q.WriteString("\nWHERE {\n")
	q.WriteString("  ?i loa:temExercicio ?exercicio .\n")
	fmt.Fprintf(&q, "  ?exercicio loa:identificador %d .\n", year)
	q.WriteString("  ?i loa:temUnidadeOrcamentaria ?uo .\n")
	fmt.Fprintf(&q, "  ?uo loa:codigo %q .\n", unitCode)

	for _, d := range dimensions {
		if !d.enabled(b) {
			continue
		}
		fmt.Fprintf(&q, "  ?i %s %s .\n", d.predicate, d.node)
		fmt.Fprintf(&q, "  %s loa:codigo ?%s .\n", d.node, d.code)
		if b.Descriptions {
			fmt.Fprintf(&q, "  %s rdfs:label ?%s .\n", d.node, d.desc)
		}
	}
	for i, m := range measures {
		fmt.Fprintf(&q, "  ?i %s ?v%d .\n", m.predicate, i)
	}
	q.WriteString("}\n")

	if len(groupVars) > 0 {
		fmt.Fprintf(&q, "GROUP BY %s\n", strings.Join(groupVars, " "))
		fmt.Fprintf(&q, "ORDER BY %s\n", strings.Join(groupVars, " "))
	}
	return q.String(), nil
}
