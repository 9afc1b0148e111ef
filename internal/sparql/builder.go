package sparql

import (
	"fmt"
	"strings"

	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/vocab"
)

// Query text builders. Every builder is a pure function of its arguments so
// the rendered text can be checked against golden files.

func iri(s string) string { return rdf.NewIRI(s).String() }

func str(s string) string { return rdf.NewLiteral(s).String() }

func iris(values []string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = iri(v)
	}
	return strings.Join(parts, " ")
}

func terms(values []rdf.Term, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, sep)
}

func dataBlock(op string, groups []graphTriples) string {
	var b strings.Builder
	b.WriteString(op)
	b.WriteString(" {\n")
	for _, g := range groups {
		fmt.Fprintf(&b, "  GRAPH %s {\n", iri(g.graph))
		for _, t := range g.triples {
			b.WriteString("    ")
			b.WriteString(t.String())
			b.WriteByte('\n')
		}
		b.WriteString("  }\n")
	}
	b.WriteString("}")
	return b.String()
}

type graphTriples struct {
	graph   string
	triples []rdf.Triple
}

func insertDataQuery(g string, ts []rdf.Triple) string {
	return dataBlock("INSERT DATA", []graphTriples{{g, ts}})
}

func deleteDataQuery(g string, ts []rdf.Triple) string {
	return dataBlock("DELETE DATA", []graphTriples{{g, ts}})
}

func dropGraphQuery(g string) string {
	return "DROP SILENT GRAPH " + iri(g)
}

func addGraphQuery(from, to string) string {
	return fmt.Sprintf("ADD SILENT GRAPH %s TO GRAPH %s", iri(from), iri(to))
}

func countMissingQuery(from, to, exclude string) string {
	return fmt.Sprintf(`SELECT (COUNT(*) AS ?count) WHERE {
  GRAPH %[1]s { ?s ?p ?o . }
  FILTER (?s != %[3]s)
  FILTER NOT EXISTS { GRAPH %[2]s { ?s ?p ?o . } }
}`, iri(from), iri(to), iri(exclude))
}

func copyMissingQuery(from, to, exclude string, limit int) string {
	return fmt.Sprintf(`INSERT {
  GRAPH %[2]s { ?s ?p ?o . }
} WHERE {
  {
    SELECT ?s ?p ?o WHERE {
      GRAPH %[1]s { ?s ?p ?o . }
      FILTER (?s != %[3]s)
      FILTER NOT EXISTS { GRAPH %[2]s { ?s ?p ?o . } }
    }
    LIMIT %[4]d
  }
}`, iri(from), iri(to), iri(exclude), limit)
}

func typeCountsQuery(g string) string {
	return fmt.Sprintf(`SELECT ?type (COUNT(DISTINCT ?s) AS ?count) WHERE {
  GRAPH %s { ?s a ?type . }
}
GROUP BY ?type
ORDER BY ?type`, iri(g))
}

func afterFilter(v, after string) string {
	if after == "" {
		return ""
	}
	return fmt.Sprintf("  FILTER (STR(?%s) > %s)\n", v, str(after))
}

func resourcePageQuery(g, typ, after string, limit int) string {
	return fmt.Sprintf(`SELECT DISTINCT ?s WHERE {
  GRAPH %s { ?s a %s . }
%s}
ORDER BY STR(?s)
LIMIT %d`, iri(g), iri(typ), afterFilter("s", after), limit)
}

func countResourcesQuery(g string) string {
	return fmt.Sprintf(`SELECT (COUNT(DISTINCT ?s) AS ?count) WHERE {
  GRAPH %s { ?s ?p ?o . }
}`, iri(g))
}

func triplesQuery(g string) string {
	return fmt.Sprintf(`SELECT ?s ?p ?o WHERE {
  GRAPH %s { ?s ?p ?o . }
}`, iri(g))
}

func containsQuery(g string, t rdf.Triple) string {
	return fmt.Sprintf(`ASK {
  GRAPH %s { %s }
}`, iri(g), t.String())
}

func graphsQuery() string {
	return `SELECT ?g (COUNT(*) AS ?count) WHERE {
  GRAPH ?g { ?s ?p ?o . }
}
GROUP BY ?g
ORDER BY ?g`
}

// condition renders c as a FILTER on variable v. n numbers the condition so
// nested variables do not collide.
func condition(c graph.Condition, v string, n int) string {
	if c.Path.IsIdentity() {
		op := "IN"
		if c.Negate {
			op = "NOT IN"
		}
		return fmt.Sprintf("FILTER (?%s %s (%s))", v, op, terms(c.Values, ", "))
	}
	op := "EXISTS"
	if c.Negate {
		op = "NOT EXISTS"
	}
	cv := fmt.Sprintf("?c%d", n)
	if len(c.Values) == 0 {
		return fmt.Sprintf("FILTER %s { ?%s %s %s . }", op, v, c.Path, cv)
	}
	return fmt.Sprintf("FILTER %s { ?%s %s %s . VALUES %s { %s } }", op, v, c.Path, cv, cv, terms(c.Values, " "))
}

func conditions(cs []graph.Condition, vars map[graph.Anchor]string, indent string) string {
	var b strings.Builder
	for i, c := range cs {
		b.WriteString(indent)
		b.WriteString(condition(c, vars[c.On], i))
		b.WriteByte('\n')
	}
	return b.String()
}

func seedAgendasQuery(seed graph.AgendaSeed) string {
	var values string
	if !seed.All {
		values = fmt.Sprintf("  VALUES ?agenda { %s }\n", iris(seed.Agendas))
	}
	return fmt.Sprintf(`INSERT {
  GRAPH %s {
    ?agenda a %s ;
      %s ?agenda .
  }
} WHERE {
%s  GRAPH %s {
    ?agenda a %s .
%s  }
}`,
		iri(seed.Scratch), iri(vocab.Agenda), iri(vocab.TracesLineageTo),
		values, iri(seed.Source), iri(vocab.Agenda),
		conditions(seed.Where, map[graph.Anchor]string{graph.OnResource: "agenda"}, "    "))
}

func insertReachableQuery(t graph.Traversal) string {
	typ := "?type"
	if t.AssignType != "" {
		typ = iri(t.AssignType)
	}
	var types string
	if len(t.Types) > 0 {
		types = fmt.Sprintf("    VALUES ?type { %s }\n", iris(t.Types))
	}
	vars := map[graph.Anchor]string{
		graph.OnResource: "resource",
		graph.OnAnchor:   "anchor",
		graph.OnAgenda:   "agenda",
	}
	return fmt.Sprintf(`INSERT {
  GRAPH %s {
    ?resource a %s ;
      %s ?agenda .
  }
} WHERE {
  GRAPH %s {
    ?anchor a %s ;
      %s ?agenda .
  }
  GRAPH %s {
    ?anchor %s ?resource .
    ?resource a ?type .
%s%s  }
}`,
		iri(t.Scratch), typ, iri(vocab.TracesLineageTo),
		iri(t.Scratch), iri(t.Anchor), iri(vocab.TracesLineageTo),
		iri(t.Source), t.Path, types, conditions(t.Where, vars, "    "))
}

func copyDetailsQuery(source, scratch string, resources []string) string {
	vals := iris(resources)
	return fmt.Sprintf(`INSERT {
  GRAPH %[1]s { ?s ?p ?o . }
} WHERE {
  VALUES ?s { %[3]s }
  GRAPH %[2]s { ?s ?p ?o . }
};
INSERT {
  GRAPH %[1]s { ?s ?p ?o . }
} WHERE {
  VALUES ?o { %[3]s }
  GRAPH %[2]s { ?s ?p ?o . }
}`, iri(scratch), iri(source), vals)
}

func deleteByTypePredicateQuery(g, typ, predicate string) string {
	return fmt.Sprintf(`DELETE {
  GRAPH %[1]s { ?s %[3]s ?o . }
} WHERE {
  GRAPH %[1]s {
    ?s a %[2]s ;
      %[3]s ?o .
  }
}`, iri(g), iri(typ), iri(predicate))
}

func pruneUnlineagedQuery(g, keep string) string {
	return fmt.Sprintf(`DELETE {
  GRAPH %[1]s { ?s ?p ?o . }
} WHERE {
  GRAPH %[1]s {
    ?s ?p ?o .
    FILTER (?s != %[2]s)
    FILTER NOT EXISTS { ?s %[3]s ?agenda . }
  }
}`, iri(g), iri(keep), iri(vocab.TracesLineageTo))
}

func pruneHiddenReferencesQuery(source, scratch string) string {
	return fmt.Sprintf(`DELETE {
  GRAPH %[1]s { ?s ?p ?o . }
} WHERE {
  GRAPH %[1]s {
    ?s ?p ?o .
    FILTER (?p != %[3]s)
  }
  GRAPH %[2]s { ?o a ?type . }
  FILTER NOT EXISTS { GRAPH %[1]s { ?o %[4]s ?agenda . } }
}`, iri(scratch), iri(source), iri(vocab.Type), iri(vocab.TracesLineageTo))
}

func scopeHead(scope graph.Scope) string {
	return fmt.Sprintf(`  VALUES ?agenda { %s }
  GRAPH %s { ?resource %s ?agenda . }
`, iris(scope.Agendas), iri(scope.Target), iri(vocab.TracesLineageTo))
}

func orphansQuery(scope graph.Scope, after string, limit int) string {
	return fmt.Sprintf(`SELECT DISTINCT ?resource WHERE {
%s  FILTER NOT EXISTS { GRAPH %s { ?resource %s ?any . } }
%s}
ORDER BY STR(?resource)
LIMIT %d`,
		scopeHead(scope), iri(scope.Scratch), iri(vocab.TracesLineageTo),
		afterFilter("resource", after), limit)
}

func staleResourcesQuery(scope graph.Scope, after string, limit int) string {
	return fmt.Sprintf(`SELECT DISTINCT ?resource WHERE {
%[1]s%[2]s  {
    GRAPH %[3]s { ?resource ?p ?o . }
    FILTER (?p != %[5]s)
    FILTER NOT EXISTS { GRAPH %[4]s { ?resource ?p ?o . } }
  } UNION {
    GRAPH %[3]s { ?s ?p ?resource . }
    FILTER (?p != %[5]s)
    FILTER NOT EXISTS { GRAPH %[4]s { ?s ?p ?resource . } }
  }
}
ORDER BY STR(?resource)
LIMIT %[6]d`,
		scopeHead(scope), afterFilter("resource", after),
		iri(scope.Target), iri(scope.Scratch), iri(vocab.TracesLineageTo), limit)
}

func staleLineageQuery(scope graph.Scope, after graph.Lineage, limit int) string {
	var cursor string
	if after.Resource != "" {
		cursor = fmt.Sprintf("  FILTER (STR(?resource) > %[1]s || (STR(?resource) = %[1]s && STR(?agenda) > %[2]s))\n",
			str(after.Resource), str(after.Agenda))
	}
	return fmt.Sprintf(`SELECT ?resource ?agenda WHERE {
%s  FILTER NOT EXISTS { GRAPH %s { ?resource %s ?agenda . } }
%s}
ORDER BY STR(?resource) STR(?agenda)
LIMIT %d`,
		scopeHead(scope), iri(scope.Scratch), iri(vocab.TracesLineageTo), cursor, limit)
}

func purgeResourceQuery(g string, resources []string) string {
	return fmt.Sprintf(`DELETE {
  GRAPH %[1]s { ?r ?p ?o . }
} WHERE {
  VALUES ?r { %[2]s }
  GRAPH %[1]s { ?r ?p ?o . }
};
DELETE {
  GRAPH %[1]s { ?s ?p ?r . }
} WHERE {
  VALUES ?r { %[2]s }
  GRAPH %[1]s { ?s ?p ?r . }
}`, iri(g), iris(resources))
}

func deleteLineageQuery(g string, edges []graph.Lineage) string {
	ts := make([]rdf.Triple, len(edges))
	for i, e := range edges {
		ts[i] = rdf.NewTriple(e.Resource, vocab.TracesLineageTo, rdf.NewIRI(e.Agenda))
	}
	return deleteDataQuery(g, ts)
}

func reachableAgendasQuery(r graph.Reach) string {
	var b strings.Builder
	fmt.Fprintf(&b, "SELECT DISTINCT ?agenda WHERE {\n  VALUES ?subject { %s }\n  GRAPH %s {\n    ?subject a %s .\n",
		iris(r.Subjects), iri(r.Graph), iri(r.Type))
	for i, p := range r.Paths {
		b.WriteString("    ")
		if i > 0 {
			b.WriteString("UNION ")
		}
		if p.IsIdentity() {
			fmt.Fprintf(&b, "{ ?subject a %s . BIND(?subject AS ?agenda) }\n", iri(r.Type))
		} else {
			fmt.Fprintf(&b, "{ ?subject %s ?agenda . }\n", p)
		}
	}
	fmt.Fprintf(&b, "    ?agenda a %s .\n  }\n}\nORDER BY STR(?agenda)", iri(r.Target))
	return b.String()
}
