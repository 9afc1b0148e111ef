// Package vocab holds the IRIs of the graphs, classes, predicates and
// concepts the distribution service works with.
package vocab

// Namespaces.
const (
	Besluitvorming = "http://data.vlaanderen.be/ns/besluitvorming#"
	Besluit        = "http://data.vlaanderen.be/ns/besluit#"
	Ext            = "http://mu.semte.ch/vocabularies/ext/"
	Dbpedia        = "http://dbpedia.org/ontology/"
	Dct            = "http://purl.org/dc/terms/"
	Prov           = "http://www.w3.org/ns/prov#"
	Foaf           = "http://xmlns.com/foaf/0.1/"
	Schema         = "http://schema.org/"
	Dossier        = "https://data.vlaanderen.be/ns/dossier#"
	Nfo            = "http://www.semanticdesktop.org/ontologies/2007/03/22/nfo#"
	Nie            = "http://www.semanticdesktop.org/ontologies/2007/01/19/nie#"
	RDF            = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	TypedLiterals  = "http://mu.semte.ch/vocabularies/typed-literals/"
)

// Graphs.
const (
	AdminGraph      = "http://mu.semte.ch/graphs/organizations/kanselarij"
	MinisterGraph   = "http://mu.semte.ch/graphs/organizations/minister"
	CabinetGraph    = "http://mu.semte.ch/graphs/organizations/intern-regering"
	GovernmentGraph = "http://mu.semte.ch/graphs/organizations/intern-overheid"
	PublicGraph     = "http://mu.semte.ch/graphs/public"

	ScratchGraphPrefix = "http://mu.semte.ch/graphs/temp/"
)

// Classes.
const (
	Agenda                   = Besluitvorming + "Agenda"
	Agendapunt               = Besluit + "Agendapunt"
	Zitting                  = Besluit + "Zitting"
	BehandelingVanAgendapunt = Besluit + "BehandelingVanAgendapunt"
	Decision                 = Besluit + "Besluit"
	Beslissingsactiviteit    = Besluitvorming + "Beslissingsactiviteit"
	Agendering               = Besluitvorming + "Agendering"
	NieuwsbriefInfo          = Besluitvorming + "NieuwsbriefInfo"
	Mededeling               = Besluitvorming + "Mededeling"
	UnitOfWork               = Dbpedia + "UnitOfWork"
	Case                     = Dossier + "Dossier"
	Stuk                     = Dossier + "Stuk"
	Serie                    = Dossier + "Serie"
	FileDataObject           = Nfo + "FileDataObject"
	TempGraph                = Ext + "TempGraph"
)

// Predicates.
const (
	Type                = RDF + "type"
	TracesLineageTo     = Ext + "tracesLineageTo"
	PrivateComment      = Ext + "privateComment"
	Vertrouwelijk       = Ext + "vertrouwelijk"
	AgendaStatus        = Besluitvorming + "agendaStatus"
	IsAangemaaktVoor    = Besluit + "isAangemaaktVoor"
	ReleasedDecisions   = Ext + "releasedDecisions"
	ReleasedDocuments   = Ext + "releasedDocuments"
	HasPart             = Dct + "hasPart"
	File                = Ext + "file"
	DataSource          = Nie + "dataSource"
	DocumentAccessLevel = Ext + "toegangsniveauVoorDocumentVersie"
)

// Concepts.
const (
	DesignAgendaStatus = "http://kanselarij.vo.data.gift/id/agendastatus/2735d084-63d1-499f-86f4-9b69eb33727f"

	AccessLevelInternalSecretary = "http://kanselarij.vo.data.gift/id/concept/toegangs-niveaus/4bbbbc03-5dda-4885-a42f-7ee68fea1aae"
	AccessLevelCabinet           = "http://kanselarij.vo.data.gift/id/concept/toegangs-niveaus/d335f7e3-aefd-4f93-81a2-1629c2edafa3"
	AccessLevelGovernment        = "http://kanselarij.vo.data.gift/id/concept/toegangs-niveaus/abe4c18d-13a9-45f0-8cdd-c493eabbbe29"
	AccessLevelPublic            = "http://kanselarij.vo.data.gift/id/concept/toegangs-niveaus/6ca49d86-d40f-46c9-bde3-a322aa7e5c8e"

	DecisionStatusApproved = "http://kanselarij.vo.data.gift/id/concept/beslissings-resultaat-codes/56312c4b-9d2a-4735-b0b1-2ff14bb524fd"
)

// BooleanType is the mu typed-literal datatype for booleans.
const BooleanType = TypedLiterals + "boolean"

// Prefixes returns the default prefix table used by path expressions.
func Prefixes() map[string]string {
	return map[string]string{
		"besluitvorming": Besluitvorming,
		"besluit":        Besluit,
		"ext":            Ext,
		"dbpedia":        Dbpedia,
		"dct":            Dct,
		"prov":           Prov,
		"foaf":           Foaf,
		"schema":         Schema,
		"dossier":        Dossier,
		"nfo":            Nfo,
		"nie":            Nie,
		"rdf":            RDF,
	}
}
