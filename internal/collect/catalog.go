package collect

import (
	"sort"

	"github.com/roach88/yggdrasil/internal/distribution"
	"github.com/roach88/yggdrasil/internal/graph"
	"github.com/roach88/yggdrasil/internal/rdf"
	"github.com/roach88/yggdrasil/internal/vocab"
)

// Profile names.
const (
	ProfileCabinet    = "cabinet"
	ProfileGovernment = "government"
	ProfilePublic     = "public"
)

var (
	meetings = Traverse{
		Label:  "meetings",
		Anchor: vocab.Agenda,
		Path:   path("besluit:isAangemaaktVoor"),
		Types:  []string{vocab.Zitting},
	}
	agendaitems = Traverse{
		Label:  "agendaitems",
		Anchor: vocab.Agenda,
		Path:   path("dct:hasPart"),
		Types:  []string{vocab.Agendapunt},
	}
	newsletter = Traverse{
		Label:   "newsletter",
		Anchor:  vocab.Zitting,
		Path:    path("ext:algemeneNieuwsbrief"),
		Types:   []string{vocab.NieuwsbriefInfo},
		Release: ReleaseDecisions,
	}
	agendaitemActivities = Traverse{
		Label:  "agendaitem-activities",
		Anchor: vocab.Agendapunt,
		Path:   path("^besluitvorming:genereertAgendapunt"),
		Types:  []string{vocab.Agendering},
	}
	subcases = Traverse{
		Label:  "subcases",
		Anchor: vocab.Agendapunt,
		Path:   path("^besluitvorming:isGeagendeerdVia"),
		Types:  []string{vocab.UnitOfWork},
	}
	cases = Traverse{
		Label:  "cases",
		Anchor: vocab.UnitOfWork,
		Path:   path("^dossier:doorloopt"),
		Types:  []string{vocab.Case},
	}
	treatments = Traverse{
		Label:   "agendaitem-treatments",
		Anchor:  vocab.Agendapunt,
		Path:    path("^besluitvorming:heeftOnderwerp"),
		Release: ReleaseDecisions,
	}
	decisionActivities = Traverse{
		Label:   "decision-activities",
		Anchor:  vocab.Agendapunt,
		Path:    path("^besluitvorming:heeftOnderwerp / besluitvorming:heeftBeslissing"),
		Release: ReleaseDecisions,
	}
	newsitems = Traverse{
		Label:   "newsitems",
		Anchor:  vocab.BehandelingVanAgendapunt,
		Path:    path("prov:generated"),
		Release: ReleaseDecisions,
	}
	agendaitemDocuments = Traverse{
		Label:   "agendaitem-documents",
		Anchor:  vocab.Agendapunt,
		Path:    path("ext:bevatAgendapuntDocumentversie"),
		Types:   []string{vocab.Stuk},
		Release: ReleaseDocuments,
	}
	meetingDocuments = Traverse{
		Label:   "meeting-documents",
		Anchor:  vocab.Zitting,
		Path:    path("ext:zittingDocumentversie"),
		Types:   []string{vocab.Stuk},
		Release: ReleaseDocuments,
	}
	documentContainers = Traverse{
		Label:  "document-containers",
		Anchor: vocab.Stuk,
		Path:   path("^dossier:collectie.bestaatUit"),
		Types:  []string{vocab.Serie},
	}
	physicalFiles = Traverse{
		Label:  "physical-files",
		Anchor: vocab.FileDataObject,
		Path:   path("^nie:dataSource"),
		Types:  []string{vocab.FileDataObject},
	}
)

// visibleFiles collects the files of documents in scratch that pass where,
// evaluated on the document.
func visibleFiles(where ...graph.Condition) Traverse {
	return Traverse{
		Label:      "visible-files",
		Anchor:     vocab.Stuk,
		Path:       path("ext:file"),
		AssignType: vocab.FileDataObject,
		Where:      where,
	}
}

func accessLevel(on graph.Anchor, levels ...string) graph.Condition {
	values := make([]rdf.Term, len(levels))
	for i, l := range levels {
		values[i] = rdf.NewIRI(l)
	}
	return graph.Condition{On: on, Path: path("ext:toegangsniveauVoorDocumentVersie"), Values: values}
}

func notConfidential(on graph.Anchor, via string) graph.Condition {
	return graph.Condition{On: on, Path: path(via), Values: []rdf.Term{trueValue}, Negate: true}
}

// Cabinet is the collector chain of the cabinet view: every released
// agenda with its documents, except files of confidential documents or
// documents of confidential subcases.
func Cabinet() []distribution.Collector {
	return []distribution.Collector{
		Agendas{ExcludeDesign: true},
		meetings,
		agendaitems,
		newsletter,
		agendaitemActivities,
		subcases,
		cases,
		treatments,
		newsitems,
		agendaitemDocuments,
		meetingDocuments,
		documentContainers,
		visibleFiles(
			notConfidential(graph.OnAnchor, "ext:vertrouwelijk"),
			notConfidential(graph.OnAnchor, "^prov:generated / ext:indieningVindtPlaatsTijdens / dossier:doorloopt? / ext:vertrouwelijk"),
		),
		physicalFiles,
	}
}

// Government is the collector chain of the government view. Files are
// only published for documents accessible to government or the public.
func Government() []distribution.Collector {
	return []distribution.Collector{
		Agendas{ExcludeDesign: true, RequireAny: true},
		meetings,
		agendaitems,
		agendaitemActivities,
		subcases,
		cases,
		treatments,
		decisionActivities,
		newsitems,
		agendaitemDocuments,
		meetingDocuments,
		documentContainers,
		visibleFiles(accessLevel(graph.OnAnchor, vocab.AccessLevelGovernment, vocab.AccessLevelPublic)),
		physicalFiles,
	}
}

// Public is the collector chain of the public view: confidential
// agendaitems are withheld and only public documents are published.
func Public() []distribution.Collector {
	publicItems := agendaitems
	publicItems.Where = []graph.Condition{notConfidential(graph.OnResource, "ext:vertrouwelijk")}

	publicDocuments := agendaitemDocuments
	publicDocuments.Where = []graph.Condition{accessLevel(graph.OnResource, vocab.AccessLevelPublic)}

	return []distribution.Collector{
		Agendas{ExcludeDesign: true, RequireAny: true},
		meetings,
		publicItems,
		treatments,
		newsitems,
		publicDocuments,
		documentContainers,
		visibleFiles(accessLevel(graph.OnAnchor, vocab.AccessLevelPublic)),
		physicalFiles,
	}
}

type entry struct {
	chain   func() []distribution.Collector
	profile distribution.Profile
}

var catalog = map[string]entry{
	ProfileCabinet: {Cabinet, distribution.Profile{
		Name:   ProfileCabinet,
		Source: vocab.AdminGraph,
		Target: vocab.CabinetGraph,
	}},
	ProfileGovernment: {Government, distribution.Profile{
		Name:                     ProfileGovernment,
		Source:                   vocab.AdminGraph,
		Target:                   vocab.GovernmentGraph,
		ValidateDecisionsRelease: true,
		ValidateDocumentsRelease: true,
	}},
	ProfilePublic: {Public, distribution.Profile{
		Name:                     ProfilePublic,
		Source:                   vocab.AdminGraph,
		Target:                   vocab.PublicGraph,
		ValidateDecisionsRelease: true,
		ValidateDocumentsRelease: true,
		PruneHiddenReferences:    true,
	}},
}

// Names returns the built-in profile names, sorted.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Chain returns a fresh collector chain for a built-in profile.
func Chain(name string) ([]distribution.Collector, bool) {
	e, ok := catalog[name]
	if !ok {
		return nil, false
	}
	return e.chain(), true
}

// Profile returns the built-in definition of a profile with its collector
// chain, the default denylist and delta copy.
func Profile(name string) (distribution.Profile, bool) {
	e, ok := catalog[name]
	if !ok {
		return distribution.Profile{}, false
	}
	p := e.profile
	p.Collectors = e.chain()
	p.Denylist = append([]distribution.Denied(nil), distribution.DefaultDenylist...)
	p.CopyStrategy = distribution.CopyDelta
	return p, true
}
