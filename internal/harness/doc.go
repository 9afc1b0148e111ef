// Package harness runs distribution scenarios against an in-memory store.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: public_confidential_agendaitem
//	description: "A confidential agendaitem stays out of the public view"
//	profile: public
//	source: |
//	  <http://ex/agendas/1> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://data.vlaanderen.be/ns/besluitvorming#Agenda> .
//	source_files:
//	  - fixtures/meeting.nt
//	steps:
//	  - run: { agendas: [http://ex/agendas/1] }
//	  - delete: |
//	      <http://ex/items/1> <http://mu.semte.ch/vocabularies/ext/vertrouwelijk> "true"^^<http://mu.semte.ch/vocabularies/typed-literals/boolean> .
//	  - run: { agendas: [http://ex/agendas/1] }
//	    expect: { ended_early: false }
//	  - resolve: { subjects: [http://ex/items/1], expect: [http://ex/agendas/1] }
//	assertions:
//	  - type: published
//	    resource: http://ex/items/1
//	    agenda: http://ex/agendas/1
//	  - type: target_lacks
//	    triples: |
//	      <http://ex/items/2> <http://www.w3.org/1999/02/22-rdf-syntax-ns#type> <http://data.vlaanderen.be/ns/besluit#Agendapunt> .
//
// Source data is loaded into the profile's source graph. Steps run in
// order: run publishes the profile's view for a scope, insert and delete
// mutate the source graph, resolve checks which agendas a set of changed
// resources belongs to.
//
// # Assertion Types
//
//   - target_contains: every given triple is in the target graph
//   - target_lacks: none of the given triples is in the target graph
//   - published: the resource has lineage to the agenda in the target
//   - absent: the target holds no triple about the resource
//   - triple_count: the target holds exactly count triples
//   - no_scratch: no scratch graph is left in the store
//
// # Deterministic Runs
//
// Every run uses the scenario's fixed scratch token and a fixed clock, so
// the target dump of a scenario is byte-identical across executions and
// can be compared against a golden file.
package harness
