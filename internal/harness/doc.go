// Package harness runs YAML scenarios against a compiled schema and
// snapshots the resulting object representations.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	schema: path/to/schema.yaml      # relative to the scenario file
//	steps:
//	  - name: acme
//	    construct:
//	      class: Company
//	      id: "ROR:1"
//	      args: { name: Acme }
//	    expect: "Company(id='ROR:1', name='Acme', aliases=[], ceo=None)"
//	    store: true
//	  - name: alice
//	    load:
//	      class: Person
//	      payload: { id: "P:1", has_employment_history: [{ employed_at: "ROR:1" }] }
//	  - name: abstract
//	    construct: { class: Thing, id: "T:1" }
//	    expect_error: E304
//	assertions:
//	  - type: stored_count
//	    class: Company
//	    count: 1
//	  - type: stored_object
//	    class: Company
//	    id: "ROR:1"
//	    expect: { name: Acme }
//
// A construct argument written as "$name" is replaced by the instance built
// by the earlier step called name, so scenarios can nest objects.
//
// # Determinism
//
// Each scenario runs against a fresh in-memory store with a deterministic
// clock and run id, so repeated runs produce byte-identical snapshots.
// Golden snapshots live in testdata/golden/{scenario}.golden; regenerate
// them with:
//
//	go test ./internal/harness -update
package harness
