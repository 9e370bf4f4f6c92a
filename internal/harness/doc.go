// Package harness provides scenario testing for strip states.
//
// The harness loads fixture documents, runs a list of steps against them,
// and validates the outputs, producer calls and final bindings. Traces can be
// compared against golden files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	documents:
//	  page: documents/page.yaml
//	  sidebar: documents/sidebar.cue
//	steps:
//	  - op: unstrip
//	    document: page
//	    category: nowiki
//	    expect: "a <b> @@g1@@"
//	    expect_calls: []
//	  - op: merge
//	    document: page
//	    with: sidebar
//	assertions:
//	  - type: produced_count
//	    binding: general:g1
//	    count: 1
//
// # Operations
//
//   - unstrip: resolves the text for nowiki, general or both (the default)
//   - kill: deletes every marker from the text
//   - substate: extracts the referenced bindings and resolves with them alone
//   - merge: absorbs the with document and appends its rewritten text
//   - store: saves the text and its bindings to the fragment store and
//     continues with what is loaded back
//
// Outputs are compared and traced with markers written as @@id@@.
//
// # Assertion Types
//
//   - produced_count: a lazy binding ran exactly N times
//   - call_order: lazy bindings ran in the given order
//   - final_bindings: a document holds exactly the given bindings
//   - stored_count: the fragment store holds N fragments
//
// # Deterministic Testing
//
// Merge tags come from a sequence generator (merge1, merge2, ...) shared by
// the scenario's documents, logs are discarded and the store is in memory,
// so repeated runs produce identical traces.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/merge.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, err := range result.Errors {
//	        log.Println(err)
//	    }
//	}
package harness
