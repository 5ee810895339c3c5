// Package harness runs branchless programs from YAML scenarios and checks
// what they did.
//
// # Scenario Format
//
//	name: scenario_name
//	description: "What this scenario checks"
//	specs:
//	  - specs/loops.cue
//	run_token: fixed-token
//	flow:
//	  - run: count_to_ten
//	    mode: recursive
//	    expect:
//	      body_count: 10
//	      final: 10
//	      target: terminate
//	  - run: runaway
//	    max_steps: 5
//	    expect:
//	      error: QUOTA_EXCEEDED
//	assertions:
//	  - type: transition_count
//	    program: count_to_ten
//	    count: 11
//	  - type: transition_order
//	    program: count_to_ten
//	    outcomes: [continue, terminate]
//	  - type: final_value
//	    program: count_to_ten
//	    value: 10
//	  - type: matches_native
//	    program: count_to_ten
//
// # Assertion Types
//
//   - transition_count: the program's transitions number exactly count
//   - transition_order: outcomes appear in the program's transitions in order
//   - final_value: the stored run of the program ended with value
//   - matches_native: a plain Go loop agrees with the branchless run
//
// # Deterministic Testing
//
// Every scenario gets a fresh in-memory SQLite store, a clock starting at
// seq 0 and one run token shared by every step (run_token, or
// DefaultRunToken). Two executions of a scenario produce the same
// seqs and run IDs, which is what golden trace comparison relies on.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/loops.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
