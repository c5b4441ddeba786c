// Package harness runs YAML-defined simulation scenarios against the
// real engine and checks them with trace and final-state assertions.
//
// A scenario starts one simulated year, drives it through a sequence
// of steps, and then validates what happened. Scenarios execute with
// a sequential id generator, a counter clock, and a throwaway sqlite
// database, so the same file produces the same trace on every run and
// traces can be compared against golden files.
//
// # Scenario format
//
//	name: frugal_wheat_year
//	description: "Savings-first year with one rejected splurge"
//	config:
//	  owner: farmer-1
//	  crop: wheat
//	  region: punjab
//	  seed: 42
//	steps:
//	  - op: decide
//	    decision: save
//	    amount: 1000
//	  - op: decide
//	    decision: expense
//	    amount: 99999999
//	    category: household
//	    expect:
//	      outcome: rejected
//	      code: INSUFFICIENT_FUNDS
//	  - op: advance
//	    periods: 12
//	  - op: complete
//	assertions:
//	  - type: trace_order
//	    ops: [start, decide, advance, complete]
//	  - type: trace_count
//	    op: decide
//	    count: 2
//	  - type: final_state
//	    expect:
//	      status: completed
//	      processed: 12
//
// Amounts are rupees. A step without an expect clause must succeed;
// a step expecting "rejected" must fail with the given reason code,
// and the rejection is recorded in the trace rather than aborting
// the scenario.
//
// # Assertion types
//
//   - trace_contains: an event with the given op (and decision kind,
//     if set) appears in the trace
//   - trace_order: the given ops appear in this order, other events
//     may fall in between
//   - trace_count: the op appears exactly count times
//   - final_state: named fields of the finished simulation match
//
// final_state supports the keys status, period, processed, points,
// decisions, events, and cash_paise.
package harness
