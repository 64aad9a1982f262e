// Package harness runs declarative render scenarios.
//
// A scenario mounts a fixture tree through a session backed by the
// in-memory renderer, drives it with steps, and checks assertions against
// the final tree.
//
// # Scenario Format
//
// Scenarios are YAML (or CUE exporting the same shape):
//
//	name: toggle
//	description: "clicking save records once per click"
//	tree:
//	  type: Form
//	  children:
//	    - type: button
//	      props:
//	        onClick: {record: save}
//	        label: Save
//	      text: Save
//	    - type: p
//	      text: idle
//	steps:
//	  - dispatch: {target: button, prop: onClick}
//	  - dispatch_async: {target: button, prop: onClick}
//	  - update_text: {target: p, text: saved}
//	  - advance: 100
//	assertions:
//	  - {type: count, target: button, count: 1}
//	  - {type: find_one, target: Form}
//	  - {type: recorded, labels: [save, save]}
//	  - {type: text, target: p, text: saved}
//	  - {type: snapshot}
//
// Lower-case types are host tags; Fragment and StrictMode are pass-through
// kinds; any other capitalised type is a component rendering its children.
// A prop value {record: label, delay: ms, prevent_default: bool} becomes a
// handler that records label, after delay milliseconds of virtual time when
// delay is positive. Delayed records only happen once a later async commit
// drains the timer: a dispatch_async, an advance, or an async mount.
//
// # Assertion Types
//
//   - count: number of nodes of a type, optionally filtered by props
//   - find_one: exactly one node of a type
//   - recorded: the exact sequence of recorded handler labels
//   - text: text content of the index-th node of a type
//   - snapshot: the debug serialization against an inline expectation or
//     testdata/golden/<name>.golden next to the scenario file
//
// # Deterministic Testing
//
// Every run gets a fresh virtual-time loop and a fixed session ID
// (scenario.session_id, or "test-session-default"), so commit reports and
// journals are identical across runs.
package harness
