// Package coordinator runs agent sequences through the workflow state
// machine. A run waits at the plan checkpoint, invokes agents strictly in
// order, compiles their results and waits at the final checkpoint before
// the report is delivered.
package coordinator
