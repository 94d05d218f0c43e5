// Package workflow defines the state of a coordinated multi-agent run: its
// lifecycle status machine, the ordered collection of agent results, the
// execution log and the compiled report.
package workflow
