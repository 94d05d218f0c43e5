// Package policy controls how a run treats its approval checkpoints and
// which agents it may invoke.
package policy
