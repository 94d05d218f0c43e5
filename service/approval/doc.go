// Package approval implements the human-in-the-loop checkpoints that gate a
// workflow run. A request suspends its caller until a response arrives, the
// deadline passes or the caller's context is cancelled; anything other than
// an explicit approval resolves as not approved.
package approval
