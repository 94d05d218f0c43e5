// Package macae provides a multi-agent coordination engine with
// human-in-the-loop approval.
//
// A workflow runs a planned sequence of agents (email, invoice, crm,
// analysis) strictly in order. It pauses for a human decision on the plan
// before any agent runs and again on the compiled report before it is
// delivered. Unanswered checkpoints time out and fail closed.
//
// The root package exposes the Service façade that wires the packages
// together:
//
//   - service/store       – authoritative workflow contexts
//   - service/approval    – approval gate with timeouts
//   - service/coordinator – the workflow state machine
//   - service/event       – progress and approval broadcasting
//   - service/compiler    – final report with cross-references
//   - service/journal     – optional asynchronous persistence
//
// Typical use:
//
//	srv, _ := macae.New(macae.WithConfig(cfg))
//	_ = mock.RegisterAll(srv.Registry(), 0)
//	_ = srv.Start(ctx)
//	out, _ := srv.Run(ctx, &coordinator.Request{TaskDescription: task, Sequence: seq})
package macae
