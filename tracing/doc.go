// Package tracing wraps OpenTelemetry so that runs, steps and approval
// checkpoints are recorded as spans without the rest of the code importing
// the SDK directly.
package tracing
