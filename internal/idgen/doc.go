// Package idgen wraps the UUID generator used for workflow, request and
// session identifiers so that tests can stub it. Callers treat the returned
// values as opaque strings.
package idgen
