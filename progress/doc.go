// Package progress defines the progress event pushed to observers of a
// workflow run and the tracker that derives those events from the agent
// sequence while keeping the reported percentage non-decreasing.
package progress
