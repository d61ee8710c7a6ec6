// Package community dispatches membership side effects to the community
// platform boundary. Dispatch is fire-and-forget: tasks are handed to the
// queue with at most one enqueue attempt, and failures are logged rather
// than propagated to the caller.
package community
