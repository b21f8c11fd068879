package entity

// CycleState is the lifecycle state of a wallet's fetch cycle.
type CycleState string

const (
	// CycleIdle means no cycle has run for the address yet.
	CycleIdle CycleState = "idle"
	// CycleLoading means a cycle is currently in flight.
	CycleLoading CycleState = "loading"
	// CycleSucceeded means the last cycle published a snapshot.
	CycleSucceeded CycleState = "succeeded"
	// CycleFailed means the last cycle could not produce a token list at all.
	CycleFailed CycleState = "failed"
	// CycleCancelled means the last cycle was superseded before publishing.
	CycleCancelled CycleState = "cancelled"
)
