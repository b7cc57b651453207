// Package operations runs the fetch, aggregate and persist steps as one
// strictly sequential operation.
//
// A Pipeline executes its steps in order. Each step is validated against the
// OperationState before it runs, gets its own span and stage metrics, and
// hands its output file to the next step through the state's artifact map.
// The first failing step stops the run; every later step is marked skipped
// and never executes. There are no retries.
package operations
