// Package shared holds helpers used by more than one package's tests.
//
// testutil provides a capturing slog handler so tests can assert on the
// structured log output of a component without parsing JSON.
package shared
