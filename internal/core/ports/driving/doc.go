// Package driving provides interfaces consumed by user-facing adapters
// (primary/inbound ports): the HTTP API, the CLI and the watcher.
package driving
