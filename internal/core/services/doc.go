// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters). They never talk to providers
// or storage directly.
package services
