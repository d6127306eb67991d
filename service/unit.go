/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

package service

// Unit represents a component with its own lifecycle that can be started and stopped.
type Unit interface {
	// Start runs the unit. It may block for the whole lifetime of the unit.
	// Start must write to fatalErr only if the unit failed, and must not use the channel after it returns.
	Start(fatalErr chan<- error)

	// Stop halts the unit. It may be called even if Start was never called or has already failed.
	// If gracefully is true, the unit should wait for in-flight work to finish.
	Stop(gracefully bool) error
}
