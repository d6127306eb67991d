/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides a logger that records entries for inspection in tests.
package logtest
