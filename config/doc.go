/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package config provides loading of configuration values (from YAML/JSON files, readers and environment variables)
// into configuration objects. Every configuration object implements the Config interface
// and may define its own key prefix by implementing KeyPrefixProvider.
package config
