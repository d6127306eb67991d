/*
Copyright © 2025 Acronis International GmbH.

Released under MIT license.
*/

// Package libinfo provides information about the library build.
package libinfo

import (
	"regexp"
	"runtime/debug"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const modulePath = "github.com/acronis/go-ratelimit"

// VersionLabel is a constant label added to all Prometheus metrics exposed by the library.
const VersionLabel = "go_ratelimit_version"

const unknownVersion = "v0.0.0"

var (
	version     string
	versionOnce sync.Once
)

// Version returns the version of the library used in the current binary.
func Version() string {
	versionOnce.Do(func() {
		if buildInfo, ok := debug.ReadBuildInfo(); ok {
			version = moduleVersion(buildInfo, modulePath)
		}
		if version == "" || version == "(devel)" {
			version = unknownVersion
		}
	})
	return version
}

// WithVersionLabel returns a copy of labels with VersionLabel added.
func WithVersionLabel(labels prometheus.Labels) prometheus.Labels {
	res := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		res[k] = v
	}
	res[VersionLabel] = Version()
	return res
}

// moduleVersion looks for the module (any major version of it) among the main module and dependencies.
func moduleVersion(buildInfo *debug.BuildInfo, path string) string {
	if buildInfo == nil {
		return ""
	}
	re := regexp.MustCompile(`^` + regexp.QuoteMeta(path) + `(/v[0-9]+)?$`)
	if re.MatchString(buildInfo.Main.Path) {
		return buildInfo.Main.Version
	}
	for _, dep := range buildInfo.Deps {
		if re.MatchString(dep.Path) {
			if dep.Replace != nil {
				return dep.Replace.Version
			}
			return dep.Version
		}
	}
	return ""
}
