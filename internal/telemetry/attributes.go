// SPDX-License-Identifier: MIT

package telemetry

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys, namespaced by subsystem.
const (
	attrComponents  = "generate.components"
	attrFiles       = "generate.files"
	attrCached      = "generate.cached"
	attrConcurrency = "generate.concurrency"

	attrStep     = "toolchain.step"
	attrExitCode = "toolchain.exit_code"
)

// GenerateAttributes describes a finished generation run.
func GenerateAttributes(components, files, cached, concurrency int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(attrComponents, components),
		attribute.Int(attrFiles, files),
		attribute.Int(attrCached, cached),
		attribute.Int(attrConcurrency, concurrency),
	}
}

// StepAttributes describes one toolchain step execution.
func StepAttributes(step string, exitCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(attrStep, step),
		attribute.Int(attrExitCode, exitCode),
	}
}
