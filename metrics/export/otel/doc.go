// Package otel bridges goShield metrics into OpenTelemetry observable
// instruments. [NewOTelExporter] registers one callback that mirrors the
// pipeline's counter snapshot into Int64 observables on every collection.
package otel
