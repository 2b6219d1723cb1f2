// Package internaldefs holds the shared metric name and bucket definitions
// used by the prometheus and otel exporters so both expose identical series.
package internaldefs
