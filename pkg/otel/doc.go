// Package otel wires OpenTelemetry tracing for the landlord command.
// Library users configure tracing on the client with landlord.WithTracerProvider.
package otel
