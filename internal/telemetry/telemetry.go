// Package telemetry wires up the logging and tracing the rest of the module
// shares: a logr.Logger backed by stdr (stdlib log underneath, structured
// key/value pairs on top) and an OpenTelemetry TracerProvider the server and
// the MCTS agent's search span attach to.
package telemetry

import (
	"context"
	"log"
	"os"

	"github.com/go-logr/logr"
	"github.com/go-logr/stdr"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// NewLogger returns a logr.Logger that writes structured lines to stderr,
// prefixed with name.
func NewLogger(name string) logr.Logger {
	std := log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
	return stdr.New(std).WithName(name)
}

// InstallTracing installs a TracerProvider with no exporter attached: spans
// are created and timed (useful for local inspection via a debugger or a
// future exporter) but nothing is shipped off-process by default. Returns a
// shutdown function the caller should defer.
func InstallTracing() func(context.Context) error {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}
