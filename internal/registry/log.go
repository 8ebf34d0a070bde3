package registry

import (
	"github.com/decred/slog"
	"github.com/fossable/turbine/internal/buildlog"
)

var log = buildlog.Disabled

// UseLogger sets the package-level logger used by the registry package.
func UseLogger(logger slog.Logger) {
	log = logger
}
