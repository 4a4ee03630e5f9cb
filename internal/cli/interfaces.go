package cli

import (
	"io"
	"os"

	"github.com/Backland-Labs/waitlist/internal/config"
	"github.com/Backland-Labs/waitlist/internal/output"
)

// ConfigLoader interface for dependency injection in tests
type ConfigLoader interface {
	Load() (*config.Config, error)
}

// RealConfigLoader implements ConfigLoader using the real config package
type RealConfigLoader struct{}

func (r *RealConfigLoader) Load() (*config.Config, error) {
	return config.New()
}

// Dependencies are the outside-world pieces the commands use
type Dependencies struct {
	ConfigLoader ConfigLoader
	Stdin        io.Reader
	Printer      *output.Printer
}

// NewRealDependencies creates production dependencies
func NewRealDependencies() *Dependencies {
	return &Dependencies{
		ConfigLoader: &RealConfigLoader{},
		Stdin:        os.Stdin,
		Printer:      output.NewPrinter(),
	}
}
