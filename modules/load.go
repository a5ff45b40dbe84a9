package modules

import (
	"github.com/iota-uz/facilities/modules/facilities"
	"github.com/iota-uz/facilities/pkg/application"
)

var BuiltInModules = []application.Module{
	facilities.NewModule(),
}

// Load registers every built-in module, failing fast on the first error.
func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range append(BuiltInModules, externalModules...) {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
