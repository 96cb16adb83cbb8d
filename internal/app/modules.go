package app

import (
	"github.com/vk/tickgrid/internal/registry"
	"github.com/vk/tickgrid/modules/control"
	"github.com/vk/tickgrid/modules/counter"
	"github.com/vk/tickgrid/modules/http_client"
	"github.com/vk/tickgrid/modules/http_request"
	"github.com/vk/tickgrid/modules/print"
	"github.com/vk/tickgrid/modules/socketio"
)

// coreModules is the definitive list of all modules that are compiled into
// the tickgrid binary.
var coreModules = []registry.Module{
	&counter.Module{},
	&print.Module{},
	&control.Module{},
	&socketio.Module{},
	&http_client.Module{},
	&http_request.Module{},
}
