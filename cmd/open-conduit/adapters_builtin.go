package main

import (
	"github.com/open-conduit/open-conduit/internal/adapter/registry"
	"github.com/open-conduit/open-conduit/internal/adapters/restapi"
)

// builtinAdapters is the compile-time adapter catalog. Adding a provider means
// adding its entry here; there is no runtime discovery.
func builtinAdapters() []registry.Entry {
	return []registry.Entry{
		{ID: restapi.ID, Factory: restapi.New},
	}
}
