package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/open-conduit/open-conduit/internal/adapter"
	"github.com/open-conduit/open-conduit/internal/adapter/registry"
)

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "List the built-in adapter catalog.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := registry.New(adapter.Deps{})
		reg.RegisterAll(builtinAdapters())
		for _, id := range reg.List() {
			a, err := reg.Open(id, adapter.IntegrationIdentity{
				IntegrationID: id,
				TenantID:      "system",
				ConnectionID:  "system",
			})
			if err != nil {
				return err
			}
			def := a.Definition()
			fmt.Printf("%s\t%s\t%s\n", def.ID, def.Version, def.Name)
		}
		return nil
	},
}
