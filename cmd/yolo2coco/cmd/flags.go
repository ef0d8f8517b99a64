package cmd

import (
	"fmt"

	"github.com/spf13/pflag"
)

type flagBinding struct {
	key  string
	flag string
}

// bindFlags ties flags to configuration keys so a set flag overrides env and file values.
func (c *cli) bindFlags(flags *pflag.FlagSet, bindings []flagBinding) {
	v := c.loader.GetViper()
	for _, binding := range bindings {
		if err := v.BindPFlag(binding.key, flags.Lookup(binding.flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", binding.flag, err))
		}
	}
}
