// main is the entry point for the attrplot CLI.
package main

import (
	"github.com/huangsam/attrplot/cmd"
	"github.com/huangsam/attrplot/internal/contract"
	"github.com/huangsam/attrplot/internal/iocache"
)

func main() {
	defer iocache.CloseCaching()
	cmd.SetCacheManager(iocache.Manager)

	if err := cmd.Execute(); err != nil {
		contract.LogFatal("Command failed", err)
	}
	if err := cmd.StopProfiling(); err != nil {
		contract.LogWarn("Profiling failed", err)
	}
}
