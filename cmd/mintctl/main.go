// mintctl is the command-line interface for the MintForge contract
// toolchain: compile contracts, deploy them to configured networks, and
// drive a local wallet service.
package main

import "github.com/mintforge/mintforge/cmd/mintctl/cmd"

func main() {
	cmd.Execute()
}
