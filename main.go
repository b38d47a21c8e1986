// Command devs runs DEVS simulation scenarios.
package main

import "github.com/sarchlab/devs/cmd"

func main() {
	cmd.Execute()
}
