// Package cmd provides the command-line interface of the DEVS simulator.
package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "devs",
	Short: "Discrete-event simulator for coupled DEVS models",
	Long: `devs runs networks of DEVS models described in YAML scenarios ` +
		`and inspects the traces they leave behind.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Registered exit handlers, such as trace writers, run before
// the process ends.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		logrus.Error(err)
		atexit.Exit(1)
	}

	atexit.Exit(0)
}
