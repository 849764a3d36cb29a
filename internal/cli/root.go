package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "archextract",
	Short: "Extract architecture components from source code",
	Long: `archextract scans a TypeScript or Java codebase and reports its architectural
components (APIs, use cases, domain operations, events, event handlers and UI
entry points) according to declarative per-module rules in archextract.yaml.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is archextract.yaml in the project directory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Bind flags to viper
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig lets ARCHEXTRACT_CONFIG and ARCHEXTRACT_VERBOSE stand in for the flags.
func initConfig() {
	viper.SetEnvPrefix("ARCHEXTRACT")
	viper.AutomaticEnv()
}

// configPath returns the config file named by flag or environment.
func configPath() string {
	return viper.GetString("config")
}

// verboseOutput reports whether verbose output was requested by flag or environment.
func verboseOutput() bool {
	return viper.GetBool("verbose")
}
