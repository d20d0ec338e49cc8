package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	verboseMode bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "sutctl",
	Short: "sutctl drives commands and file transfers against a system under test",
	Long: `sutctl is a thin command-line front end over the backend-dispatch
library: it opens a target by spec ("ssh:host[:port]"), then runs a
command, pushes or pulls a file, or forwards an interrupt to it.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main() and only needs to happen
// once for rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.sutwire.yaml)")
	rootCmd.PersistentFlags().BoolVar(&verboseMode, "verbose", false, "enable verbose logging")
	rootCmd.PersistentFlags().String("identity", "", "path to the private key used for public-key authentication")
	rootCmd.PersistentFlags().Bool("insecure-host-key", false, "skip host key verification instead of checking ~/.ssh/known_hosts")
	_ = viper.BindPFlag("identity", rootCmd.PersistentFlags().Lookup("identity"))
	_ = viper.BindPFlag("insecure_host_key", rootCmd.PersistentFlags().Lookup("insecure-host-key"))

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(pushCmd)
	rootCmd.AddCommand(pullCmd)
	rootCmd.AddCommand(interruptCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".sutwire")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	applyBackendConfig()
}
