package cmd

import (
	"github.com/spf13/viper"
	"github.com/vikas-lamba/sutwire/pkg/backend/sshbackend"
	"github.com/vikas-lamba/sutwire/pkg/logger"
)

// applyBackendConfig pushes the resolved viper settings into the ssh
// backend's package-level overrides. The library itself takes no
// dependency on viper; this is the one place the CLI driver bridges
// config loading into it.
func applyBackendConfig() {
	if path := viper.GetString("identity"); path != "" {
		sshbackend.PrivateKeyPath = path
	}
	sshbackend.InsecureIgnoreHostKey = viper.GetBool("insecure_host_key")

	logger.InitLoggerOutputs()
	if verboseMode {
		logger.GlobalLogLevel = "debug"
	}
}
