package main

import (
	"errors"
	"strings"

	"github.com/halcyonlabel/backend/internal/config"
	"github.com/halcyonlabel/backend/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Version is set at build time
var Version = "dev"

type cliContext struct {
	v       *viper.Viper
	cfgFile string
}

// settings is the effective configuration: flags, then CONTRACTCTL_* env,
// then the config file, then the server's own environment defaults.
func (c *cliContext) settings() *config.Config {
	cfg := config.New()
	cfg.ContractTemplatePath = c.v.GetString("template")
	cfg.ContractLayoutPath = c.v.GetString("layout")
	cfg.LabelName = c.v.GetString("label-name")
	cfg.LabelAddress = c.v.GetString("label-address")
	cfg.LabelRefPrefix = c.v.GetString("ref-prefix")
	cfg.FrontendURL = c.v.GetString("frontend-url")
	cfg.ContractsDeployRoot = c.v.GetString("deploy-root")
	cfg.PrivateStorageRoot = c.v.GetString("storage-root")
	cfg.JWTSecret = c.v.GetString("jwt-secret")
	return cfg
}

func (c *cliContext) logger() *zap.Logger {
	level := "warn"
	if c.v.GetBool("verbose") {
		level = "debug"
	}
	log, err := logging.New("development", level)
	if err != nil {
		return zap.NewNop()
	}
	return log
}

func newRootCommand() *cobra.Command {
	ctx := &cliContext{v: viper.New()}
	defaults := config.New()

	root := &cobra.Command{
		Use:   "contractctl",
		Short: "Inspect and render royalty split contracts",
		Long: `contractctl renders contract documents offline, inspects the reconciled
split ledger, decodes the details block stored in contract notes and shows
where a signed upload pointer resolves on disk.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.initConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&ctx.cfgFile, "config", "", "config file (default is ./contractctl.yaml)")
	flags.String("template", defaults.ContractTemplatePath, "agreement template PDF")
	flags.String("layout", defaults.ContractLayoutPath, "YAML layout override for the template")
	flags.String("label-name", defaults.LabelName, "label name printed on agreements")
	flags.String("label-address", defaults.LabelAddress, "label address printed on agreements")
	flags.String("ref-prefix", defaults.LabelRefPrefix, "prefix for generated agreement references")
	flags.String("frontend-url", defaults.FrontendURL, "base URL encoded in the verification QR")
	flags.String("deploy-root", defaults.ContractsDeployRoot, "deployment root for signed uploads")
	flags.String("storage-root", defaults.PrivateStorageRoot, "private storage root for signed uploads")
	flags.String("jwt-secret", defaults.JWTSecret, "secret used to sign access tokens")
	flags.BoolP("verbose", "v", false, "verbose output")
	_ = ctx.v.BindPFlags(flags)

	root.AddCommand(
		newRenderCommand(ctx),
		newLedgerCommand(ctx),
		newNotesCommand(),
		newResolveCommand(ctx),
		newTokenCommand(ctx),
	)
	return root
}

func (c *cliContext) initConfig() error {
	if c.cfgFile != "" {
		c.v.SetConfigFile(c.cfgFile)
	} else {
		c.v.AddConfigPath(".")
		c.v.SetConfigName("contractctl")
		c.v.SetConfigType("yaml")
	}

	c.v.SetEnvPrefix("CONTRACTCTL")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.cfgFile != "" || !errors.As(err, &notFound) {
			return err
		}
	}
	return nil
}
