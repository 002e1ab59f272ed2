package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/andreyvit/d2data/internal/config"
)

func (a *app) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the d2tool config file",
	}

	var (
		gameDir string
		lang    string
		force   bool
	)
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with the given game directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := a.configFile()
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}

			cfg := config.Default()
			cfg.GameDir = gameDir
			if lang != "" {
				cfg.Lang = lang
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "wrote %s\n", path)
			return err
		},
	}
	initCmd.Flags().StringVar(&gameDir, "game-dir", "", "Game installation directory")
	initCmd.Flags().StringVar(&lang, "lang", "", "Localization language (default fr)")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config")

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = a.out.Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, show)
	return cmd
}

func (a *app) configFile() (string, error) {
	if a.configPath != "" {
		return a.configPath, nil
	}
	return config.Path()
}
