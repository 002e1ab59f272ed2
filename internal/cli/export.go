package cli

import (
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/andreyvit/d2data/d2o"
	"github.com/andreyvit/d2data/export"
)

func (a *app) exportCommand() *cobra.Command {
	var (
		store    string
		encoding string
		force    bool
	)
	cmd := &cobra.Command{
		Use:   "export <file.d2o>...",
		Short: "Copy decoded objects into a bbolt database",
		Long: `Each container is stored under its base name, e.g. Monsters for
Monsters.d2o. Unchanged containers are skipped unless --force is given.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if store == "" {
				store = a.cfg.Store
			}
			enc, err := export.ParseEncoding(encoding)
			if err != nil {
				return err
			}
			s, err := export.OpenStore(store, export.Options{Encoding: enc, Logger: a.logger, Verbose: true})
			if err != nil {
				return err
			}
			defer s.Close()

			for _, arg := range args {
				name := strings.TrimSuffix(filepath.Base(arg), filepath.Ext(arg))
				err := a.withD2O(arg, func(r *d2o.Reader) error {
					_, err := s.Export(name, r, force)
					return err
				})
				if err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&store, "store", "", "Database path (default from config)")
	cmd.Flags().StringVar(&encoding, "encoding", export.DefaultEncoding.String(), "Value encoding: msgpack or json")
	cmd.Flags().BoolVar(&force, "force", false, "Re-export containers whose digest is unchanged")
	return cmd
}
