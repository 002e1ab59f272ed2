package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andreyvit/d2data/d2p"
)

func (a *app) d2pCommand() *cobra.Command {
	var linked, long bool
	cmd := &cobra.Command{
		Use:   "d2p",
		Short: "Read D2P archives",
	}
	cmd.PersistentFlags().BoolVar(&linked, "linked", false, "Follow the archive link chain (default from config)")

	ls := &cobra.Command{
		Use:   "ls <file.d2p>",
		Short: "List packed files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withD2P(cmd, args[0], linked, func(r *d2p.Reader) error {
				if !long {
					for _, p := range r.Files() {
						fmt.Fprintln(a.out, p)
					}
					return nil
				}
				archives := r.Archives()
				w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				for _, p := range r.Files() {
					e, _ := r.Stat(p)
					sum, err := r.Checksum(p)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s\t%d\t%016x\t%s\n", p, e.Length, sum, archives[e.Archive].Path)
				}
				return w.Flush()
			})
		},
	}
	ls.Flags().BoolVarP(&long, "long", "l", false, "Show sizes, checksums and source archives")

	cat := &cobra.Command{
		Use:   "cat <file.d2p> <path>",
		Short: "Write a packed file to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withD2P(cmd, args[0], linked, func(r *d2p.Reader) error {
				data, err := r.Load(args[1])
				if err != nil {
					return err
				}
				_, err = a.out.Write(data)
				return err
			})
		},
	}

	cmd.AddCommand(ls, cat)
	return cmd
}

// withD2P opens an archive. An explicit --linked wins over load_linked.
func (a *app) withD2P(cmd *cobra.Command, path string, linked bool, fn func(r *d2p.Reader) error) error {
	if !cmd.Flags().Changed("linked") {
		linked = a.cfg.LoadLinked
	}
	path, err := a.resolve(path)
	if err != nil {
		return err
	}
	r, err := d2p.Open(path, d2p.Options{
		LoadLinked: linked,
		Logger:     a.logger,
		Verbose:    a.verbose,
	})
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r)
}
