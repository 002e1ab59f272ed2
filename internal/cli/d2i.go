package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/andreyvit/d2data/d2i"
)

func (a *app) d2iCommand() *cobra.Command {
	var diacritical bool
	cmd := &cobra.Command{
		Use:   "d2i",
		Short: "Read D2I localization tables",
	}

	get := &cobra.Command{
		Use:   "get <file.d2i> <id>",
		Short: "Print the text for a numeric id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid id %q", args[1])
			}
			return a.withD2I(args[0], func(r *d2i.Reader) error {
				var s string
				if diacritical {
					s, err = r.Diacritical(int32(id))
				} else {
					s, err = r.Text(int32(id))
				}
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.out, s)
				return err
			})
		},
	}
	get.Flags().BoolVar(&diacritical, "diacritical", false, "Print the diacritical variant")

	key := &cobra.Command{
		Use:   "key <file.d2i> <key>",
		Short: "Print the text for a named key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withD2I(args[0], func(r *d2i.Reader) error {
				s, err := r.TextByKey(args[1])
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(a.out, s)
				return err
			})
		},
	}

	search := &cobra.Command{
		Use:   "search <file.d2i> <text>",
		Short: "Find ids whose text contains the given text, ignoring case and accents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withD2I(args[0], func(r *d2i.Reader) error {
				ids, err := r.Search(args[1])
				if err != nil {
					return err
				}
				for _, id := range ids {
					s, err := r.Text(id)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "%d\t%s\n", id, s)
				}
				return nil
			})
		},
	}

	cmd.AddCommand(get, key, search)
	return cmd
}

func (a *app) withD2I(path string, fn func(r *d2i.Reader) error) error {
	path, err := a.resolve(path)
	if err != nil {
		return err
	}
	r, err := d2i.Open(path, d2i.Options{Logger: a.logger, Verbose: a.verbose})
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r)
}
