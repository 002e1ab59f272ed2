package cli

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/andreyvit/d2data/d2i"
	"github.com/andreyvit/d2data/d2o"
)

type d2oFlags struct {
	text     string
	localize bool
	dump     bool
}

func (a *app) d2oCommand() *cobra.Command {
	var flags d2oFlags
	cmd := &cobra.Command{
		Use:   "d2o",
		Short: "Read D2O object stores",
	}

	info := &cobra.Command{
		Use:   "info <file.d2o>",
		Short: "Show container statistics and class schemas",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withD2O(args[0], func(r *d2o.Reader) error {
				if flags.dump {
					_, err := fmt.Fprint(a.out, r.Dump(d2o.DumpAll))
					return err
				}
				return a.d2oInfo(r)
			})
		},
	}
	info.Flags().BoolVar(&flags.dump, "dump", false, "Dump the index, queries and every object")

	get := &cobra.Command{
		Use:   "get <file.d2o> [id...]",
		Short: "Decode objects by id, or all objects if no ids are given",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withD2O(args[0], func(r *d2o.Reader) error {
				ids, err := parseIDs(args[1:])
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					ids = r.IDs()
				}
				objs := make([]*d2o.Object, 0, len(ids))
				for _, id := range ids {
					obj, err := r.Get(id)
					if err != nil {
						return err
					}
					objs = append(objs, obj)
				}
				return a.emitResolved(r, objs, flags)
			})
		},
	}

	query := &cobra.Command{
		Use:   "query <file.d2o> <key> <op> <value>",
		Short: "Decode objects whose queryable key compares true against value",
		Long:  "Operators: = != < <= > >=. The value is parsed as the key's type.",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withD2O(args[0], func(r *d2o.Reader) error {
				spec, err := r.QuerySpec(args[1])
				if err != nil {
					return err
				}
				pred, err := parsePredicate(spec.Type, args[2], args[3])
				if err != nil {
					return err
				}
				objs, err := r.Query(spec.Name, pred)
				if err != nil {
					return err
				}
				a.logger.Debug("d2o: query done",
					"key", spec.Name,
					"matches", len(objs),
					"buckets_skipped", r.Stats().BucketsSkipped)
				return a.emitResolved(r, objs, flags)
			})
		},
	}

	values := &cobra.Command{
		Use:   "values <file.d2o> <key>",
		Short: "List the distinct values of a queryable key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withD2O(args[0], func(r *d2o.Reader) error {
				values, err := r.PossibleValues(args[1])
				if err != nil {
					return err
				}
				return a.emit(values)
			})
		},
	}

	keys := &cobra.Command{
		Use:   "keys <file.d2o>",
		Short: "List queryable keys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withD2O(args[0], func(r *d2o.Reader) error {
				w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
				for _, key := range r.QueryableKeys() {
					spec, _ := r.QuerySpec(key)
					fmt.Fprintf(w, "%s\t%v\t%d\n", spec.Name, spec.Type, spec.Count)
				}
				return w.Flush()
			})
		},
	}

	for _, c := range []*cobra.Command{get, query} {
		c.Flags().StringVar(&flags.text, "text", "", "Resolve i18n ids using this .d2i file")
		c.Flags().BoolVar(&flags.localize, "localize", false, "Resolve i18n ids using the configured lang")
	}
	cmd.AddCommand(info, get, query, values, keys)
	return cmd
}

func (a *app) withD2O(path string, fn func(r *d2o.Reader) error) error {
	path, err := a.resolve(path)
	if err != nil {
		return err
	}
	r, err := d2o.Open(path, d2o.Options{Logger: a.logger, Verbose: a.verbose})
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r)
}

func (a *app) d2oInfo(r *d2o.Reader) error {
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "size\t%d\n", r.Size())
	fmt.Fprintf(w, "objects\t%d\n", r.Len())
	fmt.Fprintf(w, "classes\t%d\n", len(r.Classes()))
	fmt.Fprintf(w, "queries\t%d\n", len(r.QueryableKeys()))
	fmt.Fprintf(w, "digest\t%016x\n", r.Digest())
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprint(a.out, r.Dump(d2o.DumpClasses))
	return err
}

func (a *app) emitResolved(r *d2o.Reader, objs []*d2o.Object, flags d2oFlags) error {
	textPath := flags.text
	if textPath == "" && flags.localize {
		var err error
		if textPath, err = a.cfg.TextPath(); err != nil {
			return err
		}
	}
	if textPath == "" {
		return a.emitObjects(objs)
	}

	textPath, err := a.resolve(textPath)
	if err != nil {
		return err
	}
	texts, err := d2i.Open(textPath, d2i.Options{Logger: a.logger, Verbose: a.verbose})
	if err != nil {
		return err
	}
	defer texts.Close()
	for i, obj := range objs {
		objs[i] = r.ResolveText(obj, texts.Lookup)
	}
	return a.emitObjects(objs)
}

func parseIDs(args []string) ([]int32, error) {
	ids := make([]int32, 0, len(args))
	for _, s := range args {
		id, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", s)
		}
		ids = append(ids, int32(id))
	}
	return ids, nil
}
