// Copyright 2026 Marc-Antoine Ruel. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/maruel/lodtensor"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	verbose  bool
	order    string
	compress bool
	parts    int
}

func (o *options) checker() (lodtensor.Checker, error) {
	switch o.order {
	case "nonstrict":
		return lodtensor.Checker{Order: lodtensor.OrderNonStrict}, nil
	case "none":
		return lodtensor.Checker{Order: lodtensor.OrderNone}, nil
	default:
		return lodtensor.Checker{}, errors.Errorf("invalid --order %q, want nonstrict or none", o.order)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "lodtensor",
		Short:         "Manipulate serialized LoDTensor files.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.checker()
			if err != nil {
				return err
			}
			lodtensor.DefaultChecker = c
			if opts.verbose {
				l, err := zap.NewDevelopment()
				if err != nil {
					return err
				}
				lodtensor.SetLogger(l)
			}
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&opts.order, "order", "nonstrict", "lod ordering check: nonstrict or none")
	root.AddCommand(inspectCmd(), validateCmd(), splitCmd(opts), mergeCmd(opts))
	return root
}

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <file>",
		Short: "Print the shape, LoD and first elements of a file.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := lodtensor.ReadFile(args[0], lodtensor.NewPool(), lodtensor.Host)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "dtype: %s\nlayout: %s\nsize: %s\n", t.DType, t.Layout, humanize.IBytes(uint64(len(t.Data))))
			for level := range t.LoD {
				n, err := t.NumSequences(level)
				if err != nil {
					return err
				}
				fmt.Fprintf(w, "level %d: %s sequences\n", level, humanize.Comma(int64(n)))
			}
			fmt.Fprintln(w, t)
			return nil
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Check the LoD of a file in both relative and absolute form.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// ReadFile already ran the relative check.
			t, err := lodtensor.ReadFile(args[0], lodtensor.NewPool(), lodtensor.Host)
			if err != nil {
				return err
			}
			abs, err := lodtensor.ToAbsOffset(t.LoD)
			if err != nil {
				return err
			}
			if err := lodtensor.DefaultChecker.CheckAbsLoD(abs, t.Height()); err != nil {
				return errors.WithMessage(err, "absolute form")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}
}

func splitCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "split <file> <outprefix>",
		Short: "Split the top-level sequences of a file into parts.",
		Long: `Split the top-level sequences of a file into --parts files named
<outprefix>.0, <outprefix>.1, ... Fewer files are written when there are fewer
sequences than parts.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.parts <= 0 {
				return errors.Errorf("invalid --parts %d", opts.parts)
			}
			places := make([]lodtensor.Place, opts.parts)
			for i := range places {
				places[i] = lodtensor.Device(i)
			}
			pool := lodtensor.NewPool(places...)
			t, err := lodtensor.ReadFile(args[0], pool, lodtensor.Host)
			if err != nil {
				return err
			}
			parts, err := t.Split(pool, places)
			if err != nil {
				return err
			}
			for i, p := range parts {
				name := fmt.Sprintf("%s.%d", args[1], i)
				if err := lodtensor.WriteFile(name, p, pool, lodtensor.FileOptions{Compress: opts.compress}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows\n", name, p.Shape[0])
			}
			return pool.WaitAll()
		},
	}
	cmd.Flags().IntVarP(&opts.parts, "parts", "n", 2, "number of parts")
	cmd.Flags().BoolVar(&opts.compress, "compress", false, "zstd compress the output")
	return cmd
}

func mergeCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge <out> <file>...",
		Short: "Concatenate files along their leading dimension.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pool := lodtensor.NewPool()
			parts := make([]*lodtensor.LoDTensor, 0, len(args)-1)
			for _, name := range args[1:] {
				p, err := lodtensor.ReadFile(name, pool, lodtensor.Host)
				if err != nil {
					return err
				}
				parts = append(parts, p)
			}
			out, err := lodtensor.Merge(pool, parts, lodtensor.Host)
			if err != nil {
				return err
			}
			if err := pool.WaitAll(); err != nil {
				return err
			}
			if err := lodtensor.WriteFile(args[0], out, pool, lodtensor.FileOptions{Compress: opts.compress}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows\n", args[0], out.Shape[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&opts.compress, "compress", false, "zstd compress the output")
	return cmd
}
