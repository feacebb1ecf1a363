package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMineCmd(a *app) *cobra.Command {
	var (
		input, output, catalogPath string
		cache                      bool
		top                        int
	)
	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine association rules from borrow records",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			txns, err := a.loadTransactions(ctx, input, catalogPath)
			if err != nil {
				return err
			}
			rs := a.recommender.Train(txns)
			data, err := rs.Encode()
			if err != nil {
				return err
			}
			if err := a.writeOutput(output, data); err != nil {
				return err
			}

			if cache {
				s, err := a.openStore(ctx)
				if err != nil {
					return err
				}
				defer s.Close()
				if err := a.ruleCache(s).Put(ctx, a.recommender.Config(), rs); err != nil {
					return fmt.Errorf("cache rules: %w", err)
				}
			}

			if output != "" {
				fmt.Fprintf(a.out, "%d transactions, %d frequent itemsets, %d rules -> %s\n",
					len(txns), len(rs.Itemsets), len(rs.Rules), output)
				for _, r := range rs.Rules.TopByLift(top) {
					fmt.Fprintf(a.out, "  %s\n", r)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "borrow records JSON file")
	cmd.Flags().StringVar(&output, "output", "", "rule set output file (stdout when empty)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "book catalog JSON file used to fill missing genres")
	cmd.Flags().BoolVar(&cache, "cache", false, "also write the rule set to the configured store")
	cmd.Flags().IntVar(&top, "top", 5, "number of top rules by lift to print")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
