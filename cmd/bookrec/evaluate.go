package main

import (
	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/bookrec/apriori"
)

func newEvaluateCmd(a *app) *cobra.Command {
	var (
		input, rulesPath, catalogPath string
		k                             int
	)
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Hold-out evaluation of a rule set (mines from --input when --rules is empty)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			txns, err := a.loadTransactions(cmd.Context(), input, catalogPath)
			if err != nil {
				return err
			}
			txns = a.recommender.Preprocess(txns)

			var rules apriori.Rules
			if rulesPath != "" {
				rs, err := readRuleSet(rulesPath)
				if err != nil {
					return err
				}
				rules = rs.Rules
			} else {
				rules = a.recommender.Train(txns).Rules
			}
			data, err := json.MarshalIndent(a.recommender.Evaluate(txns, rules, k), "", "  ")
			if err != nil {
				return err
			}
			return a.writeOutput("", data)
		},
	}
	cmd.Flags().StringVar(&input, "input", "", "borrow records JSON file")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "rule set JSON file")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "book catalog JSON file used to fill missing genres")
	cmd.Flags().IntVar(&k, "k", 5, "recommendations per user")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}
