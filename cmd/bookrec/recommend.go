package main

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/rushteam/bookrec/apriori"
)

func newRecommendCmd(a *app) *cobra.Command {
	var (
		rulesPath string
		genres    []string
		topK      int
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend genres for a genre profile",
		RunE: func(*cobra.Command, []string) error {
			rs, err := readRuleSet(rulesPath)
			if err != nil {
				return err
			}
			recs := a.recommender.Recommend(genres, rs.Rules, topK)
			if asJSON {
				data, err := json.MarshalIndent(recs, "", "  ")
				if err != nil {
					return err
				}
				return a.writeOutput("", data)
			}
			printRecommendations(a, recs)
			return nil
		},
	}
	cmd.Flags().StringVar(&rulesPath, "rules", "", "rule set JSON file")
	cmd.Flags().StringSliceVar(&genres, "genres", nil, "user genre profile, comma separated")
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of genres to recommend (config top_k when 0)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	_ = cmd.MarkFlagRequired("rules")
	_ = cmd.MarkFlagRequired("genres")
	return cmd
}

func printRecommendations(a *app, recs []apriori.GenreRecommendation) {
	if len(recs) == 0 {
		fmt.Fprintln(a.out, "no recommendations")
		return
	}
	for i, r := range recs {
		fmt.Fprintf(a.out, "%d. %s (score %.4f)\n", i+1, r.Genre, r.Score)
		for _, reason := range r.Reasons {
			fmt.Fprintf(a.out, "   - %s\n", reason)
		}
	}
}
