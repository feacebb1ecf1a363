package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rushteam/bookrec/apriori"
	"github.com/rushteam/bookrec/catalog"
	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/history"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/recall"
)

const demoPipeline = `
pipeline:
  name: demo
  nodes:
    - type: feature.user_context
    - type: recall.fanout
      config:
        timeout_ms: 200
        sources:
          - type: apriori
            per_genre: 3
          - type: popular
            top_n: 10
    - type: filter
      config:
        filters:
          - type: borrowed
          - type: availability
    - type: rank.heuristic
      config:
        recall_weight: 1
    - type: rerank.diversity
      config:
        max_per_genre: 2
    - type: rerank.topn
      config:
        n: 5
`

func demoTransactions() []core.Transaction {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	txn := func(id, user string, d int, genres ...string) core.Transaction {
		return core.Transaction{ID: id, UserID: user, Genres: genres, Timestamp: day.AddDate(0, 0, d)}
	}
	return []core.Transaction{
		txn("T1", "1", 0, "Mystery", "Thriller"),
		txn("T2", "2", 1, "Romance", "Drama"),
		txn("T3", "3", 2, "Mystery", "Crime"),
		txn("T4", "4", 3, "Science Fiction", "Fantasy"),
		txn("T5", "5", 4, "Mystery", "Thriller", "Crime"),
	}
}

func demoBooks() []*core.Book {
	return []*core.Book{
		{ID: "m1", Title: "The Murder of Roger Ackroyd", Author: "Agatha Christie", Genre: "Mystery", PublishedYear: 1926, AvailableCopies: 2},
		{ID: "t1", Title: "The Silence of the Lambs", Author: "Thomas Harris", Genre: "Thriller", PublishedYear: 1988, AvailableCopies: 1},
		{ID: "c1", Title: "The Big Sleep", Author: "Raymond Chandler", Genre: "Crime", PublishedYear: 1939, AvailableCopies: 1},
		{ID: "c2", Title: "In Cold Blood", Author: "Truman Capote", Genre: "Crime", PublishedYear: 1966, AvailableCopies: 0},
		{ID: "c3", Title: "The Cuckoo's Calling", Author: "Robert Galbraith", Genre: "Crime", PublishedYear: 2013, AvailableCopies: 3},
		{ID: "c4", Title: "Death on the Nile", Author: "Agatha Christie", Genre: "Crime", Categories: []string{"Mystery"}, PublishedYear: 1937, AvailableCopies: 1},
		{ID: "d1", Title: "The Goldfinch", Author: "Donna Tartt", Genre: "Drama", PublishedYear: 2013, AvailableCopies: 1},
		{ID: "r1", Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", PublishedYear: 1813, AvailableCopies: 1},
		{ID: "s1", Title: "Dune", Author: "Frank Herbert", Genre: "Science Fiction", PublishedYear: 1965, AvailableCopies: 1},
		{ID: "f1", Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", PublishedYear: 1937, AvailableCopies: 1},
	}
}

func newDemoCmd(a *app) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Mine the built-in example and run the recommendation pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rs := a.recommender.Train(demoTransactions())
			fmt.Fprintf(a.out, "Rules (%d, by lift):\n", len(rs.Rules))
			for _, r := range rs.Rules.TopByLift(-1) {
				fmt.Fprintf(a.out, "  %s\n", r)
			}
			for _, profile := range [][]string{{"Mystery", "Thriller"}, {"Romance"}} {
				fmt.Fprintf(a.out, "\nProfile %v:\n", apriori.NewItemset(profile...))
				printRecommendations(a, a.recommender.Recommend(profile, rs.Rules, 0))
			}
			return a.runDemoPipeline(cmd.Context(), rs, user)
		},
	}
	cmd.Flags().StringVar(&user, "user", "reader-42", "user ID for the pipeline run")
	return cmd
}

func (a *app) runDemoPipeline(ctx context.Context, rs *apriori.RuleSet, user string) error {
	c := catalog.NewMemoryCatalog()
	if err := c.Add(demoBooks()...); err != nil {
		return err
	}
	kv, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer kv.Close()

	records := []core.BorrowRecord{
		{UserID: "reader-42", BookID: "m1", BorrowedAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)},
		{UserID: "reader-42", BookID: "t1", BorrowedAt: time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)},
		{UserID: "reader-7", BookID: "d1", BorrowedAt: time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)},
		{UserID: "reader-8", BookID: "d1", BorrowedAt: time.Date(2024, 3, 3, 10, 0, 0, 0, time.UTC)},
		{UserID: "reader-8", BookID: "c3", BorrowedAt: time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)},
	}
	h := history.NewStoreProvider(kv, "bookrec:demo:history")
	if err := h.Append(ctx, records...); err != nil {
		return err
	}
	for _, rec := range records {
		if err := recall.RecordBorrow(ctx, kv, recall.DefaultPopularKey, rec.BookID); err != nil {
			return err
		}
	}

	profiles, closeProfiles, err := a.profiles(h, c)
	if err != nil {
		return err
	}
	defer closeProfiles()

	var cfg *pipeline.Config
	if path := a.cfg.Pipeline.Path; path != "" {
		cfg, err = pipeline.LoadFromYAML(path)
	} else {
		cfg, err = pipeline.ParseYAML([]byte(demoPipeline))
	}
	if err != nil {
		return err
	}
	p, err := config.BuildPipeline(cfg, &config.Deps{
		Recommender: a.recommender,
		Rules:       &recall.StaticRules{RuleSet: rs},
		Catalog:     c,
		History:     h,
		Profiles:    profiles,
		KV:          kv,
		Store:       kv,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}

	rctx := &core.RecommendContext{UserID: user, Scene: "demo"}
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "\nBooks for %s (profile %v):\n", user, rctx.Genres)
	if len(items) == 0 {
		fmt.Fprintln(a.out, "  no books")
	}
	for i, it := range items {
		b := it.Book()
		if b == nil {
			continue
		}
		reason := it.Labels["rank_reason"].Value
		if lbl, ok := it.Labels[recall.LabelReason]; ok {
			reason += "; " + lbl.Value
		}
		fmt.Fprintf(a.out, "%d. %s by %s [%s] score %.2f (%s)\n", i+1, b.Title, b.Author, b.Genre, it.Score, reason)
	}
	return nil
}
