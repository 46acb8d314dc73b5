package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"buskport-cli/model"
	"buskport-cli/service"
)

func newPostsCmd(opts *rootOptions) *cobra.Command {
	var category string
	var search string
	cmd := &cobra.Command{
		Use:   "posts [id]",
		Short: "List community posts, or show one post",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := setup(opts, false)
			if err != nil {
				return err
			}
			defer func() { _ = e.logger.Sync() }()

			if len(args) == 1 {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid post id %q", args[0])
				}
				post, err := e.client.GetPost(cmd.Context(), id)
				if err != nil {
					if service.IsNotFound(err) {
						return fmt.Errorf("post %d not found", id)
					}
					return fmt.Errorf("load post: %s", service.UserMessage(err))
				}
				printPost(cmd, post)
				return nil
			}

			cat, err := model.ParsePostCategory(category)
			if err != nil {
				return err
			}
			posts, err := e.client.GetPosts(cmd.Context(), cat)
			if err != nil {
				return fmt.Errorf("load posts: %s", service.UserMessage(err))
			}
			posts = model.FilterPosts(posts, search)
			if len(posts) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s posts found.\n", cat.Label())
				return nil
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetTitle("Community · " + cat.Label())
			t.AppendHeader(table.Row{"ID", "Title", "Author", "Date"})
			t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 40}})
			for _, p := range posts {
				day, _, _ := strings.Cut(p.CreatedAt, "T")
				t.AppendRow(table.Row{p.PostId, p.Title, p.Author(), day})
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", string(model.CategoryGeneral), "GENERAL, RECRUIT or REVIEW")
	cmd.Flags().StringVar(&search, "search", "", "filter by title, content or author")
	return cmd
}

func printPost(cmd *cobra.Command, p model.Post) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, p.Title)
	meta := []string{p.Category.Label(), p.Author()}
	if p.CreatedAt != "" {
		meta = append(meta, strings.Replace(p.CreatedAt, "T", " ", 1))
	}
	fmt.Fprintln(out, strings.Join(meta, " • "))
	fmt.Fprintln(out)
	fmt.Fprintln(out, p.Content)
}
