package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"nga_reminder/internal/model"
	"nga_reminder/internal/notify"
)

var (
	postsAfter  int
	postsAuthor int64
	postsFormat string
)

var postsCmd = &cobra.Command{
	Use:   "posts <tid>",
	Short: "Show stored posts of a thread",
	Args:  cobra.ExactArgs(1),
	RunE:  postsAction,
}

func init() {
	postsCmd.Flags().IntVar(&postsAfter, "after", 0, "only posts with a higher post number")
	postsCmd.Flags().Int64Var(&postsAuthor, "author", 0, "only posts by this uid")
	postsCmd.Flags().StringVar(&postsFormat, "format", "terminal", "output format: terminal, json")
	rootCmd.AddCommand(postsCmd)
}

func postsAction(cmd *cobra.Command, args []string) error {
	id, err := parseTID(args[0])
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	posts, err := store.GetPostsAfter(cmd.Context(), id, postsAfter, postsAuthor)
	if err != nil {
		return fmt.Errorf("get posts: %w", err)
	}

	switch postsFormat {
	case "json":
		return printPostsJSON(cmd.OutOrStdout(), posts)
	case "terminal", "":
		printPosts(cmd.OutOrStdout(), posts)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want terminal or json)", postsFormat)
	}
}

func printPosts(w io.Writer, posts []model.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "No posts stored.")
		return
	}
	for _, p := range posts {
		fmt.Fprintf(w, "#%d  %s (%d)  %s\n", p.SequenceNumber, p.AuthorName, p.AuthorID, p.PostDate)
		fmt.Fprintf(w, "    %s\n", notify.Excerpt(p.Content, 120))
	}
}

type postOutput struct {
	PostID     int64  `json:"post_id"`
	PostNumber int    `json:"post_number"`
	AuthorUID  int64  `json:"author_uid"`
	AuthorName string `json:"author_name"`
	PostDate   string `json:"post_date"`
	Content    string `json:"content"`
	URL        string `json:"url"`
}

func printPostsJSON(w io.Writer, posts []model.Post) error {
	out := make([]postOutput, len(posts))
	for i, p := range posts {
		out[i] = postOutput{
			PostID:     p.ID,
			PostNumber: p.SequenceNumber,
			AuthorUID:  p.AuthorID,
			AuthorName: p.AuthorName,
			PostDate:   p.PostDate,
			Content:    p.Content,
			URL:        notify.PostURL(p),
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
