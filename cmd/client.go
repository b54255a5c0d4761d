package cmd

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nijaru/yt-summary/client"
	"github.com/nijaru/yt-summary/db"
	"github.com/nijaru/yt-summary/storage"
	"github.com/nijaru/yt-summary/transcript"
	"github.com/nijaru/yt-summary/utils"
	"github.com/nijaru/yt-summary/validation"
	"github.com/spf13/cobra"
)

var outputFlags struct {
	raw   bool
	width int
	title bool
}

var transcriptCmd = &cobra.Command{
	Use:   "transcript <youtube-url>",
	Short: "Print the caption text of a video.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		videoID, err := validation.VideoIDFromURL(args[0])
		if err != nil {
			return err
		}

		res, err := newExtractor().Extract(cmd.Context(), videoID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if outputFlags.title && res.Title != "" {
			fmt.Fprintln(out, res.Title)
			fmt.Fprintln(out)
		}
		fmt.Fprintln(out, res.Text)
		return nil
	},
}

var summarizeCmd = &cobra.Command{
	Use:   "summarize <youtube-url>",
	Short: "Summarize a video through the relay and keep it as the current summary.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(c *client.Client) error {
			summary, err := c.GetSummary(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printMarkdown(cmd, summary)
		})
	},
}

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question about the current summary.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd.Context(), func(c *client.Client) error {
			answer, err := c.AskQuestion(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printMarkdown(cmd, answer)
		})
	},
}

func newExtractor() *transcript.Extractor {
	return transcript.NewExtractor(
		transcript.WithBaseURL(cfg.Client.YouTubeBaseURL),
		transcript.WithHTTPClient(&http.Client{}),
		transcript.WithLogger(log),
	)
}

// summarySlot picks the Spaces bucket when one is configured and the local
// database otherwise.
func summarySlot(ctx context.Context, store *db.Store) (client.SummarySlot, error) {
	if cfg.Spaces.Bucket != "" {
		log.WithField("bucket", cfg.Spaces.Bucket).Debug("Using Spaces summary slot")
		return storage.NewSpacesStore(ctx, cfg.Spaces)
	}
	return db.NewSummaryStore(store), nil
}

func withClient(ctx context.Context, fn func(*client.Client) error) error {
	store, err := db.Open(cfg.Client.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	slot, err := summarySlot(ctx, store)
	if err != nil {
		return err
	}

	c, err := client.New(ctx, cfg.Client.RelayURL, newExtractor(), slot, db.NewCredentials(store),
		client.WithLogger(log),
	)
	if err != nil {
		return err
	}
	defer c.Close()

	return fn(c)
}

func printMarkdown(cmd *cobra.Command, markdown string) error {
	out := cmd.OutOrStdout()
	if outputFlags.raw {
		_, err := fmt.Fprint(out, markdown)
		return err
	}
	rendered, err := utils.RenderMarkdown(markdown, outputFlags.width)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(out, rendered)
	return err
}

func init() {
	transcriptCmd.Flags().BoolVar(&outputFlags.title, "title", false, "Print the video title before the transcript")
	for _, c := range []*cobra.Command{summarizeCmd, askCmd} {
		c.Flags().BoolVar(&outputFlags.raw, "raw", false, "Print markdown without terminal rendering")
		c.Flags().IntVarP(&outputFlags.width, "width", "w", 80, "Word wrap width for rendered output")
	}
}
