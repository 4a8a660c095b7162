// Command lovelacectl talks to a running tutor: it sends chat queries and
// follows animation jobs until the render settles.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"lovelace-tutor/internal/client"
	"lovelace-tutor/internal/domain/model"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  lovelacectl [-addr URL] chat [-mode graph|animation] [-dim 2d|3d] [-lesson ID] [-wait] QUERY
  lovelacectl [-addr URL] poll [-interval 2s] JOB_ID
`)
}

func main() {
	addr := flag.String("addr", envOr("LOVELACE_ADDR", "http://localhost:8080"), "tutor base URL")
	timeout := flag.Duration("timeout", 90*time.Second, "per-request timeout")
	verbose := flag.Bool("v", false, "log every poll")
	flag.Usage = usage
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()
	if !*verbose {
		logger = logger.Level(zerolog.InfoLevel)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	c := client.New(*addr, *timeout)
	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	var err error
	switch args[0] {
	case "chat":
		err = runChat(ctx, c, &logger, args[1:])
	case "poll":
		err = runPoll(ctx, c, &logger, args[1:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error().Err(err).Msg(args[0] + " failed")
		os.Exit(1)
	}
}

func runChat(ctx context.Context, c *client.Client, logger *zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	mode := fs.String("mode", "graph", "graph or animation")
	dim := fs.String("dim", "", "2d or 3d")
	lesson := fs.String("lesson", "", "lesson id for lecture context")
	wait := fs.Bool("wait", false, "poll the animation job until it finishes")
	interval := fs.Duration("interval", client.DefaultPollInterval, "poll interval")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("missing query")
	}

	resp, err := c.Chat(ctx, client.ChatRequest{
		Query:     fs.Arg(0),
		Mode:      *mode,
		Dimension: *dim,
		LessonID:  *lesson,
	})
	if err != nil {
		return err
	}
	if err := printJSON(resp); err != nil {
		return err
	}
	if !*wait || resp.Animation == nil || resp.Animation.JobID == "" {
		return nil
	}
	return follow(ctx, c, logger, resp.Animation.JobID, *interval)
}

func runPoll(ctx context.Context, c *client.Client, logger *zerolog.Logger, args []string) error {
	fs := flag.NewFlagSet("poll", flag.ExitOnError)
	interval := fs.Duration("interval", client.DefaultPollInterval, "poll interval")
	_ = fs.Parse(args)
	if fs.NArg() == 0 {
		return errors.New("missing job id")
	}
	return follow(ctx, c, logger, fs.Arg(0), *interval)
}

func follow(ctx context.Context, c *client.Client, logger *zerolog.Logger, id string, interval time.Duration) error {
	var last model.AnimationJobStatus
	job, err := c.PollJob(ctx, id, interval, func(j *model.AnimationJob) {
		if j.Status != last {
			logger.Info().Str("job_id", j.ID).Str("status", string(j.Status)).Msg("job update")
			last = j.Status
			return
		}
		logger.Debug().Str("job_id", j.ID).Msg("still " + string(j.Status))
	})
	if err != nil {
		return err
	}
	if err := printJSON(job); err != nil {
		return err
	}
	if job.Status == model.AnimationJobFailed {
		return fmt.Errorf("render failed: %s", job.Error)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
