package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dewyman/TALON/internal/reads"
)

func newAnnotateCmd() *cobra.Command {
	var inputFormat, outPath, profileMode, profileDir string

	cmd := &cobra.Command{
		Use:   "annotate <reads>...",
		Short: "Annotate SAM, BAM or JSONL reads against the catalog",
		Long: `Annotate assigns every read to a known or newly minted transcript and
writes one row per read. New vertices, edges, genes and transcripts are
checkpointed into the catalog as the run progresses.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stopProfile, err := startProfile(profileMode, profileDir)
			if err != nil {
				return err
			}
			defer stopProfile()

			out := cmd.OutOrStdout()
			if outPath != "" && outPath != "-" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating output: %w", err)
				}
				defer f.Close()

				out = f
			}

			return runAnnotate(cmd.Context(), args, inputFormat, out)
		},
	}

	cmd.Flags().StringVar(&inputFormat, "input-format", "", "Read format: sam|bam|jsonl (default: from file extension)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&profileMode, "profile", "", "Write a runtime profile: cpu|mem|block|trace")
	cmd.Flags().StringVar(&profileDir, "profile-dir", ".", "Directory for profile output")

	return cmd
}

func runAnnotate(ctx context.Context, paths []string, inputFormat string, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}

	w, err := newAnnotationWriter(out, flagFmt)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	sess, err := openSession(ctx, cfg, log)
	if err != nil {
		return err
	}

	runErr := annotateFiles(ctx, sess, paths, inputFormat, cfg.Dataset, w)
	runErr = errors.Join(runErr, w.Flush())

	// An interrupted run still persists what it minted.
	return errors.Join(runErr, sess.finish(context.Background()))
}

func annotateFiles(ctx context.Context, sess *session, paths []string, format, dataset string, w annotationWriter) error {
	for _, path := range paths {
		src, err := reads.Open(path, format, dataset)
		if err != nil {
			return err
		}

		res, err := sess.annotator.AnnotateAll(ctx, src, w.Write)
		skipped := reads.Skipped(src)
		err = errors.Join(err, src.Close())

		sess.log.WithFields(logrus.Fields{
			"file":      path,
			"annotated": res.Annotated,
			"rejected":  res.Rejected,
			"skipped":   skipped,
		}).Info("reads annotated")

		if err != nil {
			return fmt.Errorf("annotating %s: %w", path, err)
		}
	}

	return nil
}

// startProfile begins a runtime profile. The returned func stops it.
func startProfile(mode, dir string) (func(), error) {
	var kind func(*profile.Profile)

	switch mode {
	case "":
		return func() {}, nil
	case "cpu":
		kind = profile.CPUProfile
	case "mem":
		kind = profile.MemProfile
	case "block":
		kind = profile.BlockProfile
	case "trace":
		kind = profile.TraceProfile
	default:
		return nil, fmt.Errorf("unknown profile %q (want cpu, mem, block or trace)", mode)
	}

	p := profile.Start(kind, profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet)

	return p.Stop, nil
}
