package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/a3tai/es2aa/internal/config"
	"github.com/a3tai/es2aa/internal/converter"
	"github.com/a3tai/es2aa/internal/exam"
	"github.com/a3tai/es2aa/internal/logger"
)

type options struct {
	metadata    string
	campus      string
	dialect     string
	mcOnly      bool
	output      string
	logLevel    string
	maxFileSize int64
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run converts one document and returns the process exit code
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options

	flags := pflag.NewFlagSet("exam_convert", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&opts.metadata, "metadata", "", "CSV or XLSX metadata sheet keyed by ID/Rev")
	flags.StringVar(&opts.campus, "campus", "", "Value for the campus tag column")
	flags.StringVar(&opts.dialect, "dialect", "",
		"Force a dialect ("+strings.Join(exam.DialectNames(), ", ")+"); empty detects it")
	flags.BoolVar(&opts.mcOnly, "mc-only", false, "Keep only multiple choice questions")
	flags.StringVarP(&opts.output, "output", "o", "", "Write the CSV to this file instead of stdout")
	flags.StringVar(&opts.logLevel, "loglevel", "warn", "Log level (debug, info, warn, error)")
	flags.Int64Var(&opts.maxFileSize, "maxfilesize", config.DefaultMaxFileSize, "Maximum input file size in bytes")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: exam_convert [options] <document.txt|document.pdf>\n\n")
		fmt.Fprintf(stderr, "Converts an exam export into assessment import CSV.\n\nOptions:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if flags.NArg() != 1 {
		fmt.Fprintf(stderr, "Error: exactly one document path is required\n\n")
		flags.Usage()
		return 2
	}

	if err := convert(ctx, flags.Arg(0), opts, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func convert(ctx context.Context, document string, opts options, stdout, stderr io.Writer) error {
	log, err := logger.NewConsole(opts.logLevel, stderr)
	if err != nil {
		return err
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("cannot determine working directory: %w", err)
	}
	svc, err := converter.NewService(opts.maxFileSize, workDir, converter.WithLogger(log))
	if err != nil {
		return err
	}

	result, err := svc.Convert(ctx, converter.ConvertRequest{
		Document:           document,
		Metadata:           opts.metadata,
		Campus:             opts.campus,
		Dialect:            opts.dialect,
		MultipleChoiceOnly: opts.mcOnly,
	})
	if err != nil {
		return err
	}

	if result.Stats.Questions == 0 {
		fmt.Fprintf(stderr, "Warning: no questions found in %s\n", document)
	} else if result.Stats.Incomplete > 0 {
		fmt.Fprintf(stderr, "Warning: %d of %d question(s) are missing a stem or an answer\n",
			result.Stats.Incomplete, result.Stats.Questions)
	}

	if opts.output == "" {
		_, err = stdout.Write(result.CSV)
		return err
	}
	if err := os.WriteFile(opts.output, result.CSV, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", opts.output, err)
	}
	fmt.Fprintf(stderr, "Wrote %d question(s) to %s\n", result.Stats.Questions, opts.output)
	return nil
}
