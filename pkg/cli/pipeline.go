package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/bstardust/exif-analyzer/internal/batch"
	"github.com/bstardust/exif-analyzer/internal/config"
	"github.com/bstardust/exif-analyzer/internal/exif"
	"github.com/bstardust/exif-analyzer/internal/logger"
	"github.com/bstardust/exif-analyzer/internal/metadata"
	"github.com/bstardust/exif-analyzer/internal/progress"
	"github.com/bstardust/exif-analyzer/internal/publish"
	"github.com/bstardust/exif-analyzer/internal/report"
	"github.com/bstardust/exif-analyzer/internal/scan"
	"github.com/bstardust/exif-analyzer/pkg/s3client"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// flagKeys maps command flags to config keys
var flagKeys = map[string]string{
	"recursive":       "scan.recursive",
	"ext":             "scan.extensions",
	"follow-symlinks": "scan.follow_symlinks",
	"concurrency":     "batch.concurrency",
	"progress":        "batch.progress_interval",
	"csv":             "report.csv",
	"html":            "report.html",
	"json":            "report.json",
	"map-url":         "report.map_url",
	"date-layout":     "report.date_layout",
	"timezone":        "report.timezone",
	"debounce":        "watch.debounce",
	"upload":          "s3.enabled",
	"endpoint":        "s3.endpoint",
	"region":          "s3.region",
	"bucket":          "s3.bucket",
	"access-key":      "s3.access_key",
	"secret-key":      "s3.secret_key",
	"use-ssl":         "s3.use_ssl",
	"prefix":          "s3.prefix",
	"presign":         "s3.presign_expiry",
}

// pipeline wires scanner, processor, report export and publishing for one
// configuration.
type pipeline struct {
	cfg       *config.Config
	scanner   *scan.Scanner
	processor *batch.Processor
	fs        afero.Fs
	out       io.Writer
	client    s3client.S3Interface
}

func newPipeline(cfg *config.Config, fs afero.Fs, out io.Writer) (*pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	exts, err := cfg.ExtensionSet()
	if err != nil {
		return nil, err
	}
	if unknown := exts.Unrecognized(); len(unknown) > 0 {
		logger.Warn("Extensions %v are not known image types, matching files will likely be skipped or have no metadata", unknown)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	builder := metadata.NewBuilder(
		metadata.WithTechnicalFields(cfg.Report.TechnicalFields...),
		metadata.WithLocation(loc),
	)
	processor, err := batch.NewProcessor(exif.NewCodec(), builder,
		batch.WithConcurrency(cfg.Batch.Concurrency),
		batch.WithObserver(progress.New().WithInterval(cfg.Batch.ProgressInterval)),
	)
	if err != nil {
		return nil, err
	}

	return &pipeline{
		cfg:       cfg,
		scanner:   scan.New(scan.FollowSymlinks(cfg.Scan.FollowSymlinks)),
		processor: processor,
		fs:        fs,
		out:       out,
	}, nil
}

// connect creates the S3 client when uploading is enabled. It runs before
// the first batch so bad credentials fail fast.
func (p *pipeline) connect(ctx context.Context) error {
	if !p.cfg.S3.Enabled || p.client != nil {
		return nil
	}
	client, err := s3client.New(ctx, p.cfg.S3Client())
	if err != nil {
		return fmt.Errorf("failed to initialize S3 client: %w", err)
	}
	p.client = client
	return nil
}

func (p *pipeline) run(ctx context.Context) (*batch.Result, error) {
	exts, err := p.cfg.ExtensionSet()
	if err != nil {
		return nil, err
	}
	job, err := batch.NewJob(p.cfg.Scan.Root, p.cfg.Scan.Recursive, exts)
	if err != nil {
		return nil, err
	}
	if err := job.Discover(p.scanner); err != nil {
		return nil, err
	}

	res, err := p.processor.Run(ctx, job)
	if err != nil {
		return nil, err
	}
	p.printSummary(res)

	paths := p.cfg.ReportPaths()
	if len(paths) == 0 {
		return res, nil
	}

	rep := report.New(res,
		report.WithMapURL(p.cfg.Report.MapURL),
		report.WithDateLayout(p.cfg.Report.DateLayout),
	)
	if err := report.ExportAll(p.fs, paths, rep); err != nil {
		return res, fmt.Errorf("failed to export reports: %w", err)
	}
	for _, path := range paths {
		fmt.Fprintf(p.out, "Report written: %s\n", path)
	}

	if p.client != nil {
		pub := publish.New(p.client, p.fs,
			publish.WithKeyDir(res.JobID),
			publish.WithPresign(p.cfg.S3.PresignExpiry),
			publish.WithMetadata(map[string]string{"job-id": res.JobID}),
		)
		published, err := pub.Publish(ctx, paths)
		for _, item := range published {
			if item.URL != "" {
				fmt.Fprintf(p.out, "Published %s: %s\n", item.Key, item.URL)
			}
		}
		if err != nil {
			return res, fmt.Errorf("failed to publish reports: %w", err)
		}
	}

	return res, nil
}

func (p *pipeline) printSummary(res *batch.Result) {
	var size uint64
	for _, r := range res.Records {
		size += r.SizeBytes()
	}

	fmt.Fprintf(p.out, "Processed: %d (%s)\n", res.RecordCount(), humanize.Bytes(size))
	fmt.Fprintf(p.out, "Skipped: %d\n", res.SkippedCount())
	fmt.Fprintf(p.out, "Total: %d\n", res.Total)
	if res.Canceled {
		fmt.Fprintln(p.out, "Canceled: remaining files were not processed")
	}
	for _, s := range res.Skipped {
		logger.Debug("Skipped %s: %v", s.Path, s.Err)
	}
}
