package imagereport

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// BatchOptions contains the options for DecodeFiles.
type BatchOptions struct {
	// Workers is the maximum number of files decoded at once.
	// Default value is runtime.NumCPU().
	Workers int

	// Warnf will be called for each warning.
	// The first argument is always the filename.
	// It must be safe for concurrent use.
	Warnf func(string, ...any)

	// Timeout is the maximum time spent on reading the metadata of one file.
	// If set to 0, there is no timeout.
	Timeout time.Duration
}

// FileResult is the result of decoding one file.
type FileResult struct {
	Filename string
	Record   Record
	// Err is set if the file could not be opened or read.
	Err error
}

// Report formats the Record of r.
func (r FileResult) Report() string {
	return FormatReport(r.Record)
}

// DecodeFiles decodes the files in filenames concurrently.
// The results are in the same order as filenames.
// A file that fails is reported in its FileResult and does not stop the other files;
// the returned error is only set if ctx is cancelled.
func DecodeFiles(ctx context.Context, filenames []string, opts BatchOptions) ([]FileResult, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Warnf == nil {
		opts.Warnf = func(string, ...any) {}
	}

	results := make([]FileResult, len(filenames))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for i, filename := range filenames {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = decodeFile(filename, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}

	return results, ctx.Err()
}

func decodeFile(filename string, opts BatchOptions) FileResult {
	result := FileResult{Filename: filename}

	f, err := os.Open(filename)
	if err != nil {
		result.Err = err
		return result
	}
	defer f.Close()

	// Unknown extensions fall back to detection.
	imageFormat, _ := ImageFormatFromExt(filepath.Ext(filename))

	result.Record, result.Err = Decode(Options{
		R:           f,
		ImageFormat: imageFormat,
		Timeout:     opts.Timeout,
		Warnf: func(format string, args ...any) {
			opts.Warnf("%s: "+format, append([]any{filename}, args...)...)
		},
	})

	return result
}
