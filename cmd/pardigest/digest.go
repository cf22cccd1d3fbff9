package main

import (
	"bufio"
	"context"
	"encoding/hex"
	stderrors "errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"strings"
	"syscall"

	"golang.org/x/crypto/blake2b"

	"github.com/adamthedash/iterators/logger"
	"github.com/adamthedash/iterators/parmap"
	"github.com/adamthedash/iterators/pipeline"
	"github.com/adamthedash/iterators/resilience"
)

// Digest is the BLAKE2b-256 sum of one file.
type Digest struct {
	Path string
	Sum  string
}

func (d Digest) String() string { return d.Sum + "  " + d.Path }

// scratch is owned by one worker and reused for every file it hashes.
type scratch struct {
	h   hash.Hash
	buf []byte
}

func newScratch(size int) parmap.StateFactory[*scratch] {
	return func(ctx context.Context, worker int) (*scratch, error) {
		h, err := blake2b.New256(nil)
		if err != nil {
			return nil, err
		}
		return &scratch{h: h, buf: make([]byte, size)}, nil
	}
}

// digestFile hashes path with the worker's scratch. It checks ctx between
// reads so a per-file timeout stops large files promptly.
func digestFile(ctx context.Context, s *scratch, path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()

	s.h.Reset()
	for {
		if err := ctx.Err(); err != nil {
			return Digest{}, err
		}
		n, err := f.Read(s.buf)
		s.h.Write(s.buf[:n])
		if err == io.EOF {
			break
		}
		if err != nil {
			return Digest{}, err
		}
	}
	return Digest{Path: path, Sum: hex.EncodeToString(s.h.Sum(nil))}, nil
}

// retryIf skips files that cannot succeed on a second attempt.
func retryIf(err error) bool {
	if stderrors.Is(err, fs.ErrNotExist) || stderrors.Is(err, fs.ErrPermission) || stderrors.Is(err, syscall.EISDIR) {
		return false
	}
	return resilience.DefaultRetryIf(err)
}

// digester builds the per-item transformation from the config: the digest
// itself, bounded by Timeout, retried per Retry.
func digester(cfg Config) parmap.StatefulFunc[*scratch, string, Digest] {
	retry := cfg.Retry
	if retry.RetryIf == nil {
		retry.RetryIf = retryIf
	}
	return func(ctx context.Context, s *scratch, path string) (Digest, error) {
		return resilience.Retry(ctx, retry, func(ctx context.Context) (Digest, error) {
			return resilience.Timeout(ctx, cfg.Timeout, func(ctx context.Context) (Digest, error) {
				return digestFile(ctx, s, path)
			})
		})
	}
}

// lines yields the non-empty lines of r, trimmed of surrounding space.
func lines(r io.Reader) *pipeline.Pipeline[string] {
	p := pipeline.FromFunc(func(context.Context) pipeline.Iterator[string] {
		return &lineIter{sc: bufio.NewScanner(r)}
	})
	p = pipeline.Map(p, func(_ context.Context, s string) (string, error) {
		return strings.TrimSpace(s), nil
	})
	return pipeline.Filter(p, func(s string) bool { return s != "" })
}

type lineIter struct {
	sc *bufio.Scanner
}

func (it *lineIter) Next(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if !it.sc.Scan() {
		return "", false, it.sc.Err()
	}
	return it.sc.Text(), true, nil
}

func (it *lineIter) Close() error { return nil }

// Summary counts the files a run processed.
type Summary struct {
	Hashed int
	Failed int
}

// digestAll hashes every path in order and writes one line per file to out.
// With KeepGoing failures are logged and counted; otherwise the first one is
// returned.
func digestAll(ctx context.Context, cfg Config, paths *pipeline.Pipeline[string], out io.Writer, log *logger.Logger) (Summary, error) {
	var sum Summary

	opts := []parmap.Option{
		parmap.WithConfig(cfg.Parmap),
		parmap.WithLogger(log.WithComponent("parmap")),
	}
	outcomes := pipeline.StatefulParMap(paths, newScratch(cfg.BufferSize), digester(cfg), opts...)

	w := bufio.NewWriter(out)
	defer w.Flush()

	if cfg.KeepGoing {
		counted := pipeline.Tap(outcomes, func(_ context.Context, o parmap.Outcome[Digest]) error {
			if o.Err != nil {
				sum.Failed++
			}
			return nil
		})
		err := pipeline.ForEach(ctx, pipeline.FilterLog(counted, log), func(_ context.Context, d Digest) error {
			sum.Hashed++
			_, err := fmt.Fprintln(w, d)
			return err
		})
		return sum, err
	}

	err := pipeline.ForEach(ctx, outcomes, func(_ context.Context, o parmap.Outcome[Digest]) error {
		if o.Err != nil {
			sum.Failed++
			return o.Err
		}
		sum.Hashed++
		_, err := fmt.Fprintln(w, o.Value)
		return err
	})
	return sum, err
}
