package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/inhies/go-bytesize"
	"github.com/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

var ErrTooLarge = errors.New("source too large")

type Option func(f *Fetcher)

// WithProgress sends the progress bar to w instead of stderr.
func WithProgress(w io.Writer) Option {
	return func(f *Fetcher) {
		f.progress = w
	}
}

// WithLimit caps the number of bytes read from a source.
func WithLimit(max bytesize.ByteSize) Option {
	return func(f *Fetcher) {
		f.limit = int64(max)
	}
}

func New(logger *zap.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		cli:      resty.New().SetDoNotParseResponse(true),
		log:      logger,
		progress: os.Stderr,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Fetcher downloads source images over HTTP.
type Fetcher struct {
	cli      *resty.Client
	log      *zap.Logger
	progress io.Writer
	limit    int64
}

func (f *Fetcher) Get(ctx context.Context, url string) ([]byte, error) {
	resp, err := f.cli.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.RawBody().Close()
	}()

	if resp.IsError() {
		return nil, errors.Errorf("fetch %s: %s", url, resp.Status())
	}

	size := resp.RawResponse.ContentLength
	if f.limit > 0 && size > f.limit {
		return nil, errors.Wrapf(ErrTooLarge, "%s > %s", bytesize.New(float64(size)), bytesize.New(float64(f.limit)))
	}

	bar := progressbar.NewOptions64(
		size,
		progressbar.OptionSetWriter(f.progress),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", url)),
	)

	var body io.Reader = resp.RawBody()
	if f.limit > 0 {
		body = io.LimitReader(body, f.limit+1)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(io.MultiWriter(&buf, bar), body); err != nil {
		return nil, err
	}
	_ = bar.Finish()

	if f.limit > 0 && int64(buf.Len()) > f.limit {
		return nil, errors.Wrapf(ErrTooLarge, "more than %s", bytesize.New(float64(f.limit)))
	}

	f.log.With(zap.String("url", url), zap.Stringer("size", bytesize.New(float64(buf.Len())))).Debug("fetched")
	return buf.Bytes(), nil
}
