package bot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/inhies/go-bytesize"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"picshield/pkg/protect"
	"picshield/pkg/raster"
	"picshield/pkg/store"
)

const listLimit = 10

func New(token string, p *protect.Pipeline, st *store.Store, logger *zap.Logger) (*Bot, error) {
	return newBot(tele.Settings{
		Token: token,
		Poller: &tele.LongPoller{
			Timeout: 30 * time.Second,
		},
	}, p, st, logger)
}

func newBot(pref tele.Settings, p *protect.Pipeline, st *store.Store, logger *zap.Logger) (*Bot, error) {
	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	return &Bot{
		b:   b,
		p:   p,
		st:  st,
		log: logger.With(zap.String("via", "bot")),
	}, nil
}

// Bot protects photos and image documents sent to it and replies with the
// result as a document, so Telegram does not recompress it.
type Bot struct {
	b   *tele.Bot
	p   *protect.Pipeline
	st  *store.Store
	log *zap.Logger
}

func (b *Bot) handleBase() {
	b.b.Handle("/start", b.help)
	b.b.Handle("/help", b.help)

	b.b.Handle("/config", func(context tele.Context) error {
		cfg := b.p.Config()
		lines := []string{
			fmt.Sprintf("Label: %s", cfg.Label),
			fmt.Sprintf("Blur: %g", cfg.Blur),
			fmt.Sprintf("Brightness: %g", cfg.Brightness),
			fmt.Sprintf("Saturation: %g", cfg.Saturation),
			fmt.Sprintf("Noise: %dx%d @ %g", cfg.NoiseWidth, cfg.NoiseHeight, cfg.NoiseOpacity),
			fmt.Sprintf("Watermark opacity: %g", cfg.WatermarkOpacity),
		}
		return context.Reply(strings.Join(lines, "\n"))
	})

	b.b.Handle("/list", func(context tele.Context) error {
		names, err := b.st.List()
		if err != nil {
			return context.Reply(fmt.Sprintf("list failed: %s", err))
		}
		if len(names) == 0 {
			return context.Reply("No protected images yet")
		}
		if len(names) > listLimit {
			names = names[:listLimit]
		}
		return context.Reply(strings.Join(names, "\n"))
	})
}

func (b *Bot) help(context tele.Context) error {
	return context.Reply("Send a photo or an image file and I will return a protected copy.\n/config shows the current settings\n/list shows recent images")
}

func (b *Bot) handleImages() {
	b.b.Handle(tele.OnPhoto, func(context tele.Context) error {
		photo := context.Message().Photo
		return b.reply(context, &photo.File, "photo.jpg")
	})

	b.b.Handle(tele.OnDocument, func(context tele.Context) error {
		doc := context.Message().Document
		if !strings.HasPrefix(doc.MIME, "image/") {
			return context.Reply("Only images are supported")
		}
		return b.reply(context, &doc.File, doc.FileName)
	})
}

func (b *Bot) reply(context tele.Context, file *tele.File, name string) error {
	rc, err := b.b.File(file)
	if err != nil {
		return context.Reply(fmt.Sprintf("download failed: %s", err))
	}
	defer func() {
		_ = rc.Close()
	}()

	outName, out, err := b.process(name, rc)
	if err != nil {
		return context.Reply(fmt.Sprintf("protect failed: %s", err))
	}

	return context.Reply(&tele.Document{
		File:     tele.FromReader(bytes.NewReader(out)),
		FileName: outName,
		Caption:  bytesize.New(float64(len(out))).String(),
	})
}

// process protects one image and keeps the result in the store.
func (b *Bot) process(name string, r io.Reader) (string, []byte, error) {
	bs, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("read failed: %w", err)
	}

	img, format, err := raster.Decode(bs)
	if err != nil {
		return "", nil, err
	}

	protected, err := b.p.ProtectImage(img)
	if err != nil {
		return "", nil, err
	}

	out, err := raster.Encode(protected, format)
	if err != nil {
		return "", nil, err
	}

	outName := raster.FileName(b.st.UniqueName(name), raster.OutputFormat(format))
	if err := b.st.WriteProcessed(outName, out); err != nil {
		return "", nil, err
	}

	b.log.With(zap.String("name", outName), zap.Stringer("size", bytesize.New(float64(len(out))))).Info("image protected")
	return outName, out, nil
}

func (b *Bot) Start() {
	b.handleBase()
	b.handleImages()
	go b.b.Start()
}

// Stop asks the poller to quit and waits for it until ctx is done. A long
// poll in flight keeps running in the background after ctx expires.
func (b *Bot) Stop(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.b.Stop()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
