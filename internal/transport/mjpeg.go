package transport

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
)

// ErrStreamEnded is reported when the server stops sending frames.
var ErrStreamEnded = errors.New("video stream ended")

// MJPEGSurface pulls a multipart/x-mixed-replace JPEG stream over HTTP.
type MJPEGSurface struct {
	// UserAgent is sent with every stream request when set.
	UserAgent string

	client *http.Client
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewMJPEGSurface(client *http.Client) *MJPEGSurface {
	if client == nil {
		client = &http.Client{}
	}

	return &MJPEGSurface{client: client, logger: transportLogger("mjpeg")}
}

// Load stops the current stream and starts fetching rawURL. onFrame is called
// for every decoded frame, onError at most once when the stream fails.
// Callbacks of a cleared stream are suppressed; one already running may finish.
func (s *MJPEGSurface) Load(rawURL string, onFrame func(image.Image), onError func(error)) {
	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	go s.stream(ctx, rawURL, onFrame, onError)
}

// Clear aborts the current stream, if any.
func (s *MJPEGSurface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *MJPEGSurface) stream(ctx context.Context, rawURL string, onFrame func(image.Image), onError func(error)) {
	logger := endpointLogger(s.logger, rawURL)
	fail := func(err error) {
		if ctx.Err() != nil {
			return
		}
		logger.Warn("video stream failed", "error", err)
		if onError != nil {
			onError(err)
		}
	}
	deliver := func(img image.Image) {
		if ctx.Err() != nil || onFrame == nil {
			return
		}
		onFrame(img)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		fail(fmt.Errorf("build video request: %w", err))

		return
	}
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}
	logger.Info("opening video stream")
	resp, err := s.client.Do(req)
	if err != nil {
		fail(fmt.Errorf("request video stream: %w", err))

		return
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fail(fmt.Errorf("unexpected video response status: %s", resp.Status))

		return
	}

	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		fail(fmt.Errorf("parse video content type: %w", err))

		return
	}

	switch {
	case mediaType == "image/jpeg":
		img, err := jpeg.Decode(resp.Body)
		if err != nil {
			fail(fmt.Errorf("decode jpeg: %w", err))

			return
		}
		deliver(img)
	case strings.HasPrefix(mediaType, "multipart/"):
		boundary := params["boundary"]
		if boundary == "" {
			fail(fmt.Errorf("multipart video response without boundary"))

			return
		}
		s.readParts(ctx, multipart.NewReader(resp.Body, boundary), logger, deliver, fail)
	default:
		fail(fmt.Errorf("unsupported video content type: %q", mediaType))
	}
}

func (s *MJPEGSurface) readParts(ctx context.Context, mr *multipart.Reader, logger *slog.Logger, deliver func(image.Image), fail func(error)) {
	frames := 0
	for {
		part, err := mr.NextPart()
		if ctx.Err() != nil {
			return
		}
		if errors.Is(err, io.EOF) {
			fail(ErrStreamEnded)

			return
		}
		if err != nil {
			fail(fmt.Errorf("%w: %v", ErrStreamEnded, err))

			return
		}

		if ct := part.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/jpeg") {
			logger.Debug("skipping non-jpeg part", "content_type", ct)
			_ = part.Close()

			continue
		}

		img, err := jpeg.Decode(part)
		_ = part.Close()
		if err != nil {
			if frames == 0 {
				fail(fmt.Errorf("decode first frame: %w", err))

				return
			}
			logger.Debug("skipping undecodable frame", "frame", frames, "error", err)

			continue
		}
		frames++
		deliver(img)
	}
}
