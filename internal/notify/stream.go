package notify

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"
)

const (
	DefaultHeartbeat = 30 * time.Second
	streamBuffer     = 64
)

var (
	ErrStreamClosed         = errors.New("stream closed")
	ErrStreamFull           = errors.New("stream buffer full")
	ErrStreamingUnsupported = errors.New("response writer does not support flushing")
)

// Stream is a Server-Sent-Events Conn. Writes are queued and flushed by Run,
// which also emits ping frames so idle proxies keep the connection open.
type Stream struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	userId    int
	heartbeat time.Duration
	log       *log.Logger
	send      chan []byte
	stop      chan struct{}
	closeOnce sync.Once
}

func NewStream(w http.ResponseWriter, userId int, heartbeat time.Duration, logger *log.Logger) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}

	return &Stream{
		w:         w,
		flusher:   flusher,
		userId:    userId,
		heartbeat: heartbeat,
		log:       logger,
		send:      make(chan []byte, streamBuffer),
		stop:      make(chan struct{}),
	}, nil
}

// Write queues one encoded frame without blocking.
func (s *Stream) Write(frame []byte) error {
	select {
	case <-s.stop:
		return ErrStreamClosed
	default:
	}

	select {
	case s.send <- frame:
		return nil
	case <-s.stop:
		return ErrStreamClosed
	default:
		return ErrStreamFull
	}
}

func (s *Stream) Close() error {
	s.closeOnce.Do(func() { close(s.stop) })
	return nil
}

// Run writes queued frames until ctx is done, the stream is closed or a write
// fails.
func (s *Stream) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.heartbeat)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	ping, err := SSEFrame(PingFrame())
	if err != nil {
		return err
	}

	for {
		select {
		case frame := <-s.send:
			if err := s.flush(frame); err != nil {
				return err
			}
		case <-ticker.C:
			if err := s.flush(ping); err != nil {
				return err
			}
		case <-s.stop:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}

func (s *Stream) flush(frame []byte) error {
	if _, err := s.w.Write(frame); err != nil {
		s.log.Printf("stream write for user %d: %v", s.userId, err)
		return err
	}
	s.flusher.Flush()
	return nil
}
