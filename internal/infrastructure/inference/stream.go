package inference

import (
	"time"

	domaininference "jan-chat/internal/domain/inference"
	"jan-chat/internal/infrastructure/metrics"
	chatclient "jan-chat/internal/utils/httpclients/chat"
)

// observedStream records first-fragment latency and closes the provider call
// when the stream ends.
type observedStream struct {
	*chatclient.ChunkStream
	call      *providerCall
	fragments int
}

var _ domaininference.Stream = (*observedStream)(nil)

func newObservedStream(stream *chatclient.ChunkStream, call *providerCall) *observedStream {
	return &observedStream{ChunkStream: stream, call: call}
}

func (s *observedStream) Next() bool {
	if s.ChunkStream.Next() {
		if s.fragments == 0 {
			metrics.RecordFirstFragment(s.call.provider, s.call.model, time.Since(s.call.started).Seconds())
		}
		s.fragments++
		return true
	}
	s.call.end(s.Err(), usageFromOpenAI(s.Usage()))
	return false
}

func (s *observedStream) Close() error {
	s.call.end(s.Err(), usageFromOpenAI(s.Usage()))
	return s.ChunkStream.Close()
}
