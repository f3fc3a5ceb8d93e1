package logger

import (
	"fmt"
	"time"
)

// Sink receives one diagnostic line per log event.
type Sink func(message string)

// sinkLogger forwards only the message text of each event to a Sink.
// Structured fields are accepted and dropped; the client's messages are self-describing.
type sinkLogger struct {
	sink Sink
}

// NewSink adapts a plain message callback into a Logger.
// A nil sink yields a silent logger.
func NewSink(sink Sink) Logger {
	if sink == nil {
		return Nop()
	}
	return &sinkLogger{sink: sink}
}

func (s *sinkLogger) Info() LogEvent  { return &sinkEvent{sink: s.sink} }
func (s *sinkLogger) Error() LogEvent { return &sinkEvent{sink: s.sink} }
func (s *sinkLogger) Debug() LogEvent { return &sinkEvent{sink: s.sink} }
func (s *sinkLogger) Warn() LogEvent  { return &sinkEvent{sink: s.sink} }

func (s *sinkLogger) WithFields(map[string]any) Logger { return s }

type sinkEvent struct {
	sink Sink
}

func (e *sinkEvent) Msg(msg string)                  { e.sink(msg) }
func (e *sinkEvent) Msgf(format string, args ...any) { e.sink(fmt.Sprintf(format, args...)) }
func (e *sinkEvent) Err(error) LogEvent              { return e }
func (e *sinkEvent) Str(string, string) LogEvent     { return e }
func (e *sinkEvent) Int(string, int) LogEvent        { return e }
func (e *sinkEvent) Int64(string, int64) LogEvent    { return e }
func (e *sinkEvent) Dur(string, time.Duration) LogEvent {
	return e
}
func (e *sinkEvent) Interface(string, any) LogEvent { return e }
func (e *sinkEvent) Bytes(string, []byte) LogEvent  { return e }
