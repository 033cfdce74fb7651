package extract

import "github.com/RayLabsHQ/formatfuse/pkg/progress"

// Event is one message from an extraction worker. Progress events carry
// an update; the terminal event carries either Result or Err, after
// which the channel is closed.
type Event struct {
	Progress *progress.Update
	Result   *Result
	Err      error
}

// Start runs the pipeline in its own goroutine and returns its event
// stream. The caller communicates with the worker only through that
// channel; no state is shared. Receive until the channel closes: the
// terminal event always arrives, while progress events are dropped
// rather than queued when the consumer lags.
func Start(data []byte, filename string) <-chan Event {
	events := make(chan Event, 16)
	updates := make(chan progress.Update, 16)

	go func() {
		defer close(events)

		forwarded := make(chan struct{})
		go func() {
			defer close(forwarded)
			for u := range updates {
				select {
				case events <- Event{Progress: &u}:
				default:
				}
			}
		}()

		res, err := Extract(data, filename, Options{Progress: updates})
		close(updates)
		<-forwarded

		if err != nil {
			events <- Event{Err: err}
			return
		}
		events <- Event{Result: res}
	}()
	return events
}
