package dyneq

import "sync"

// latencyNotifier reports latency changes to the host from its own
// goroutine. The audio goroutine posts into a one-slot channel and replaces
// a value the notifier has not picked up yet, so only the newest latency is
// delivered and posting never blocks.
type latencyNotifier struct {
	fn      func(samples int)
	updates chan int
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newLatencyNotifier(fn func(samples int)) *latencyNotifier {
	n := &latencyNotifier{
		fn:      fn,
		updates: make(chan int, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go n.run()

	return n
}

func (n *latencyNotifier) run() {
	defer close(n.done)

	for {
		select {
		case <-n.stop:
			return
		case samples := <-n.updates:
			n.fn(samples)
		}
	}
}

// post queues samples, dropping an undelivered older value. Single producer.
func (n *latencyNotifier) post(samples int) {
	for {
		select {
		case n.updates <- samples:
			return
		default:
		}

		select {
		case <-n.updates:
		default:
		}
	}
}

// close stops the goroutine and waits for it. Safe to call twice.
func (n *latencyNotifier) close() {
	n.once.Do(func() {
		close(n.stop)
		<-n.done
	})
}
