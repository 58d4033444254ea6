// Package queue funnels image requests through a fixed number of workers.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/charmbracelet/log"

	"mirai/pkg/imaging"
	"mirai/pkg/utils"
)

var (
	ErrFull    = errors.New("image queue is full")
	ErrStopped = errors.New("image queue is stopped")
)

// Queue is an imaging.Generator that serializes calls to the wrapped generator.
type Queue struct {
	gen     imaging.Generator
	workers int
	items   chan *Item
	stop    chan struct{}
	once    sync.Once
	wg      sync.WaitGroup

	// mu orders Add against Stop so nothing is enqueued after the final drain.
	mu      sync.RWMutex
	stopped bool
}

type Item struct {
	ctx      context.Context
	Prompt   string
	Options  imaging.Options
	Response chan []byte
	Error    chan error
}

func New(gen imaging.Generator, workers, size int) *Queue {
	return &Queue{
		gen:     gen,
		workers: max(workers, 1),
		items:   make(chan *Item, max(size, 1)),
		stop:    make(chan struct{}),
	}
}

func (q *Queue) Start() {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.processLoop(i)
	}
}

// Stop ends the workers once the item in hand is done. Queued items fail with ErrStopped.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()

	q.once.Do(func() { close(q.stop) })
	q.wg.Wait()
	for {
		select {
		case item := <-q.items:
			item.Error <- ErrStopped
		default:
			return
		}
	}
}

// Add enqueues a request without waiting for it.
func (q *Queue) Add(ctx context.Context, prompt string, opts imaging.Options) (chan []byte, chan error, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.stopped {
		return nil, nil, ErrStopped
	}

	item := &Item{
		ctx:      ctx,
		Prompt:   prompt,
		Options:  opts,
		Response: make(chan []byte, 1),
		Error:    make(chan error, 1),
	}
	select {
	case q.items <- item:
		return item.Response, item.Error, nil
	default:
		return nil, nil, ErrFull
	}
}

// Generate enqueues a request and waits for its image.
func (q *Queue) Generate(ctx context.Context, prompt string, opts imaging.Options) ([]byte, error) {
	respCh, errCh, err := q.Add(ctx, prompt, opts)
	if err != nil {
		return nil, err
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case err := <-errCh:
		return nil, err
	case img := <-respCh:
		return img, nil
	}
}

func (q *Queue) processLoop(worker int) {
	defer q.wg.Done()
	log.Debug("image queue worker started", "worker", worker)
	for {
		select {
		case <-q.stop:
			log.Debug("image queue worker stopped", "worker", worker)
			return
		case item := <-q.items:
			q.processItem(item)
		}
	}
}

func (q *Queue) processItem(item *Item) {
	if err := item.ctx.Err(); err != nil {
		item.Error <- err
		return
	}
	log.Info("generating image", "prompt", utils.LimitStr(item.Prompt, 50))
	img, err := q.gen.Generate(item.ctx, item.Prompt, item.Options)
	if err != nil {
		log.Warn("image generation failed", "err", err)
		item.Error <- err
		return
	}
	item.Response <- img
}
