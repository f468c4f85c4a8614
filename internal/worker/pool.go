package worker

import (
	"context"
	"sort"
	"sync"
)

// Task is a unit of work run by a Pool
type Task[T any] func(ctx context.Context) (T, error)

// Result is the outcome of one Task. Index is the submission order.
type Result[T any] struct {
	Index int
	Value T
	Err   error
}

type indexedTask[T any] struct {
	index int
	run   Task[T]
}

// Pool runs tasks on a fixed number of goroutines and gathers their results.
// Submit and Wait must be called from the same goroutine.
type Pool[T any] struct {
	workers    int
	tasks      chan indexedTask[T]
	results    chan Result[T]
	collected  []Result[T]
	wg         sync.WaitGroup
	collectWG  sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	next       int
	startOnce  sync.Once
	closeOnce  sync.Once
}

// NewPool creates a pool bound to ctx. Cancelling ctx stops workers after
// their current task.
func NewPool[T any](ctx context.Context, workers int) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)

	return &Pool[T]{
		workers:    workers,
		tasks:      make(chan indexedTask[T], workers*2),
		results:    make(chan Result[T], workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// Start launches the workers and the result collector
func (p *Pool[T]) Start() {
	p.startOnce.Do(func() {
		p.collectWG.Add(1)
		go p.collect()

		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			value, err := task.run(p.ctx)
			p.results <- Result[T]{Index: task.index, Value: value, Err: err}
		}
	}
}

func (p *Pool[T]) collect() {
	defer p.collectWG.Done()
	for r := range p.results {
		p.collected = append(p.collected, r)
	}
}

// Submit queues a task. It returns false if the pool was cancelled first.
func (p *Pool[T]) Submit(task Task[T]) bool {
	if p.ctx.Err() != nil {
		return false
	}
	t := indexedTask[T]{index: p.next, run: task}
	select {
	case <-p.ctx.Done():
		return false
	case p.tasks <- t:
		p.next++
		return true
	}
}

// Wait closes the queue, waits for running tasks and returns results in
// submission order. Tasks skipped because of cancellation have no result.
func (p *Pool[T]) Wait() []Result[T] {
	p.closeOnce.Do(func() { close(p.tasks) })
	p.wg.Wait()
	close(p.results)
	p.collectWG.Wait()
	p.cancelFunc()

	sort.Slice(p.collected, func(i, j int) bool {
		return p.collected[i].Index < p.collected[j].Index
	})
	return p.collected
}

// Shutdown cancels the pool and waits for workers to exit
func (p *Pool[T]) Shutdown() []Result[T] {
	p.cancelFunc()
	return p.Wait()
}
