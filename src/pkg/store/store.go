// Package store owns the mindmap state and serialises every change to it.
package store

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"entropy/local-app/src/pkg/event"
	"entropy/local-app/src/pkg/log"
	"entropy/local-app/src/pkg/model"
	"entropy/local-app/src/pkg/respond"
	"entropy/local-app/src/pkg/util"
)

// Options configures a Store.
type Options struct {
	// Responder answers thread messages. Defaults to the template responder.
	Responder respond.Responder
	// StickyResponder answers sticky chats. Defaults to the random responder.
	StickyResponder respond.Responder
	SystemPrompt    string
	MindmapName     string
	Events          *event.EventManager
	Logger          *log.Logger
	Now             func() time.Time
	Seed            int64
}

// Store is the single writer of the mindmap state. Commands are queued to one
// executor goroutine; replies are generated on the caller's goroutine between
// two commands, so other commands can run while a reply is pending.
type Store struct {
	state           State
	queue           chan execution
	closed          chan struct{}
	closeOnce       sync.Once
	responder       respond.Responder
	stickyResponder respond.Responder
	systemPrompt    string
	mindmapName     string
	events          *event.EventManager
	logger          *log.Logger
	now             func() time.Time

	rndMu sync.Mutex
	rnd   *rand.Rand
}

// execution is a function run on the executor goroutine
type execution struct {
	run  func()
	done chan struct{}
}

// NewStore starts the executor goroutine. Call Close to stop it.
func NewStore(opts Options) *Store {
	if opts.Responder == nil {
		opts.Responder = respond.NewTemplateResponder(time.Second)
	}
	if opts.StickyResponder == nil {
		opts.StickyResponder = respond.NewRandomResponder(time.Second)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	s := &Store{
		state:           NewState(),
		queue:           make(chan execution),
		closed:          make(chan struct{}),
		responder:       opts.Responder,
		stickyResponder: opts.StickyResponder,
		systemPrompt:    opts.SystemPrompt,
		mindmapName:     opts.MindmapName,
		events:          opts.Events,
		logger:          opts.Logger,
		now:             opts.Now,
		rnd:             rand.New(rand.NewSource(opts.Seed)),
	}
	go s.executor()
	return s
}

// executor runs queued functions until the store is closed
func (s *Store) executor() {
	for {
		select {
		case ex := <-s.queue:
			ex.run()
			close(ex.done)
		case <-s.closed:
			return
		}
	}
}

// Close stops the executor. Later calls fail with ErrClosed.
func (s *Store) Close() {
	s.closeOnce.Do(func() { close(s.closed) })
}

// exec runs fn on the executor goroutine and waits for it.
func (s *Store) exec(ctx context.Context, fn func()) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}

	ex := execution{run: fn, done: make(chan struct{})}
	select {
	case s.queue <- ex:
	case <-s.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-ex.done
	return nil
}

// dispatch reduces cmd into the owned state. read, when given, observes the
// new state on the executor goroutine.
func (s *Store) dispatch(ctx context.Context, cmd Command, read func(State)) error {
	var (
		events []event.Event
		err    error
	)
	if execErr := s.exec(ctx, func() {
		next, evs, rerr := Reduce(s.state, cmd)
		if rerr != nil {
			err = rerr
			return
		}
		s.state = next
		events = evs
		if read != nil {
			read(next)
		}
		// Published on the executor so subscribers see commands in apply order.
		if s.events != nil {
			for _, e := range evs {
				s.events.Publish(e)
			}
		}
	}); execErr != nil {
		return execErr
	}

	if err != nil {
		s.logger.Debug(ctx, "Command rejected", log.Fields{"command": fmt.Sprintf("%T", cmd), "error": err})
		return err
	}
	s.logger.Debug(ctx, "Command applied", log.Fields{"command": fmt.Sprintf("%T", cmd), "events": len(events)})
	return nil
}

// read runs fn against the current state on the executor goroutine.
func (s *Store) read(fn func(State) error) error {
	var err error
	if execErr := s.exec(context.Background(), func() { err = fn(s.state) }); execErr != nil {
		return execErr
	}
	return err
}

func (s *Store) message(role model.Role, content string) model.Message {
	return model.Message{
		ID:        util.GenerateID(util.PrefixMessage),
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
}

// randomPosition picks a spot inside the default placement area.
func (s *Store) randomPosition() model.Position {
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return model.Position{X: 100 + s.rnd.Float64()*600, Y: 100 + s.rnd.Float64()*400}
}

// recordError stores err in the UI state so views can show it.
func (s *Store) recordError(err error) {
	if err == nil {
		return
	}
	s.logger.Warn(context.Background(), "Store operation failed", log.Fields{"error": err})
	_ = s.dispatch(context.Background(), SetError{Err: err.Error()}, nil)
}
