package eventbus

import (
	"reflect"
	"sync"

	"github.com/sirupsen/logrus"
)

// EventBus delivers published events synchronously to every subscriber
// whose handler signature matches the published arguments. Publishing is
// fire-and-forget: a panicking handler is logged and never propagates to
// the publisher.
type EventBus interface {
	Publish(args ...interface{})
	Subscribe(handler interface{})
	Unsubscribe(handler interface{})
	Clear()
	SubscribersCount() int
}

type publisherImpl struct {
	log *logrus.Logger

	mu          sync.RWMutex
	subscribers []reflect.Value
}

func NewEventPublisher(log *logrus.Logger) EventBus {
	return &publisherImpl{log: log}
}

func matches(handlerType reflect.Type, args []interface{}) bool {
	if handlerType.NumIn() != len(args) || handlerType.IsVariadic() {
		return false
	}
	for i, arg := range args {
		in := handlerType.In(i)
		if arg == nil {
			if in.Kind() != reflect.Interface && in.Kind() != reflect.Ptr {
				return false
			}
			continue
		}
		argType := reflect.TypeOf(arg)
		if in.Kind() == reflect.Interface {
			if !argType.Implements(in) {
				return false
			}
			continue
		}
		if !argType.AssignableTo(in) {
			return false
		}
	}
	return true
}

func (p *publisherImpl) Publish(args ...interface{}) {
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		in[i] = reflect.ValueOf(arg)
	}

	p.mu.RLock()
	handlers := make([]reflect.Value, len(p.subscribers))
	copy(handlers, p.subscribers)
	p.mu.RUnlock()

	delivered := false
	for _, handler := range handlers {
		if !matches(handler.Type(), args) {
			continue
		}
		delivered = true
		p.call(handler, in)
	}

	if !delivered && p.log != nil {
		p.log.Warnf("eventbus: no subscribers matched event %v", argTypes(args))
	}
}

func (p *publisherImpl) call(handler reflect.Value, in []reflect.Value) {
	defer func() {
		if r := recover(); r != nil && p.log != nil {
			p.log.Errorf("eventbus: handler %s panicked: %v", handler.Type(), r)
		}
	}()
	handler.Call(in)
}

func argTypes(args []interface{}) []string {
	types := make([]string, len(args))
	for i, arg := range args {
		if arg == nil {
			types[i] = "<nil>"
			continue
		}
		types[i] = reflect.TypeOf(arg).String()
	}
	return types
}

func (p *publisherImpl) Subscribe(handler interface{}) {
	if reflect.TypeOf(handler).Kind() != reflect.Func {
		panic("eventbus: handler must be a function")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = append(p.subscribers, reflect.ValueOf(handler))
}

func (p *publisherImpl) Unsubscribe(handler interface{}) {
	target := reflect.ValueOf(handler)
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, subscriber := range p.subscribers {
		if subscriber.Pointer() == target.Pointer() {
			p.subscribers = append(p.subscribers[:i], p.subscribers[i+1:]...)
			return
		}
	}
}

func (p *publisherImpl) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribers = nil
}

func (p *publisherImpl) SubscribersCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.subscribers)
}
