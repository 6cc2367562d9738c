package store

import (
	"sync"

	log "github.com/sirupsen/logrus"
)

// Event — единица изменения состояния. Конкретные события объявлены в events.go.
type Event interface {
	// EventType возвращает стабильное имя события для логов и метрик.
	EventType() string
}

// Listener получает событие после того, как все reducers его применили.
// Listener может диспатчить новые события: они встают в хвост очереди.
type Listener func(Event)

// Dispatcher — единственный путь записи в stores. События применяются строго
// в порядке отправки (FIFO); вложенные Dispatch из reducers/listeners не
// рекурсируют, а дописываются в очередь текущего прогона.
type Dispatcher struct {
	mu        sync.Mutex
	queue     []Event
	draining  bool
	reducers  []func(Event)
	listeners []Listener
	logger    *log.Entry
}

// NewDispatcher создаёт диспетчер событий.
func NewDispatcher(logger *log.Entry) *Dispatcher {
	if logger == nil {
		logger = log.New().WithField("component", "dispatcher")
	}
	return &Dispatcher{logger: logger}
}

// RegisterReducer добавляет reducer. Reducers вызываются до listeners,
// поэтому listener всегда видит уже обновлённое состояние.
func (d *Dispatcher) RegisterReducer(fn func(Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reducers = append(d.reducers, fn)
}

// Subscribe добавляет listener, получающий каждое событие после редукции.
func (d *Dispatcher) Subscribe(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// Dispatch ставит событие в очередь и, если прогон ещё не идёт, выполняет
// очередь до опустошения. Горутина, начавшая прогон, обрабатывает и события,
// добавленные другими горутинами за время прогона.
func (d *Dispatcher) Dispatch(ev Event) {
	if ev == nil {
		return
	}

	d.mu.Lock()
	d.queue = append(d.queue, ev)
	if d.draining {
		d.mu.Unlock()
		return
	}
	d.draining = true

	for len(d.queue) > 0 {
		next := d.queue[0]
		d.queue = d.queue[1:]
		reducers := d.reducers
		listeners := d.listeners
		d.mu.Unlock()

		d.logger.WithField("event", next.EventType()).Debug("dispatching event")
		for _, r := range reducers {
			r(next)
		}
		for _, l := range listeners {
			l(next)
		}

		d.mu.Lock()
	}

	d.draining = false
	d.mu.Unlock()
}
