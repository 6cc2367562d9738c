package orchestration

import (
	"context"
	"sync"
)

// serialQueue выполняет задания строго по одному в порядке постановки.
// Очередь не ограничена: адресные мутации нельзя молча терять, а их темп
// задаёт пользователь. Это конкатенирующая дисциплина: новое задание никогда
// не отменяет и не обгоняет уже поставленное.
type serialQueue struct {
	mu   sync.Mutex
	jobs []func()
	wake chan struct{}
}

func newSerialQueue() *serialQueue {
	return &serialQueue{
		wake: make(chan struct{}, 1),
	}
}

// enqueue ставит задание в хвост очереди. Не блокирует вызывающую сторону.
func (q *serialQueue) enqueue(job func()) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// run обрабатывает очередь до отмены ctx. Каждое задание выполняется
// до конца, прежде чем начнётся следующее.
func (q *serialQueue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.wake:
		}

		for {
			q.mu.Lock()
			if len(q.jobs) == 0 {
				q.mu.Unlock()
				break
			}
			job := q.jobs[0]
			q.jobs = q.jobs[1:]
			q.mu.Unlock()

			job()
		}
	}
}

// pending возвращает число заданий в очереди (для тестов и health-проверок).
func (q *serialQueue) pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}
