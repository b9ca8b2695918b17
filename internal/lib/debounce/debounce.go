// Package debounce реализует отложенный по ключу вызов: серия Trigger с одним
// ключом в пределах задержки приводит к одному вызову последней функции.
package debounce

import (
	"sync"
	"time"
)

type entry struct {
	timer *time.Timer
	fn    func()
}

// Debouncer хранит ожидающие вызовы по ключам.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	pending map[string]*entry
	stopped bool
}

// New создаёт Debouncer с задержкой delay.
func New(delay time.Duration) *Debouncer {
	return &Debouncer{
		delay:   delay,
		pending: make(map[string]*entry),
	}
}

// Trigger планирует fn для key через delay, сбрасывая ранее запланированный вызов.
// После Stop вызовы игнорируются.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	if e, ok := d.pending[key]; ok && e.timer.Stop() {
		e.fn = fn
		e.timer.Reset(d.delay)
		return
	}

	e := &entry{fn: fn}
	e.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.pending[key] != e {
			d.mu.Unlock()
			return
		}
		delete(d.pending, key)
		run := e.fn
		d.mu.Unlock()
		run()
	})
	d.pending[key] = e
}

// Pending возвращает количество ожидающих ключей.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Flush немедленно выполняет все ожидающие вызовы.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	fns := make([]func(), 0, len(d.pending))
	for key, e := range d.pending {
		// таймер, сработавший до захвата mu, не найдёт себя в pending и fn не вызовет
		e.timer.Stop()
		fns = append(fns, e.fn)
		delete(d.pending, key)
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Stop выполняет ожидающие вызовы и запрещает новые.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
	d.Flush()
}
