// navigation доносит сигнал «перейти на экран», поднятый в глубине
// исходящего вызова (сессионный слой транспорта), до HTTP-ответа.
//
// На каждый входящий запрос middleware кладёт в контекст Recorder;
// Navigator записывает в него цель; writer ошибок читает её и отдаёт
// клиенту вместе с 401.
package navigation

import (
	"context"
	"sync"
)

type ctxKey struct{}

// Recorder хранит последнюю запрошенную цель навигации.
type Recorder struct {
	mu     sync.Mutex
	target string
}

func (r *Recorder) set(target string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.target = target
}

// Target: последняя цель; пустая строка, если навигации не было.
func (r *Recorder) Target() string {
	if r == nil {
		return ""
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	return r.target
}

// Into кладёт новый Recorder в контекст.
func Into(ctx context.Context) (context.Context, *Recorder) {
	rec := &Recorder{}
	return context.WithValue(ctx, ctxKey{}, rec), rec
}

// From достаёт Recorder из контекста; nil, если его нет.
func From(ctx context.Context) *Recorder {
	rec, _ := ctx.Value(ctxKey{}).(*Recorder)
	return rec
}

// Navigator записывает цель в Recorder контекста вызова. Вызовы вне
// HTTP-запроса (без Recorder) игнорируются.
type Navigator struct{}

func (Navigator) Navigate(ctx context.Context, target string) {
	if rec := From(ctx); rec != nil {
		rec.set(target)
	}
}
