package interceptors

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
)

// attemptState: фаза обработки одного логического вызова.
//
//	Sending → Done                      (не 401 или транспортная ошибка)
//	Sending → Refreshing → Done         (обновление не удалось)
//	Sending → Refreshing → Retrying → Done
//
// Из Retrying возврата в Refreshing нет: повтор выполняется не более одного раза.
type attemptState int

const (
	stateSending attemptState = iota
	stateRefreshing
	stateRetrying
	stateDone
)

func (s attemptState) String() string {
	switch s {
	case stateSending:
		return "sending"
	case stateRefreshing:
		return "refreshing"
	case stateRetrying:
		return "retrying"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("attemptState(%d)", int(s))
	}
}

var transitions = map[attemptState][]attemptState{
	stateSending:    {stateRefreshing, stateDone},
	stateRefreshing: {stateRetrying, stateDone},
	stateRetrying:   {stateDone},
}

func canTransition(from, to attemptState) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// attempt - запись о логическом вызове: исходный запрос и способ
// переиграть его тело при повторе.
type attempt struct {
	state   attemptState
	orig    *http.Request
	getBody func() (io.ReadCloser, error)
}

// newAttempt готовит тело к повторной отправке: использует GetBody,
// а если его нет: вычитывает тело в память.
func newAttempt(req *http.Request) (*attempt, error) {
	a := &attempt{state: stateSending, orig: req}

	switch {
	case req.Body == nil || req.Body == http.NoBody:
	case req.GetBody != nil:
		// Каждая отправка берёт тело из GetBody; исходное закрываем сразу.
		_ = req.Body.Close()
		a.getBody = req.GetBody
	default:
		buf, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("interceptors: buffer request body: %w", err)
		}
		a.getBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(buf)), nil
		}
	}

	return a, nil
}

func (a *attempt) to(next attemptState) {
	if !canTransition(a.state, next) {
		panic(fmt.Sprintf("interceptors: illegal attempt transition %s -> %s", a.state, next))
	}
	a.state = next
}

// build возвращает копию исходного запроса со свежим телом.
// Заголовки копии не разделяются с оригиналом.
func (a *attempt) build() (*http.Request, error) {
	out := a.orig.Clone(a.orig.Context())
	if a.getBody != nil {
		body, err := a.getBody()
		if err != nil {
			return nil, fmt.Errorf("interceptors: replay request body: %w", err)
		}
		out.Body = body
	}
	return out, nil
}
