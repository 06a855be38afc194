// Package apperr описывает таксономию ошибок сервиса сообщений.
package apperr

import (
	"github.com/pkg/errors"
)

// Kind – категория ошибки, определяющая HTTP статус и событие error в сокете
type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindBadRequest
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindConflict:
		return "conflict"
	case KindBadRequest:
		return "bad_request"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

// Error – ошибка с категорией и ключом перевода для пользовательского сообщения
type Error struct {
	Kind Kind
	Key  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Kind.String() + ": " + e.Key + ": " + e.Err.Error()
	}
	return e.Kind.String() + ": " + e.Key
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, key string) *Error {
	return &Error{Kind: kind, Key: key}
}

func NotFound(key string) *Error     { return New(KindNotFound, key) }
func Forbidden(key string) *Error    { return New(KindForbidden, key) }
func Conflict(key string) *Error     { return New(KindConflict, key) }
func BadRequest(key string) *Error   { return New(KindBadRequest, key) }
func Unauthorized(key string) *Error { return New(KindUnauthorized, key) }

// Internal оборачивает непредвиденную ошибку хранилища
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Key: KeyInternal, Err: err}
}

// Wrap добавляет контекст к ошибке, сохраняя категорию
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, message)
}

// As извлекает *Error из цепочки
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf возвращает категорию ошибки; всё неизвестное считается внутренней ошибкой
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// Is проверяет категорию ошибки
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// KeyOf возвращает ключ перевода ошибки
func KeyOf(err error) string {
	if e, ok := As(err); ok {
		return e.Key
	}
	return KeyInternal
}
