package service

import (
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

// Классы ошибок бизнес-логики. Транспортный слой сопоставляет их с HTTP-статусами,
// всё остальное считается внутренней ошибкой.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("empty cart")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrConflict          = errors.New("conflict")
)

// Error: ошибка бизнес-логики с сообщением, которое можно показать клиенту.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

// InsufficientStockError сообщает, какого товара не хватило при оформлении заказа.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
}

func (e *InsufficientStockError) Error() string {
	return "Insufficient stock for " + e.ProductName
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// PublicMessage возвращает сообщение для клиента, если ошибка относится к бизнес-логике.
func PublicMessage(err error) (string, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Message, true
	}
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return stockErr.Error(), true
	}
	return "", false
}

// validID проверяет формат идентификатора; невалидный id равносилен отсутствующей записи
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// rollback откатывает транзакцию, ошибка отката только логируется
func rollback(logger *slog.Logger, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		logger.Error("transaction rollback failed", slog.Any("error", err))
	}
}
