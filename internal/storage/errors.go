package storage

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrProductNotFound   = errors.New("product not found")
	ErrCartNotFound      = errors.New("cart not found")
	ErrCartItemNotFound  = errors.New("cart item not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrVersionConflict   = errors.New("version conflict")
	// ErrLocked возвращается, когда строку держит блокировка другой транзакции (NOWAIT)
	// или postgres прервал транзакцию из-за взаимной блокировки
	ErrLocked = errors.New("resource is locked")
)

// коды ошибок postgres
const (
	pqLockNotAvailable = "55P03"
	pqDeadlockDetected = "40P01"
)

// isLockError проверяет, что запрос не смог взять блокировку
func isLockError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqLockNotAvailable || pqErr.Code == pqDeadlockDetected
	}
	return false
}
