package service

import "github.com/linemk/storefront/internal/domain/models"

// StatusPolicy решает, допустим ли переход заказа из одного статуса в другой.
type StatusPolicy interface {
	Allowed(from, to models.OrderStatus) bool
}

// NewStatusPolicy возвращает свободную политику (любой статус в любой) или,
// при strict, политику с таблицей переходов.
func NewStatusPolicy(strict bool) StatusPolicy {
	if strict {
		return transitionTable{
			models.StatusPending:    {models.StatusProcessing, models.StatusCancelled},
			models.StatusProcessing: {models.StatusShipped, models.StatusCancelled},
			models.StatusShipped:    {models.StatusDelivered, models.StatusCancelled},
		}
	}
	return anyTransition{}
}

type anyTransition struct{}

func (anyTransition) Allowed(_, _ models.OrderStatus) bool {
	return true
}

// transitionTable: delivered и cancelled терминальные, поэтому ключей для них нет
type transitionTable map[models.OrderStatus][]models.OrderStatus

func (t transitionTable) Allowed(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, next := range t[from] {
		if next == to {
			return true
		}
	}
	return false
}
