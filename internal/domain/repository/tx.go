package repository

import "context"

// Repos agrupa los repositorios atados a una misma transacción.
type Repos struct {
	Stocks       StockRepository
	Products     ProductRepository
	Warehouses   WarehouseRepository
	Brands       BrandRepository
	CostCenters  CostCenterRepository
	Users        UserRepository
	Grants       GrantRepository
	Transactions TransactionRepository
	AuditLogs    AuditLogRepository
}

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error no queda nada persistido.
type TxRunner interface {
	Run(ctx context.Context, fn func(r Repos) error) error
}
