package repositories

import (
	"warrantyhub/internal/database"
)

type Repository struct {
	Machine   MachineRepository
	Sale      SaleRepository
	ActionLog ActionLogRepository
}

func New(db database.DB) Repository {
	return Repository{
		Machine:   NewMachineRepository(),
		Sale:      NewSaleRepository(),
		ActionLog: NewActionLogRepository(db.Cache.Audit), // stats are cached in the audit index
	}
}
