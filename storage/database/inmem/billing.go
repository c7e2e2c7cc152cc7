package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/billing"
)

type chargeRepository struct {
	db *chargeTable
}

var _ billing.Repository = (*chargeRepository)(nil) // interface compliance check

func NewChargeRepository(db *DB) *chargeRepository {
	return &chargeRepository{db: db.charge}
}

func chargeKey(studentID, referenceMonth string) string {
	return studentID + "|" + referenceMonth
}

func (repo *chargeRepository) CreateCharge(ctx context.Context, chg billing.Charge, exec ...core.DBExecutor) (billing.Charge, bool, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	key := chargeKey(chg.StudentID, chg.ReferenceMonth)
	if _, ok := repo.db.byKey[key]; ok {
		return billing.Charge{}, false, nil
	}

	chg.ID = uuid.New().String()
	cp := chg
	repo.db.table[chg.ID] = &cp
	repo.db.byKey[key] = chg.ID
	return chg, true, nil
}

func (repo *chargeRepository) QueryCharges(ctx context.Context, filter *billing.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]billing.Charge, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	charges := make([]billing.Charge, 0, len(repo.db.table))
	for _, chg := range repo.db.table {
		if filter != nil {
			if filter.StudentID != "" && chg.StudentID != filter.StudentID {
				continue
			}
			if filter.GuardianID != "" && chg.GuardianID != filter.GuardianID {
				continue
			}
			if filter.ReferenceMonth != "" && chg.ReferenceMonth != filter.ReferenceMonth {
				continue
			}
			if filter.Status != "" && chg.Status != filter.Status {
				continue
			}
		}
		charges = append(charges, *chg)
	}
	sort.Slice(charges, func(i, j int) bool {
		if charges[i].CreatedAt.Equal(charges[j].CreatedAt) {
			return charges[i].ID < charges[j].ID
		}
		return charges[i].CreatedAt.After(charges[j].CreatedAt)
	})
	return charges, nil
}
