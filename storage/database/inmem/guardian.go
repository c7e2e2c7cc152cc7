package inmemdb

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/guardian"
)

type guardianRepository struct {
	db *guardianTable
}

var _ guardian.Repository = (*guardianRepository)(nil) // interface compliance check

func NewGuardianRepository(db *DB) *guardianRepository {
	return &guardianRepository{db: db.guardian}
}

func cloneGuardian(grd guardian.Guardian) guardian.Guardian {
	grd.StudentIDs = append([]string(nil), grd.StudentIDs...)
	return grd
}

func (repo *guardianRepository) GetGuardianByID(ctx context.Context, id string, exec ...core.DBExecutor) (guardian.Guardian, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if grd, ok := repo.db.table[id]; ok {
		return cloneGuardian(*grd), nil
	}
	return guardian.Guardian{}, guardian.ErrNotFound
}

func (repo *guardianRepository) GetGuardianByEmail(ctx context.Context, email string, exec ...core.DBExecutor) (guardian.Guardian, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, grd := range repo.db.table {
		if grd.Email == email {
			return cloneGuardian(*grd), nil
		}
	}
	return guardian.Guardian{}, guardian.ErrNotFound
}

func (repo *guardianRepository) CreateGuardian(ctx context.Context, grd guardian.Guardian, exec ...core.DBExecutor) (guardian.Guardian, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	grd.ID = uuid.New().String()
	cp := cloneGuardian(grd)
	repo.db.table[grd.ID] = &cp
	return grd, nil
}

func (repo *guardianRepository) UpdateGuardianContact(ctx context.Context, id, name, phone string, exec ...core.DBExecutor) (guardian.Guardian, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	grd, ok := repo.db.table[id]
	if !ok {
		return guardian.Guardian{}, guardian.ErrNotFound
	}
	grd.Name = name
	grd.Phone = phone
	grd.UpdatedAt = time.Now().UTC()
	return cloneGuardian(*grd), nil
}

func (repo *guardianRepository) QueryGuardians(ctx context.Context, filter *guardian.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]guardian.Guardian, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	grds := make([]guardian.Guardian, 0, len(repo.db.table))
	for _, grd := range repo.db.table {
		if filter != nil {
			if filter.Search != "" && !matchesSearch(*grd, filter.Search) {
				continue
			}
			if filter.Role != "" && grd.Role != filter.Role {
				continue
			}
			if filter.IsActive != nil && grd.IsActive != *filter.IsActive {
				continue
			}
		}
		grds = append(grds, cloneGuardian(*grd))
	}
	return grds, nil
}

func matchesSearch(grd guardian.Guardian, search string) bool {
	search = strings.ToLower(search)
	for _, val := range []string{grd.Name, grd.Email, grd.Phone} {
		if strings.Contains(strings.ToLower(val), search) {
			return true
		}
	}
	return false
}

func (repo *guardianRepository) AddStudentLink(ctx context.Context, guardianID, studentID string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	grd, ok := repo.db.table[guardianID]
	if !ok {
		return guardian.ErrNotFound
	}
	for _, id := range grd.StudentIDs {
		if id == studentID {
			return nil // already linked
		}
	}
	grd.StudentIDs = append(grd.StudentIDs, studentID)
	grd.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *guardianRepository) RemoveStudentLink(ctx context.Context, guardianID, studentID string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	grd, ok := repo.db.table[guardianID]
	if !ok {
		return guardian.ErrNotFound
	}
	ids := grd.StudentIDs[:0]
	for _, id := range grd.StudentIDs {
		if id != studentID {
			ids = append(ids, id)
		}
	}
	grd.StudentIDs = ids
	grd.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *guardianRepository) SetGuardianPassword(ctx context.Context, grd guardian.Guardian, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[grd.ID]
	if !ok {
		return guardian.ErrNotFound
	}
	orig.PasswordHash = grd.PasswordHash
	orig.UpdatedAt = grd.UpdatedAt
	return nil
}

func (repo *guardianRepository) SetLastLogin(ctx context.Context, grd guardian.Guardian, exec ...core.DBExecutor) (guardian.Guardian, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[grd.ID]
	if !ok {
		return guardian.Guardian{}, guardian.ErrNotFound
	}
	orig.LastLogin = grd.LastLogin
	return cloneGuardian(*orig), nil
}
