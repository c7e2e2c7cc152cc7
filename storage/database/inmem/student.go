package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/chuteinicial/backend/core"
	"github.com/chuteinicial/backend/core/student"
)

type studentRepository struct {
	db *studentTable
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db.student}
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	std.ID = uuid.New().String()
	cp := std
	repo.db.table[std.ID] = &cp
	return std, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if std, ok := repo.db.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) QueryStudents(ctx context.Context, filter *student.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]student.Student, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	students := make([]student.Student, 0, len(repo.db.table))
	for _, std := range repo.db.table {
		if filter != nil {
			if filter.Category != "" && std.Category != filter.Category {
				continue
			}
			if filter.IsActive != nil && std.IsActive != *filter.IsActive {
				continue
			}
			if filter.GuardianID != "" && std.GuardianID != filter.GuardianID {
				continue
			}
		}
		students = append(students, *std)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student, isActive *bool, exec ...core.DBExecutor) (student.Student, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[std.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	orig.Name = std.Name
	orig.DateOfBirth = std.DateOfBirth
	orig.Category = std.Category
	orig.JerseyNumber = std.JerseyNumber
	if isActive != nil {
		orig.IsActive = *isActive
	}
	orig.UpdatedAt = std.UpdatedAt
	return *orig, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.table, id)
	delete(repo.db.attendance, id)
	return nil
}

func (repo *studentRepository) UpsertAttendance(ctx context.Context, studentID string, att student.Attendance, exec ...core.DBExecutor) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	entries, ok := repo.db.attendance[studentID]
	if !ok {
		entries = make(map[string]bool)
		repo.db.attendance[studentID] = entries
	}
	entries[att.Date] = att.Present
	return nil
}

func (repo *studentRepository) QueryAttendance(ctx context.Context, studentID string, exec ...core.DBExecutor) ([]student.Attendance, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	entries := repo.db.attendance[studentID]
	atts := make([]student.Attendance, 0, len(entries))
	for date, present := range entries {
		atts = append(atts, student.Attendance{Date: date, Present: present})
	}
	// ISO dates sort chronologically as strings
	sort.Slice(atts, func(i, j int) bool { return atts[i].Date > atts[j].Date })
	return atts, nil
}
