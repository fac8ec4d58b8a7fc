package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/live"
	"github.com/trezcool/bursar/core/slip"
	"github.com/trezcool/bursar/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

// detachStudent copies the ledger map so that stored and returned students never share it.
func detachStudent(s student.Student) student.Student {
	s.Ledger = s.Ledger.Clone()
	return s
}

func (repo *studentRepository) CreateStudent(_ context.Context, s student.Student) (student.Student, error) {
	s.ID = uuid.New().String()
	repo.db.students.insert(s.ID, detachStudent(s))
	repo.db.notify(live.Students)
	return s, nil
}

func (repo *studentRepository) QueryStudents(context.Context) ([]student.Student, error) {
	students := repo.db.students.all(nil)
	for i := range students {
		students[i] = detachStudent(students[i])
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(_ context.Context, id string) (student.Student, error) {
	if s, ok := repo.db.students.get(id); ok {
		return detachStudent(s), nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) FindStudent(_ context.Context, name, class, roll string) (student.Student, error) {
	s, ok := repo.db.students.find(func(s student.Student) bool {
		return strings.EqualFold(s.Name, name) && strings.EqualFold(s.Class, class) && strings.EqualFold(s.RollNumber, roll)
	})
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	return detachStudent(s), nil
}

// UpdateStudent saves the record; of its ledger, only the given years are written.
func (repo *studentRepository) UpdateStudent(_ context.Context, s student.Student, years ...int) (student.Student, error) {
	ok := repo.db.students.update(s.ID, func(orig student.Student) student.Student {
		el := orig.Ledger.Clone()
		for _, year := range years {
			if l, found := s.Ledger[year]; found {
				el[year] = l
			}
		}
		updated := s
		updated.Ledger = el
		return updated
	})
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.notify(live.Students)
	s, _ = repo.db.students.get(s.ID)
	return detachStudent(s), nil
}

func (repo *studentRepository) SaveStudentLedger(_ context.Context, id string, year int, l ledger.YearLedger) error {
	l.Kind = student.Kind
	ok := repo.db.students.update(id, func(s student.Student) student.Student {
		s.Ledger = s.Ledger.Clone()
		s.Ledger[year] = l
		return s
	})
	if !ok {
		return student.ErrNotFound
	}
	repo.db.notify(live.Students)
	return nil
}

// DeleteStudent removes the student along with its slips.
func (repo *studentRepository) DeleteStudent(_ context.Context, id string) error {
	if !repo.db.students.remove(id) {
		return student.ErrNotFound
	}
	for _, s := range repo.db.slips.all(func(s slip.Slip) bool { return s.StudentID == id }) {
		repo.db.slips.remove(s.ID)
	}
	repo.db.notify(live.Students, live.Slips)
	return nil
}
