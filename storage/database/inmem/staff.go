package inmemdb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/bursar/core/ledger"
	"github.com/trezcool/bursar/core/live"
	"github.com/trezcool/bursar/core/staff"
)

type staffRepository struct {
	db *DB
}

var _ staff.Repository = (*staffRepository)(nil) // interface compliance check

func NewStaffRepository(db *DB) *staffRepository {
	return &staffRepository{db: db}
}

func detachStaff(s staff.Staff) staff.Staff {
	s.Ledger = s.Ledger.Clone()
	return s
}

func (repo *staffRepository) CreateStaff(_ context.Context, s staff.Staff) (staff.Staff, error) {
	s.ID = uuid.New().String()
	repo.db.staff.insert(s.ID, detachStaff(s))
	repo.db.notify(live.Staff)
	return s, nil
}

func (repo *staffRepository) QueryStaff(context.Context) ([]staff.Staff, error) {
	list := repo.db.staff.all(nil)
	for i := range list {
		list[i] = detachStaff(list[i])
	}
	return list, nil
}

func (repo *staffRepository) GetStaff(_ context.Context, id string) (staff.Staff, error) {
	if s, ok := repo.db.staff.get(id); ok {
		return detachStaff(s), nil
	}
	return staff.Staff{}, staff.ErrNotFound
}

func (repo *staffRepository) FindStaff(_ context.Context, name, contact string) (staff.Staff, error) {
	s, ok := repo.db.staff.find(func(s staff.Staff) bool {
		return strings.EqualFold(s.Name, name) && s.ContactNumber == contact
	})
	if !ok {
		return staff.Staff{}, staff.ErrNotFound
	}
	return detachStaff(s), nil
}

func (repo *staffRepository) UpdateStaff(_ context.Context, s staff.Staff, years ...int) (staff.Staff, error) {
	ok := repo.db.staff.update(s.ID, func(orig staff.Staff) staff.Staff {
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
		return staff.Staff{}, staff.ErrNotFound
	}
	repo.db.notify(live.Staff)
	s, _ = repo.db.staff.get(s.ID)
	return detachStaff(s), nil
}

func (repo *staffRepository) SaveStaffLedger(_ context.Context, id string, year int, l ledger.YearLedger) error {
	l.Kind = staff.Kind
	ok := repo.db.staff.update(id, func(s staff.Staff) staff.Staff {
		s.Ledger = s.Ledger.Clone()
		s.Ledger[year] = l
		return s
	})
	if !ok {
		return staff.ErrNotFound
	}
	repo.db.notify(live.Staff)
	return nil
}

func (repo *staffRepository) DeleteStaff(_ context.Context, id string) error {
	if !repo.db.staff.remove(id) {
		return staff.ErrNotFound
	}
	repo.db.notify(live.Staff)
	return nil
}
