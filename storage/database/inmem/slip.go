package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/bursar/core/live"
	"github.com/trezcool/bursar/core/slip"
)

type slipRepository struct {
	db *DB
}

var _ slip.Repository = (*slipRepository)(nil) // interface compliance check

func NewSlipRepository(db *DB) *slipRepository {
	return &slipRepository{db: db}
}

func (repo *slipRepository) CreateSlip(_ context.Context, s slip.Slip) (slip.Slip, error) {
	s.ID = uuid.New().String()
	repo.db.slips.insert(s.ID, s)
	repo.db.notify(live.Slips)
	return s, nil
}

func (repo *slipRepository) QuerySlips(_ context.Context, year int, month time.Month) ([]slip.Slip, error) {
	return slip.Filter(repo.db.slips.all(nil), year, month), nil
}

func (repo *slipRepository) GetSlip(_ context.Context, id string) (slip.Slip, error) {
	if s, ok := repo.db.slips.get(id); ok {
		return s, nil
	}
	return slip.Slip{}, slip.ErrNotFound
}

// UpdateSlip saves everything but the student, period and issue date.
func (repo *slipRepository) UpdateSlip(_ context.Context, s slip.Slip) (slip.Slip, error) {
	var saved slip.Slip
	ok := repo.db.slips.update(s.ID, func(orig slip.Slip) slip.Slip {
		saved = s
		saved.StudentID = orig.StudentID
		saved.StudentName = orig.StudentName
		saved.StudentClass = orig.StudentClass
		saved.RollNumber = orig.RollNumber
		saved.Month = orig.Month
		saved.Year = orig.Year
		saved.IssueDate = orig.IssueDate
		return saved
	})
	if !ok {
		return slip.Slip{}, slip.ErrNotFound
	}
	repo.db.notify(live.Slips)
	return saved, nil
}

func (repo *slipRepository) DeleteSlip(_ context.Context, id string) error {
	if !repo.db.slips.remove(id) {
		return slip.ErrNotFound
	}
	repo.db.notify(live.Slips)
	return nil
}
