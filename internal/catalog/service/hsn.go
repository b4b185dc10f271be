package service

import (
	"context"
	"math/rand"
	"strconv"

	"gorm.io/gorm"
)

// newHSNCandidate draws uniformly across the full 8-digit space.
func newHSNCandidate() string {
	return strconv.Itoa(10_000_000 + rand.Intn(90_000_000))
}

// freeHSNCode loops generate-check until a candidate is unused. The
// check is optimistic: nothing stops a concurrent transaction from
// claiming the same code between check and insert, in which case the
// unique index rejects the insert and the whole enclosing transaction
// fails.
func (s *Service) freeHSNCode(ctx context.Context, tx *gorm.DB) (string, error) {
	for {
		candidate := newHSNCandidate()
		taken, err := s.repo.HSNCodeTaken(ctx, tx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
}
