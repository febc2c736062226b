package services

import "time"

func (s *TokenService) SetClock(now func() time.Time) { s.now = now }

func (s *TaskService) SetClock(now func() time.Time) { s.now = now }

func (s *AccountService) SetPasswordComparer(compare func(hash, password []byte) error) {
	s.compare = compare
}
