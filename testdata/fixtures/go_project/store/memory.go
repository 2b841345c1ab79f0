package store

import (
	"errors"

	"example.com/users/model"
)

// Memory keeps users in a map.
type Memory struct {
	users map[int]*model.User
	next  int
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{users: make(map[int]*model.User)}
}

func (m *Memory) FindByID(id int) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return u, nil
}

func (m *Memory) Save(u *model.User) error {
	m.next++
	u.ID = m.next
	m.users[u.ID] = u
	return nil
}
