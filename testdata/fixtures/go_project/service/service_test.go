package service

import (
	"testing"

	"example.com/users/store"
)

func TestCreateUser(t *testing.T) {
	svc := NewUserService(store.NewMemory())
	if _, err := svc.CreateUser("ada", "ada@example.com"); err != nil {
		t.Fatal(err)
	}
}
