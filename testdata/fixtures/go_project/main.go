package main

import (
	"fmt"

	"example.com/users/service"
	"example.com/users/store"
)

func main() {
	svc := service.NewUserService(store.NewMemory())
	u, err := svc.CreateUser("ada", "ada@example.com")
	fmt.Println(u, err)
}
