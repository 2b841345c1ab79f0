//go:build !cgo

package graph

// OpenPersistentStore always fails without cgo.
func OpenPersistentStore(string) (Store, error) {
	return nil, ErrNoPersistentStore
}

// LoadPersistentStore always fails without cgo.
func LoadPersistentStore(string) (Store, error) {
	return nil, ErrNoPersistentStore
}
