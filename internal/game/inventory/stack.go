package inventory

import "fmt"

// Stack is a quantity of one catalog item owned by one user. At most one stack
// exists per (owner, item) pair; a stack whose quantity reaches zero is deleted.
type Stack struct {
	ID       int64
	OwnerID  int64
	ItemID   int64
	Quantity int
	Equipped bool
}

// Take removes n units from the stack.
//
// Precondition: n > 0.
// Postcondition: on success the returned stack holds Quantity-n units and empty
// reports whether it must be deleted; on error s is returned unchanged.
func (s Stack) Take(n int) (out Stack, empty bool, err error) {
	if n <= 0 {
		return s, false, fmt.Errorf("inventory: take quantity must be > 0, got %d", n)
	}
	if n > s.Quantity {
		return s, false, fmt.Errorf("inventory: stack %d holds %d, cannot take %d", s.ID, s.Quantity, n)
	}
	s.Quantity -= n
	return s, s.Quantity == 0, nil
}
