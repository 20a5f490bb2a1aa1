package models

// All returns one zero value of every household model, in migration order.
func All() []any {
	return []any{&Family{}, &FamilyMember{}, &Person{}, &City{}}
}
