package utils

// Ptr returns a pointer to a copy of v
func Ptr[T any](v T) *T {
	return &v
}

// PtrIf returns a pointer to v when set is true, nil otherwise. Used for
// partial updates where only changed fields are sent.
func PtrIf[T any](set bool, v T) *T {
	if !set {
		return nil
	}
	return &v
}
