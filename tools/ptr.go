package tools

// PtrOf returns a pointer to a copy of v.
func PtrOf[T any](v T) *T {
	return &v
}

// ValueOr dereferences p, falling back to def when p is nil.
func ValueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
