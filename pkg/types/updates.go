package types

// Field carries an optional mutation for a single field: left alone,
// set to a value, or explicitly cleared. The zero Field changes
// nothing.
type Field[T any] struct {
	value T
	set   bool
	unset bool
}

// Set returns a Field that assigns v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// Unset returns a Field that clears the target back to its zero value.
func Unset[T any]() Field[T] {
	return Field[T]{unset: true}
}

// IsZero reports whether the field changes nothing.
func (f Field[T]) IsZero() bool { return !f.set && !f.unset }

// Apply writes the field's mutation into dst, if any.
func (f Field[T]) Apply(dst *T) {
	switch {
	case f.set:
		*dst = f.value
	case f.unset:
		var zero T
		*dst = zero
	}
}

// GroupUpdate enumerates the mutable fields of a Group. Only fields
// explicitly set or unset are touched.
type GroupUpdate struct {
	ID       string
	Title    Field[string]
	Env      Field[map[string]string]
	Priority Field[int]
	Username string
}

// Empty reports whether the update carries no mutation beyond the id.
func (u *GroupUpdate) Empty() bool {
	return u.Title.IsZero() && u.Env.IsZero() && u.Priority.IsZero()
}

// ApplyTo writes the update into g.
func (u *GroupUpdate) ApplyTo(g *Group) {
	u.Title.Apply(&g.Title)
	u.Env.Apply(&g.Env)
	u.Priority.Apply(&g.Priority)
	if u.Username != "" {
		g.Username = u.Username
	}
}

// ConfigFileUpdate enumerates the mutable fields of a ConfigFile.
type ConfigFileUpdate struct {
	ID       string
	Title    Field[string]
	Path     Field[string]
	Mode     Field[string]
	UID      Field[string]
	GID      Field[string]
	PID      Field[string]
	Signal   Field[string]
	Exec     Field[string]
	WebHook  Field[string]
	Env      Field[map[string]string]
	Username string
}

// Empty reports whether the update carries no mutation beyond the id.
func (u *ConfigFileUpdate) Empty() bool {
	return u.Title.IsZero() && u.Path.IsZero() && u.Mode.IsZero() &&
		u.UID.IsZero() && u.GID.IsZero() && u.PID.IsZero() &&
		u.Signal.IsZero() && u.Exec.IsZero() && u.WebHook.IsZero() &&
		u.Env.IsZero()
}

// ApplyTo writes the update into f.
func (u *ConfigFileUpdate) ApplyTo(f *ConfigFile) {
	u.Title.Apply(&f.Title)
	u.Path.Apply(&f.Path)
	u.Mode.Apply(&f.Mode)
	u.UID.Apply(&f.UID)
	u.GID.Apply(&f.GID)
	u.PID.Apply(&f.PID)
	u.Signal.Apply(&f.Signal)
	u.Exec.Apply(&f.Exec)
	u.WebHook.Apply(&f.WebHook)
	u.Env.Apply(&f.Env)
}
