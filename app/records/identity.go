package records

import "context"

// User is the authenticated caller
type User struct {
	ID    string
	Email string
}

type userKey struct{}

// WithUser returns a context carrying the authenticated user
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFrom extracts the authenticated user from context
func UserFrom(ctx context.Context) (User, bool) {
	u, ok := ctx.Value(userKey{}).(User)
	if !ok || u.ID == "" {
		return User{}, false
	}
	return u, true
}
