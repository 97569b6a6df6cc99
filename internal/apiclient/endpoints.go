package apiclient

import (
	"net/url"
	"strings"
)

const (
	PathSignIn  = "/api/v1/auth/signin"
	PathSignUp  = "/api/v1/auth/signup"
	PathSelf    = "/api/v1/auth/self"
	PathSignOut = "/api/v1/auth/signout"

	PathCategories = "/api/v1/categories"
	PathMajors     = "/api/v1/majors"
	PathProducts   = "/api/v1/products"
	PathOrders     = "/api/v1/orders"
	PathUsers      = "/api/v1/users"
)

// Join appends escaped path segments to a base path.
func Join(base string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(base, "/"))
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
