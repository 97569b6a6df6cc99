package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tbpedia-dashboard/internal/apiclient"
	"tbpedia-dashboard/internal/apperr"
	"tbpedia-dashboard/internal/guard"
	"tbpedia-dashboard/internal/models"
	"tbpedia-dashboard/internal/resource"
	"tbpedia-dashboard/internal/session"
)

type recorded struct {
	method string
	uri    string
	body   string
}

// fakeRemote answers sign-in with token and identity lookups with self.
type fakeRemote struct {
	mu       sync.Mutex
	token    string
	self     string
	requests []recorded
}

func (f *fakeRemote) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, recorded{method: r.Method, uri: r.URL.RequestURI(), body: readBody(r)})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case apiclient.PathSignIn:
		fmt.Fprintf(w, `{"success":true,"content":{"token":%q}}`, f.token)
	case apiclient.PathSelf:
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"success":false,"message":"Unauthenticated."}`)
			return
		}
		fmt.Fprintf(w, `{"success":true,"content":%s}`, f.self)
	case apiclient.PathSignUp, apiclient.PathSignOut, apiclient.PathOrders + "/12/update":
		fmt.Fprint(w, `{"success":true,"content":null}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false,"message":"Not found"}`)
	}
}

func readBody(r *http.Request) string {
	var v json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return ""
	}
	return string(v)
}

func (f *fakeRemote) calls() []recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recorded(nil), f.requests...)
}

func newRemote(t *testing.T, token, self string) (*apiclient.Client, *fakeRemote) {
	t.Helper()
	remote := &fakeRemote{token: token, self: self}
	srv := httptest.NewServer(remote)
	t.Cleanup(srv.Close)

	client, err := apiclient.New(srv.URL)
	require.NoError(t, err)
	return client, remote
}

func newAuthService(t *testing.T, self string) (*AuthService, *fakeRemote) {
	t.Helper()
	client, remote := newRemote(t, "opaque-token", self)
	return NewAuthService(client, zerolog.Nop()), remote
}

func signIn(t *testing.T, auth *AuthService, store *session.Store) *models.AuthResponse {
	t.Helper()
	resp, err := auth.SignIn(context.Background(), store, &models.SignInRequest{Name: "Rina", Password: "secret1"})
	require.NoError(t, err)
	return resp
}

func TestSignInStartsSession(t *testing.T) {
	auth, _ := newAuthService(t, `{"id":4,"name":"Rina","role":"seller"}`)
	jar := session.NewMemoryJar()
	store := auth.NewStore(jar)

	resp := signIn(t, auth, store)

	assert.Equal(t, "/seller/dashboard", resp.Landing)
	u := store.User()
	require.NotNil(t, u)
	assert.Equal(t, models.RoleSeller, u.Role)
	cred, ok := jar.Load()
	assert.True(t, ok)
	assert.Equal(t, "opaque-token", cred)
}

func TestSignInAcceptsIdentityWithOnlyRole(t *testing.T) {
	client, _ := newRemote(t, "abc123", `{"role":"seller"}`)
	auth := NewAuthService(client, zerolog.Nop())
	store := auth.NewStore(session.NewMemoryJar())

	resp, err := auth.SignIn(context.Background(), store, &models.SignInRequest{Name: "alice", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "/seller/dashboard", resp.Landing)

	d := guard.Evaluate(store.Snapshot(), []models.Role{models.RoleSeller})
	assert.Equal(t, guard.Granted, d.State)
	cred, _ := store.Credential()
	assert.Equal(t, "abc123", cred)
}

func TestSignInRejectsIdentityWithoutRole(t *testing.T) {
	auth, _ := newAuthService(t, `{"id":4,"name":"Rina","role":""}`)
	store := auth.NewStore(session.NewMemoryJar())

	_, err := auth.SignIn(context.Background(), store, &models.SignInRequest{Name: "Rina", Password: "secret1"})
	require.Error(t, err)
	assert.Nil(t, store.User(), "session does not start")
}

func TestSignInValidatesBeforeCalling(t *testing.T) {
	auth, remote := newAuthService(t, `{"role":"admin"}`)
	store := auth.NewStore(session.NewMemoryJar())

	_, err := auth.SignIn(context.Background(), store, &models.SignInRequest{Name: "", Password: "abc"})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "err = %v", err)
	assert.Empty(t, remote.calls())
}

func TestSignUpSendsType(t *testing.T) {
	auth, remote := newAuthService(t, "null")

	err := auth.SignUp(context.Background(), models.SignUpSeller, &models.SellerSignUpRequest{
		Name: "Toko Rina", PhoneNumber: "081234567", StoreName: "Rina", Password: "secret",
	})
	require.NoError(t, err)

	calls := remote.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, apiclient.PathSignUp+"?type=seller", calls[0].uri)
	assert.Contains(t, calls[0].body, `"store_name":"Rina"`)
}

func TestSignUpUnknownType(t *testing.T) {
	auth, remote := newAuthService(t, "null")

	err := auth.SignUp(context.Background(), models.SignUpType("admin"), &models.BuyerSignUpRequest{})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "err = %v", err)
	assert.Empty(t, remote.calls(), "nothing is sent")
}

func TestLogoutSignsOutRemotely(t *testing.T) {
	auth, remote := newAuthService(t, `{"id":9,"role":"buyer"}`)
	jar := session.NewMemoryJar()
	store := auth.NewStore(jar)
	signIn(t, auth, store)

	store.Logout(context.Background())

	calls := remote.calls()
	last := calls[len(calls)-1]
	assert.Equal(t, http.MethodPost, last.method)
	assert.Equal(t, apiclient.PathSignOut, last.uri)
	_, ok := jar.Load()
	assert.False(t, ok, "credential removed")
}

func TestAuditWithoutDatabase(t *testing.T) {
	audit := NewAuditService(nil, zerolog.Nop())
	require.False(t, audit.Enabled())

	audit.RecordMutation(context.Background(), resource.Event{Resource: "categories", Action: resource.ActionHide, Key: "biology"}, nil)

	rows, err := audit.Recent(context.Background(), "", 10, 0)
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestAuditRecordCarriesOutcome(t *testing.T) {
	store := session.New(session.NewMemoryJar(), nil, zerolog.Nop())
	require.NoError(t, store.Login(&models.User{ID: 1, Role: models.RoleAdmin}, "opaque-token"))
	ctx := session.NewContext(context.Background(), store)

	rec := newRecord(ctx, resource.Event{Resource: "products", Action: resource.ActionRemove, Key: "stetoskop"},
		apperr.New(apperr.KindForbidden, ""))

	assert.Equal(t, models.OutcomeFailed, rec.Outcome)
	assert.Equal(t, "You do not have permission to perform this action.", rec.Message)
	assert.Equal(t, session.Fingerprint("opaque-token"), rec.Credential)
	assert.NotEqual(t, "opaque-token", rec.Credential)
}

func TestSetOrderStatus(t *testing.T) {
	client, remote := newRemote(t, "opaque-token", `{"role":"admin"}`)
	store := session.New(session.NewMemoryJar(), nil, zerolog.Nop())
	require.NoError(t, store.Login(&models.User{ID: 1, Role: models.RoleAdmin}, "opaque-token"))
	catalog := NewCatalogService(client.WithSession(store, store.Expire), NewAuditService(nil, zerolog.Nop()), zerolog.Nop())

	require.NoError(t, catalog.SetOrderStatus(context.Background(), "12", models.OrderStatusFinished))

	calls := remote.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, http.MethodPatch, calls[0].method)
	assert.Equal(t, apiclient.PathOrders+"/12/update?status=finished", calls[0].uri)
	assert.Equal(t, "{}", calls[0].body)

	err := catalog.SetOrderStatus(context.Background(), "12", models.OrderStatus("shipped"))
	assert.True(t, apperr.Is(err, apperr.KindValidation), "err = %v", err)
	assert.Len(t, remote.calls(), 1, "invalid status does not reach the API")
}
