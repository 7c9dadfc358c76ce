package router

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/searchktools/wire-server/core/http"
)

func textHandler(body string) http.Handler {
	return func(req *http.Request, params *http.Params) *http.Response {
		return http.OK().Body(body).Build()
	}
}

func TestTableFindInRegistrationOrder(t *testing.T) {
	r := New(0)
	r.Add(http.MethodGet, "/users/admin", textHandler("admin"))
	r.Add(http.MethodGet, "/users/{id}", textHandler("user"))
	r.Add(http.MethodPost, "/users/{id}", textHandler("update"))
	table := r.Freeze()

	tests := []struct {
		method http.Method
		uri    string
		body   string
		found  bool
	}{
		{http.MethodGet, "/users/admin", "admin", true},
		{http.MethodGet, "/users/42", "user", true},
		{http.MethodPost, "/users/42", "update", true},
		{http.MethodDelete, "/users/42", "", false},
		{http.MethodGet, "/groups/1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.method.String()+" "+tt.uri, func(t *testing.T) {
			route, params, err := table.Find(tt.method, tt.uri)
			require.NoError(t, err)
			if !tt.found {
				assert.Nil(t, route)
				return
			}
			require.NotNil(t, route)
			resp := route.Handler(nil, params)
			assert.Equal(t, tt.body, resp.Body)
		})
	}
}

func TestTableFindParams(t *testing.T) {
	r := New(0)
	r.Add(http.MethodGet, "/what/{mate}", textHandler("ok"))
	table := r.Freeze()

	route, params, err := table.Find(http.MethodGet, "/what/bob?this=value&is")
	require.NoError(t, err)
	require.NotNil(t, route)
	assert.Equal(t, "/what/{mate}", route.Pattern)
	assert.Equal(t, "bob", params.Param("mate"))
	assert.Equal(t, 2, params.Query.Len())
}

func TestTableFindCapacityError(t *testing.T) {
	r := New(1)
	r.Add(http.MethodGet, "/{a}/{b}", textHandler("ok"))

	_, _, err := r.Freeze().Find(http.MethodGet, "/x/y")
	assert.ErrorIs(t, err, http.ErrCapacityExceeded)
}

func TestRouterAddPanics(t *testing.T) {
	r := New(0)
	assert.Panics(t, func() { r.Add(http.MethodGet, "no-slash", textHandler("x")) })
	assert.Panics(t, func() { r.Add(http.MethodGet, "/{open", textHandler("x")) })
	assert.Panics(t, func() { r.Add(http.MethodGet, "/ok", nil) })

	r.Add(http.MethodGet, "/ok", textHandler("x"))
	r.Freeze()
	assert.Panics(t, func() { r.Add(http.MethodGet, "/late", textHandler("x")) })
}

func TestFreezeIsStable(t *testing.T) {
	r := New(0)
	r.Add(http.MethodGet, "/", textHandler("root"))

	first := r.Freeze()
	second := r.Freeze()
	assert.Same(t, first, second)
	assert.Len(t, first.Routes(), 1)
	assert.Equal(t, 1, r.Len())
}

func TestTableConcurrentFind(t *testing.T) {
	r := New(0)
	r.Add(http.MethodGet, "/items/{id}", textHandler("item"))
	table := r.Freeze()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				route, params, err := table.Find(http.MethodGet, "/items/9")
				if err != nil || route == nil || params.Param("id") != "9" {
					t.Errorf("unexpected lookup result: %v %v", route, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}
