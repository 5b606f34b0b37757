package catalog

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/croustipeze/cookbook/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoRecipes = `[
  {"name":"Tart","category":"Dessert","location":"Paris","latitude":48.85,"longitude":2.35,"image":"tart.jpg"},
  {"name":"Soup","category":"Starter","location":"Lyon","latitude":45.75,"longitude":4.85}
]`

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Expected GET method, got %s", r.Method)
		}
		if accept := r.Header.Get("Accept"); accept != "application/json" {
			t.Errorf("Expected Accept application/json, got %q", accept)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetch_PreservesOrder(t *testing.T) {
	server := serve(t, http.StatusOK, twoRecipes)

	recipes, err := NewClient(5*time.Second).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, recipes, 2)
	assert.Equal(t, "Tart", recipes[0].Name)
	assert.Equal(t, "Soup", recipes[1].Name)
	assert.Equal(t, 45.75, recipes[1].Latitude)
	assert.JSONEq(t, `"tart.jpg"`, string(recipes[0].Extra["image"]))
}

func TestFetch_LargeCatalogLengthAndOrder(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < 250; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		fmt.Fprintf(&sb, `{"name":"r%d","category":"c","location":"l","latitude":%d,"longitude":%d}`, i, i%90, i%180)
	}
	sb.WriteString("]")
	server := serve(t, http.StatusOK, sb.String())

	recipes, err := NewClient(0).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	require.Len(t, recipes, 250)
	for i, r := range recipes {
		assert.Equal(t, fmt.Sprintf("r%d", i), r.Name)
	}
}

func TestFetch_EmptyArray(t *testing.T) {
	server := serve(t, http.StatusOK, " [] ")

	recipes, err := NewClient(0).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestDecode_KeepsEveryNonEmptyName(t *testing.T) {
	body := `[
  {"name":"Tart","category":"Dessert","location":"Paris","latitude":48.85,"longitude":2.35},
  {"name":"None","category":"Starter","location":"Lyon","latitude":45.75,"longitude":4.85},
  {"name":"N/A","category":"Main","location":"Nice","latitude":43.7,"longitude":7.26},
  {"name":"-","category":"Main","location":"Lille","latitude":50.63,"longitude":3.06}
]`

	recipes, err := Decode([]byte(body))
	require.NoError(t, err)
	require.Len(t, recipes, 4)
	assert.Equal(t, []string{"Tart", "None", "N/A", "-"}, []string{recipes[0].Name, recipes[1].Name, recipes[2].Name, recipes[3].Name})
}

func TestFetch_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"truncated json", `[{"name":"Tart"`},
		{"not json", `<html>captcha</html>`},
		{"object instead of array", `{"recipes":[]}`},
		{"null document", `null`},
		{"empty body", ``},
		{"missing latitude", `[{"name":"Tart","category":"Dessert","location":"Paris","longitude":2.35}]`},
		{"latitude is a string", `[{"name":"Tart","category":"Dessert","location":"Paris","latitude":"48.85","longitude":2.35}]`},
		{"element is a number", `[1]`},
		{"latitude out of range", `[{"name":"Tart","category":"Dessert","location":"Paris","latitude":123,"longitude":2.35}]`},
		{"empty name", `[{"name":"","category":"Dessert","location":"Paris","latitude":48.85,"longitude":2.35}]`},
		{"second element invalid", `[{"name":"Tart","category":"Dessert","location":"Paris","latitude":48.85,"longitude":2.35},{"name":"Soup"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := serve(t, http.StatusOK, tt.body)

			recipes, err := NewClient(0).Fetch(context.Background(), server.URL)
			require.Error(t, err)
			assert.Nil(t, recipes, "a parse error must not return a partial catalog")
			assert.True(t, errors.IsType(err, errors.ErrorTypeParse), "expected PARSE_ERROR, got %v", err)
		})
	}
}

func TestFetch_NonSuccessStatus(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusMovedPermanently} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := serve(t, status, twoRecipes)

			recipes, err := NewClient(0).Fetch(context.Background(), server.URL)
			require.Error(t, err)
			assert.Nil(t, recipes)

			appErr, ok := errors.As(err)
			require.True(t, ok)
			assert.Equal(t, errors.ErrorTypeFetch, appErr.Type)
			assert.Equal(t, status, appErr.UpstreamStatus)
		})
	}
}

func TestFetch_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(time.Second).Fetch(context.Background(), url)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFetch))
}

func TestFetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := NewClient(50*time.Millisecond).Fetch(context.Background(), server.URL)
	require.Error(t, err)

	appErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeFetch, appErr.Type)
	assert.Equal(t, "CATALOG_TIMEOUT", appErr.Code())
}

func TestFetch_InvalidURL(t *testing.T) {
	_, err := NewClient(0).Fetch(context.Background(), "://missing-scheme")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeFetch))
}
