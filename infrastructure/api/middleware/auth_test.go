package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func doRequest(handler http.Handler, method, key string) int {
	req := httptest.NewRequest(method, "/", nil)
	if key != "" {
		req.Header.Set(APIKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec.Code
}

func TestWriteProtect_ReadMethodsNeedNoKey(t *testing.T) {
	handler := WriteProtect(NewAuthConfigWithKeys([]string{"secret"}))(okHandler())

	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		assert.Equal(t, http.StatusOK, doRequest(handler, method, ""), method)
	}
}

func TestWriteProtect_MutationsRequireKey(t *testing.T) {
	handler := WriteProtect(NewAuthConfigWithKeys([]string{"secret"}))(okHandler())

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		assert.Equal(t, http.StatusUnauthorized, doRequest(handler, method, ""), "%s without key", method)
		assert.Equal(t, http.StatusUnauthorized, doRequest(handler, method, "wrong"), "%s with bad key", method)
		assert.Equal(t, http.StatusOK, doRequest(handler, method, "secret"), "%s with good key", method)
	}
}

func TestWriteProtect_NoConfiguredKeysDisablesAuth(t *testing.T) {
	handler := WriteProtect(NewAuthConfigWithKeys(nil))(okHandler())

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		assert.Equal(t, http.StatusOK, doRequest(handler, method, ""), method)
	}
}
