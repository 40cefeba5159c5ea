package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// recordingHandler reports whether it was reached.
type recordingHandler struct {
	called bool
}

func (h *recordingHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.called = true
	w.WriteHeader(http.StatusOK)
}

func Test_NewAuthMiddleware_Cases(t *testing.T) {
	const token = "3f9c0a1b"

	tests := []struct {
		name       string
		token      string
		header     *string
		wantStatus int
	}{
		{"valid token", token, strPtr("Bearer 3f9c0a1b"), http.StatusOK},
		{"no header", token, nil, http.StatusUnauthorized},
		{"empty header", token, strPtr(""), http.StatusUnauthorized},
		{"wrong token", token, strPtr("Bearer deadbeef"), http.StatusUnauthorized},
		{"token prefix only", token, strPtr("Bearer 3f9c"), http.StatusUnauthorized},
		{"other scheme", token, strPtr("Basic 3f9c0a1b"), http.StatusUnauthorized},
		{"lowercase scheme", token, strPtr("bearer 3f9c0a1b"), http.StatusUnauthorized},
		{"double space", token, strPtr("Bearer  3f9c0a1b"), http.StatusUnauthorized},
		{"empty bearer value", token, strPtr("Bearer "), http.StatusUnauthorized},
		{"bare scheme word", token, strPtr("Bearer"), http.StatusUnauthorized},
		{"auth disabled without header", "", nil, http.StatusOK},
		{"auth disabled with header", "", strPtr("Bearer anything"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &recordingHandler{}
			handler := NewAuthMiddleware(tt.token)(next)

			req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
			if tt.header != nil {
				req.Header.Set("Authorization", *tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if next.called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("next called = %v, want %v", next.called, tt.wantStatus == http.StatusOK)
			}
			challenge := rr.Header().Get("WWW-Authenticate")
			if tt.wantStatus == http.StatusUnauthorized && challenge == "" {
				t.Error("401 response lacks WWW-Authenticate")
			}
			if tt.wantStatus == http.StatusOK && challenge != "" {
				t.Errorf("unexpected WWW-Authenticate %q", challenge)
			}
		})
	}
}

func Test_NewAuthMiddleware_DisabledReturnsNext(t *testing.T) {
	next := &recordingHandler{}
	if got := NewAuthMiddleware("")(next); got != http.Handler(next) {
		t.Errorf("disabled middleware wrapped the handler: %T", got)
	}
}

func strPtr(s string) *string { return &s }
