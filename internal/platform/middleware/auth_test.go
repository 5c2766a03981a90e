package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/suite"
)

type AuthSuite struct {
	suite.Suite
	handler http.Handler
	sett    string
}

func TestAuthSuite(t *testing.T) {
	suite.Run(t, new(AuthSuite))
}

func (s *AuthSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.sett = ""
	s.handler = RequireNavIdent(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.sett = NavIdent(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
}

func (s *AuthSuite) token(claims jwt.MapClaims) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	s.Require().NoError(err)
	return signed
}

func (s *AuthSuite) serve(authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	recorder := httptest.NewRecorder()
	s.handler.ServeHTTP(recorder, req)
	return recorder
}

func (s *AuthSuite) TestRequireNavIdent() {
	s.Run("puts the NAVident claim on the context", func() {
		recorder := s.serve("Bearer " + s.token(jwt.MapClaims{"NAVident": "Z999999"}))

		s.Equal(http.StatusOK, recorder.Code)
		s.Equal("Z999999", s.sett)
	})

	s.Run("missing authorization header is unauthorized", func() {
		recorder := s.serve("")
		s.Equal(http.StatusUnauthorized, recorder.Code)
	})

	s.Run("non-bearer scheme is unauthorized", func() {
		recorder := s.serve("Basic dXNlcjpwYXNz")
		s.Equal(http.StatusUnauthorized, recorder.Code)
	})

	s.Run("malformed token is unauthorized", func() {
		recorder := s.serve("Bearer not.a.token")
		s.Equal(http.StatusUnauthorized, recorder.Code)
	})

	s.Run("token without NAVident claim is unauthorized", func() {
		recorder := s.serve("Bearer " + s.token(jwt.MapClaims{"sub": "someone"}))
		s.Equal(http.StatusUnauthorized, recorder.Code)
	})
}

func (s *AuthSuite) TestNavIdent() {
	s.Run("empty without an authenticated request", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		s.Empty(NavIdent(req.Context()))
	})
}
