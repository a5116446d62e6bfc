package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sitwithme/sitwithme/internal/handler"
	"github.com/sitwithme/sitwithme/internal/models"
	"github.com/sitwithme/sitwithme/internal/policy"
	"github.com/sitwithme/sitwithme/internal/repository"
	"github.com/sitwithme/sitwithme/internal/service"
	"github.com/sitwithme/sitwithme/internal/testutil"
	"github.com/sitwithme/sitwithme/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type AuthHandlerIntegrationTestSuite struct {
	suite.Suite
	testDB *testutil.TestDatabase
	router *gin.Engine
}

func (s *AuthHandlerIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logger.Init(false)

	s.testDB = testutil.SetupTestDatabase(s.T())

	userRepo := repository.NewUserRepository(s.testDB.DB)
	accessPolicy := policy.New(userRepo)
	authService := service.NewAuthService(userRepo, "test-secret-key", 1*time.Hour)
	authHandler := handler.NewAuthHandler(authService, accessPolicy, false)

	s.router = gin.New()
	s.router.POST("/api/auth/register", authHandler.Register)
	s.router.POST("/api/auth/login", authHandler.Login)
	s.router.POST("/api/auth/logout", authHandler.Logout)
}

func (s *AuthHandlerIntegrationTestSuite) TearDownSuite() {
	s.testDB.Teardown(s.T())
}

func (s *AuthHandlerIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
}

func (s *AuthHandlerIntegrationTestSuite) postJSON(path string, body map[string]string) *httptest.ResponseRecorder {
	bodyBytes, _ := json.Marshal(body)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AuthHandlerIntegrationTestSuite) TestRegisterSuccess() {
	w := s.postJSON("/api/auth/register", map[string]string{
		"name":     "Ana",
		"email":    "ana@x.com",
		"password": "pw123456",
	})

	assert.Equal(s.T(), http.StatusCreated, w.Code)

	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))

	user := response["user"].(map[string]interface{})
	assert.Equal(s.T(), "Ana", user["name"])
	assert.Equal(s.T(), "ana@x.com", user["email"])
	assert.Equal(s.T(), "MEMBER", user["role"])

	// Session cookie set with the right flags
	var tokenCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "token" {
			tokenCookie = cookie
			break
		}
	}
	s.Require().NotNil(tokenCookie)
	assert.True(s.T(), tokenCookie.HttpOnly)
	assert.Equal(s.T(), http.SameSiteLaxMode, tokenCookie.SameSite)
}

func (s *AuthHandlerIntegrationTestSuite) TestRegisterDuplicateEmailSurfacesConflict() {
	existing, err := testutil.CreateTestUser("Existing", "ana@x.com", "Pass12345", models.RoleMember)
	s.Require().NoError(err)
	s.Require().NoError(s.testDB.DB.Create(existing).Error)

	w := s.postJSON("/api/auth/register", map[string]string{
		"name":     "Ana",
		"email":    "ana@x.com",
		"password": "pw123456",
	})

	// The duplicate is reported to the caller, not swallowed
	assert.Equal(s.T(), http.StatusConflict, w.Code)

	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Contains(s.T(), response["error"], "email already exists")
}

func (s *AuthHandlerIntegrationTestSuite) TestRegisterMissingFields() {
	testCases := []struct {
		name    string
		reqBody map[string]string
	}{
		{"No name", map[string]string{"email": "a@x.com", "password": "pw123456"}},
		{"No email", map[string]string{"name": "Ana", "password": "pw123456"}},
		{"No password", map[string]string{"name": "Ana", "email": "a@x.com"}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			w := s.postJSON("/api/auth/register", tc.reqBody)
			assert.Equal(s.T(), http.StatusBadRequest, w.Code)
		})
	}
}

func (s *AuthHandlerIntegrationTestSuite) TestLoginSuccessReturnsRole() {
	s.postJSON("/api/auth/register", map[string]string{
		"name":     "Ana",
		"email":    "ana@x.com",
		"password": "pw123456",
	})

	w := s.postJSON("/api/auth/login", map[string]string{
		"email":    "ana@x.com",
		"password": "pw123456",
	})

	assert.Equal(s.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))

	user := response["user"].(map[string]interface{})
	assert.Equal(s.T(), "MEMBER", user["role"])
}

func (s *AuthHandlerIntegrationTestSuite) TestLoginFailsUniformly() {
	s.postJSON("/api/auth/register", map[string]string{
		"name":     "Ana",
		"email":    "ana@x.com",
		"password": "pw123456",
	})

	// Wrong password and unknown email must be indistinguishable
	wrongPassword := s.postJSON("/api/auth/login", map[string]string{
		"email":    "ana@x.com",
		"password": "wrong-password",
	})
	unknownEmail := s.postJSON("/api/auth/login", map[string]string{
		"email":    "nobody@x.com",
		"password": "pw123456",
	})

	assert.Equal(s.T(), http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(s.T(), http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(s.T(), wrongPassword.Body.String(), unknownEmail.Body.String())
}

func (s *AuthHandlerIntegrationTestSuite) TestLogoutClearsCookie() {
	w := s.postJSON("/api/auth/logout", map[string]string{})

	assert.Equal(s.T(), http.StatusOK, w.Code)

	var tokenCookie *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == "token" {
			tokenCookie = cookie
			break
		}
	}
	s.Require().NotNil(tokenCookie)
	assert.Empty(s.T(), tokenCookie.Value)
	assert.Negative(s.T(), tokenCookie.MaxAge)
}

func TestAuthHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerIntegrationTestSuite))
}
