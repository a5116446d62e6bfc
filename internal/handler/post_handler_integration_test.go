package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sitwithme/sitwithme/internal/cache"
	"github.com/sitwithme/sitwithme/internal/handler"
	"github.com/sitwithme/sitwithme/internal/middleware"
	"github.com/sitwithme/sitwithme/internal/models"
	"github.com/sitwithme/sitwithme/internal/policy"
	"github.com/sitwithme/sitwithme/internal/repository"
	"github.com/sitwithme/sitwithme/internal/service"
	"github.com/sitwithme/sitwithme/internal/testutil"
	"github.com/sitwithme/sitwithme/internal/utils"
	"github.com/sitwithme/sitwithme/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

const testJWTSecret = "test-secret-key"

// PostHandlerIntegrationTestSuite wires the full stack the way cmd/server
// does: middleware, policy, services, sqlite and miniredis underneath.
type PostHandlerIntegrationTestSuite struct {
	suite.Suite
	testDB    *testutil.TestDatabase
	testRedis *testutil.TestRedis
	counter   *cache.RedisLikeCounter
	router    *gin.Engine

	admin  *models.User
	member *models.User
}

func (s *PostHandlerIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	logger.Init(false)

	s.testDB = testutil.SetupTestDatabase(s.T())
	s.testRedis = testutil.SetupTestRedis(s.T())

	var err error
	s.counter, err = cache.NewRedisLikeCounter(s.testRedis.URL)
	s.Require().NoError(err)

	userRepo := repository.NewUserRepository(s.testDB.DB)
	postRepo := repository.NewPostRepository(s.testDB.DB)
	likeRepo := repository.NewLikeRepository(s.testDB.DB)
	commentRepo := repository.NewCommentRepository(s.testDB.DB)

	accessPolicy := policy.New(userRepo)
	postService := service.NewPostService(postRepo, likeRepo, commentRepo, s.counter)
	interactionService := service.NewInteractionService(likeRepo, commentRepo, postRepo, s.counter)

	postHandler := handler.NewPostHandler(postService, accessPolicy)
	interactionHandler := handler.NewInteractionHandler(interactionService, accessPolicy)

	s.router = gin.New()
	s.router.GET("/api/posts", postHandler.GetFeed)
	s.router.GET("/api/posts/archive", postHandler.GetArchive)
	s.router.GET("/api/posts/:slug", middleware.OptionalAuthMiddleware(testJWTSecret), postHandler.GetBySlug)

	protected := s.router.Group("/api")
	protected.Use(middleware.AuthMiddleware(testJWTSecret))
	{
		protected.POST("/posts", postHandler.Create)
		protected.POST("/posts/:id/like", interactionHandler.ToggleLike)
		protected.POST("/posts/:id/comments", interactionHandler.AddComment)
	}
}

func (s *PostHandlerIntegrationTestSuite) TearDownSuite() {
	s.counter.Close()
	s.testRedis.Teardown(s.T())
	s.testDB.Teardown(s.T())
}

func (s *PostHandlerIntegrationTestSuite) SetupTest() {
	testutil.CleanDatabase(s.T(), s.testDB.DB)
	s.testRedis.Server.FlushAll()

	admin, err := testutil.DefaultAdminUser()
	s.Require().NoError(err)
	s.Require().NoError(s.testDB.DB.Create(admin).Error)
	s.admin = admin

	member, err := testutil.DefaultMemberUser()
	s.Require().NoError(err)
	s.Require().NoError(s.testDB.DB.Create(member).Error)
	s.member = member
}

func (s *PostHandlerIntegrationTestSuite) tokenFor(user *models.User) string {
	token, err := utils.GenerateToken(user, testJWTSecret, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *PostHandlerIntegrationTestSuite) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *PostHandlerIntegrationTestSuite) seedPost(title string) *models.Post {
	post := testutil.CreateTestPost(s.admin.ID, title)
	s.Require().NoError(s.testDB.DB.Create(post).Error)
	return post
}

func (s *PostHandlerIntegrationTestSuite) TestCreatePostAsAdmin() {
	w := s.request(http.MethodPost, "/api/posts", s.tokenFor(s.admin), map[string]string{
		"title":    "Hello, World!",
		"subtitle": "a greeting",
		"content":  "<p>first post</p>",
	})

	s.Require().Equal(http.StatusCreated, w.Code)

	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))

	post := response["post"].(map[string]interface{})
	assert.Regexp(s.T(), regexp.MustCompile(`^hello-world-\d+$`), post["slug"])
}

func (s *PostHandlerIntegrationTestSuite) TestCreatePostForbiddenForMember() {
	w := s.request(http.MethodPost, "/api/posts", s.tokenFor(s.member), map[string]string{
		"title": "Sneaky Post",
	})

	assert.Equal(s.T(), http.StatusForbidden, w.Code)
}

func (s *PostHandlerIntegrationTestSuite) TestCreatePostRejectsAnonymous() {
	w := s.request(http.MethodPost, "/api/posts", "", map[string]string{
		"title": "Anonymous Post",
	})

	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *PostHandlerIntegrationTestSuite) TestToggleLikeRequiresAuth() {
	post := s.seedPost("Likeable")

	w := s.request(http.MethodPost, "/api/posts/"+post.ID+"/like", "", nil)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *PostHandlerIntegrationTestSuite) TestToggleLikeRoundTripOverHTTP() {
	post := s.seedPost("Likeable")
	token := s.tokenFor(s.member)

	w := s.request(http.MethodPost, "/api/posts/"+post.ID+"/like", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(s.T(), true, response["liked"])
	assert.Equal(s.T(), float64(1), response["like_count"])

	w = s.request(http.MethodPost, "/api/posts/"+post.ID+"/like", token, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(s.T(), false, response["liked"])
	assert.Equal(s.T(), float64(0), response["like_count"])
}

func (s *PostHandlerIntegrationTestSuite) TestAddCommentRequiresAuth() {
	post := s.seedPost("Commentable")

	w := s.request(http.MethodPost, "/api/posts/"+post.ID+"/comments", "", map[string]string{
		"content": "anonymous thoughts",
	})
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *PostHandlerIntegrationTestSuite) TestAddCommentOverHTTP() {
	post := s.seedPost("Commentable")

	w := s.request(http.MethodPost, "/api/posts/"+post.ID+"/comments", s.tokenFor(s.member), map[string]string{
		"content": "  lovely story  ",
	})

	s.Require().Equal(http.StatusCreated, w.Code)

	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	comment := response["comment"].(map[string]interface{})
	assert.Equal(s.T(), "lovely story", comment["content"])
}

func (s *PostHandlerIntegrationTestSuite) TestAddCommentEmptyRejected() {
	post := s.seedPost("Commentable")

	w := s.request(http.MethodPost, "/api/posts/"+post.ID+"/comments", s.tokenFor(s.member), map[string]string{
		"content": "   ",
	})
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *PostHandlerIntegrationTestSuite) TestFeedHidesUnpublished() {
	s.seedPost("Public Story")
	hidden := testutil.CreateUnpublishedPost(s.admin.ID, "Hidden Story")
	s.Require().NoError(s.testDB.DB.Create(hidden).Error)

	w := s.request(http.MethodGet, "/api/posts", "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var response map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(s.T(), float64(1), response["count"])
	assert.NotContains(s.T(), w.Body.String(), "Hidden Story")
}

func (s *PostHandlerIntegrationTestSuite) TestGetBySlugPersonalizesForMember() {
	post := s.seedPost("Personal")
	s.Require().NoError(s.testDB.DB.Create(&models.Like{UserID: s.member.ID, PostID: post.ID}).Error)

	w := s.request(http.MethodGet, "/api/posts/"+post.Slug, s.tokenFor(s.member), nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var detail map[string]interface{}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &detail))
	assert.Equal(s.T(), true, detail["liked_by_me"])
	assert.Equal(s.T(), float64(1), detail["like_count"])
}

func (s *PostHandlerIntegrationTestSuite) TestGetBySlugUnknown() {
	w := s.request(http.MethodGet, "/api/posts/no-such-slug", "", nil)
	assert.Equal(s.T(), http.StatusNotFound, w.Code)
}

func TestPostHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(PostHandlerIntegrationTestSuite))
}
