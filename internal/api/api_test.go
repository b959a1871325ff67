package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"lottery_system/internal/access"
	"lottery_system/internal/audit"
	"lottery_system/internal/credentials"
	"lottery_system/internal/domain"
	"lottery_system/internal/draws"
	"lottery_system/internal/login"
	"lottery_system/internal/lottery"
	"lottery_system/internal/middleware"
	"lottery_system/internal/testutil"
	"lottery_system/internal/users"
	"lottery_system/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type APISuite struct {
	suite.Suite
	db     *gorm.DB
	audit  *audit.Logger
	router *gin.Engine
	admin  *domain.User
}

func TestAPISuite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	s.db = testutil.SetupTestDatabase(s.T())
	crypto := testutil.Crypto(s.T())

	a, err := audit.Open(filepath.Join(s.T().TempDir(), "lottery.log"))
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = a.Close() })
	s.audit = a

	creds, err := credentials.NewStore(bcrypt.MinCost)
	s.Require().NoError(err)
	userSvc := users.NewService(users.NewRepository(s.db), creds, crypto, a, nil, "Stewart Foundation")
	manager := draws.NewManager(s.db, crypto, a)

	s.router = gin.New()
	Register(s.router, Deps{
		Users:      userSvc,
		Governor:   login.NewGovernor(userSvc, creds, login.NewMemoryStore(), a, login.DefaultMaxAttempts),
		Draws:      manager,
		Engine:     lottery.NewEngine(s.db, crypto, manager, lottery.WithSampler(func() ([]int, error) { return []int{1, 2, 3, 4, 5, 6}, nil })),
		Guard:      access.NewGuard(a),
		Audit:      a,
		Revoked:    utils.NewRevocationList(nil),
		JWTSecret:  "test-secret",
		SessionTTL: time.Hour,
	})
	s.admin = testutil.CreateUser(s.T(), s.db, "admin@email.com", domain.RoleAdmin)
}

type client struct {
	s      *APISuite
	token  string
	cookie *http.Cookie
}

func (s *APISuite) client() *client {
	return &client{s: s}
}

func (c *client) do(method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		c.s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	w := httptest.NewRecorder()
	c.s.router.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.Name == middleware.SessionCookie {
			c.cookie = ck
		}
	}
	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (c *client) login(email, secret string) (*httptest.ResponseRecorder, map[string]any) {
	code, err := totp.GenerateCode(secret, time.Now())
	c.s.Require().NoError(err)
	w, out := c.do(http.MethodPost, "/login", gin.H{
		"email":    email,
		"password": testutil.Password,
		"postcode": testutil.Postcode,
		"pin":      code,
	})
	if w.Code == http.StatusOK {
		c.token = out["token"].(string)
	}
	return w, out
}

func registration(email string) gin.H {
	return gin.H{
		"email":            email,
		"firstname":        "Alice",
		"lastname":         "Smith",
		"phone":            "0191-123-4567",
		"password":         testutil.Password,
		"confirm_password": testutil.Password,
		"dob":              "01/02/1990",
		"postcode":         testutil.Postcode,
	}
}

func (s *APISuite) registerAndLogin(email string) *client {
	c := s.client()
	w, out := c.do(http.MethodPost, "/register", registration(email))
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Require().NotEmpty(out["totp_uri"])

	w, _ = c.login(email, out["totp_secret"].(string))
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return c
}

func (s *APISuite) TestRegisterValidation() {
	c := s.client()
	bad := registration("alice@example.com")
	bad["phone"] = "12345"
	w, out := c.do(http.MethodPost, "/register", bad)
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("phone", out["field"])

	w, _ = c.do(http.MethodPost, "/register", registration("admin@email.com"))
	s.Equal(http.StatusBadRequest, w.Code)
	s.Contains(w.Body.String(), "Email address already exists")
}

func (s *APISuite) TestFullRound() {
	alice := s.registerAndLogin("alice@example.com")
	bob := s.registerAndLogin("bob@example.com")

	w, _ := alice.do(http.MethodPost, "/draws", gin.H{"numbers": []int{1, 2, 3, 4, 5, 6}})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	w, _ = bob.do(http.MethodPost, "/draws", gin.H{"numbers": []int{1, 2, 3, 4, 5, 7}})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w, out := alice.do(http.MethodGet, "/draws", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(out["draws"], 1)

	admin := s.client()
	w, _ = admin.login("admin@email.com", testutil.TOTPSecret)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w, _ = admin.do(http.MethodPost, "/admin/run-lottery", nil)
	s.Equal(http.StatusBadRequest, w.Code, "no winning draw yet")

	w, out = admin.do(http.MethodPost, "/admin/winning-draw", nil)
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	s.Equal("1 2 3 4 5 6", out["winning_draw"].(map[string]any)["numbers"])

	w, out = admin.do(http.MethodPost, "/admin/run-lottery", nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	results := out["results"].([]any)
	s.Require().Len(results, 1)
	s.Equal("alice@example.com", results[0].(map[string]any)["email"])

	w, out = alice.do(http.MethodGet, "/draws/results", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	played := out["results"].([]any)
	s.Require().Len(played, 1)
	s.Equal(true, played[0].(map[string]any)["matches_master"])

	w, out = bob.do(http.MethodDelete, "/draws/played", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.EqualValues(1, out["deleted"])

	w, out = admin.do(http.MethodGet, "/admin/round", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(string(lottery.RoundResolved), out["state"])
}

func (s *APISuite) TestRoleBoundaries() {
	alice := s.registerAndLogin("alice@example.com")
	admin := s.client()
	w, _ := admin.login("admin@email.com", testutil.TOTPSecret)
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = alice.do(http.MethodPost, "/admin/winning-draw", nil)
	s.Equal(http.StatusForbidden, w.Code)
	w, _ = admin.do(http.MethodPost, "/draws", gin.H{"numbers": []int{1, 2, 3, 4, 5, 6}})
	s.Equal(http.StatusForbidden, w.Code)
	w, _ = alice.do(http.MethodPost, "/register", registration("carol@example.com"))
	s.Equal(http.StatusForbidden, w.Code, "logged in callers cannot use anonymous routes")

	w, _ = s.client().do(http.MethodGet, "/draws", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APISuite) TestLockoutAndReset() {
	c := s.client()
	creds := gin.H{"email": "admin@email.com", "password": "Wrong1!x", "postcode": testutil.Postcode, "pin": "000000"}

	w, out := c.do(http.MethodPost, "/login", creds)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.EqualValues(2, out["attempts_remaining"])
	w, _ = c.do(http.MethodPost, "/login", creds)
	s.Equal(http.StatusUnauthorized, w.Code)
	w, _ = c.do(http.MethodPost, "/login", creds)
	s.Equal(http.StatusLocked, w.Code)

	w, _ = c.login("admin@email.com", testutil.TOTPSecret)
	s.Equal(http.StatusLocked, w.Code, "correct credentials are refused while locked")

	w, _ = c.do(http.MethodPost, "/reset", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	w, _ = c.login("admin@email.com", testutil.TOTPSecret)
	s.Equal(http.StatusOK, w.Code)
}

func (s *APISuite) TestLoginRequiresEveryField() {
	c := s.client()
	w, _ := c.do(http.MethodPost, "/login", gin.H{
		"email":    "admin@email.com",
		"password": testutil.Password,
		"postcode": testutil.Postcode,
	})
	s.Equal(http.StatusBadRequest, w.Code)

	w, out := c.do(http.MethodPost, "/login", gin.H{
		"email":    "admin@email.com",
		"password": "Wrong1!x",
		"postcode": testutil.Postcode,
		"pin":      "000000",
	})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.EqualValues(2, out["attempts_remaining"], "malformed requests do not use an attempt")
}

func (s *APISuite) TestLogoutRevokesToken() {
	alice := s.registerAndLogin("alice@example.com")
	w, _ := alice.do(http.MethodPost, "/logout", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = alice.do(http.MethodGet, "/account", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APISuite) TestAccountAndChangePassword() {
	alice := s.registerAndLogin("alice@example.com")
	w, out := alice.do(http.MethodGet, "/account", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("alice@example.com", out["email"])
	s.Contains(out["totp_uri"], "otpauth://totp/")
	s.NotContains(w.Body.String(), "PRIVATE KEY")

	w, out = alice.do(http.MethodPost, "/account/password", gin.H{
		"current_password": "Nope1!xx",
		"new_password":     "Newpass1!",
		"confirm_password": "Newpass1!",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.Equal("current_password", out["field"])

	w, _ = alice.do(http.MethodPost, "/account/password", gin.H{
		"current_password": testutil.Password,
		"new_password":     "Newpass1!",
		"confirm_password": "Newpass1!",
	})
	s.Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *APISuite) TestAdminViews() {
	s.registerAndLogin("alice@example.com")
	admin := s.client()
	w, _ := admin.login("admin@email.com", testutil.TOTPSecret)
	s.Require().Equal(http.StatusOK, w.Code)

	w, out := admin.do(http.MethodGet, "/admin/users?page=1&page_size=10", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.EqualValues(1, out["total"], "only player accounts are listed")

	w, out = admin.do(http.MethodGet, "/admin/activity", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	activity := out["activity"].([]any)
	s.Require().Len(activity, 1)
	s.EqualValues(1, activity[0].(map[string]any)["total_logins"])

	w, out = admin.do(http.MethodGet, "/admin/winning-draw", nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w, out = admin.do(http.MethodGet, "/admin/logs", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	logs := out["logs"].([]any)
	s.Require().NotEmpty(logs)
	s.LessOrEqual(len(logs), LogLines)
	s.Contains(logs[0], audit.EventLoginSuccess, "newest first")
}
