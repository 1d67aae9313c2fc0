package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"telegram-catalog/internal/api"
	"telegram-catalog/internal/auth"
	"telegram-catalog/internal/botruntime"
	"telegram-catalog/internal/cache"
	"telegram-catalog/internal/config"
	"telegram-catalog/internal/database"
	"telegram-catalog/internal/database/dbtest"
	"telegram-catalog/internal/mailout"
	"telegram-catalog/internal/media"
	"telegram-catalog/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	shop1Key  = "key-shop1"
	shop2Key  = "key-shop2"
	publicURL = "http://cdn.test"
)

type testServer struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	tokens *auth.TokenManager

	admin1 models.AdminUser // shop1
	admin2 models.AdminUser // shop2
	super  models.AdminUser // super admin of shop1
}

func newServer(t *testing.T) *testServer {
	t.Helper()

	db := dbtest.Open(t)
	x, err := database.SQLX(db)
	if err != nil {
		t.Fatalf("sqlx: %v", err)
	}

	s := &testServer{
		t:      t,
		db:     db,
		tokens: auth.NewTokenManager(config.JWTConfig{Secret: "test-secret", TTL: time.Hour}),
	}
	s.router = api.NewRouter(api.Deps{
		DB:                db,
		Tokens:            s.tokens,
		Configs:           cache.NewConfigService(db, cache.NewMemory(time.Hour), zap.NewNop()),
		Media:             media.NewStore(t.TempDir(), 1<<20),
		Mailouts:          mailout.NewService(db, x),
		Runtime:           botruntime.NewClient(config.RuntimeConfig{Timeout: 2 * time.Second}),
		PublicURL:         publicURL,
		MaxButtonsPerLine: 8,
		Log:               zap.NewNop(),
	})

	hash, err := auth.HashPassword("secret-pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	s.admin1 = models.AdminUser{AdminName: "admin1", PasswordHash: hash, BotIdentifier: "shop1"}
	s.admin2 = models.AdminUser{AdminName: "admin2", PasswordHash: hash, BotIdentifier: "shop2"}
	s.super = models.AdminUser{AdminName: "root", PasswordHash: hash, BotIdentifier: "shop1", IsSuper: true}
	s.create(
		&models.Bot{BotIdentifier: "shop1", APIKey: shop1Key},
		&models.Bot{BotIdentifier: "shop2", APIKey: shop2Key},
		&s.admin1, &s.admin2, &s.super,
	)
	return s
}

func (s *testServer) create(values ...interface{}) {
	s.t.Helper()
	for _, v := range values {
		if err := s.db.Create(v).Error; err != nil {
			s.t.Fatalf("create %T: %v", v, err)
		}
	}
}

func (s *testServer) bearer(admin models.AdminUser) string {
	s.t.Helper()
	token, err := s.tokens.Generate(admin)
	if err != nil {
		s.t.Fatalf("token: %v", err)
	}
	return "Bearer " + token
}

// do sends body as JSON (or raw when it is already a string) with the given
// Authorization header.
func (s *testServer) do(method, path, authorization string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			s.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) upload(path, authorization, filename string, content []byte) *httptest.ResponseRecorder {
	s.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		s.t.Fatalf("form file: %v", err)
	}
	part.Write(content)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", authorization)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func expect(t *testing.T, w *httptest.ResponseRecorder, code int) {
	t.Helper()
	if w.Code != code {
		t.Fatalf("status = %d, want %d; body: %s", w.Code, code, w.Body.String())
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}
