package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/lorekeep/lorekeep/db"
	"github.com/lorekeep/lorekeep/internal/auth"
	"github.com/lorekeep/lorekeep/internal/models"
	"github.com/lorekeep/lorekeep/internal/router"
	"github.com/lorekeep/lorekeep/internal/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testPassword = "password123"

type recordedMail struct {
	To       string
	Username string
	Token    string
}

// recorderMailer captures outbound mail so tests can follow the links.
type recorderMailer struct {
	mu            sync.Mutex
	verifications []recordedMail
	resets        []recordedMail
}

func (m *recorderMailer) SendVerification(_ context.Context, to, username, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications = append(m.verifications, recordedMail{To: to, Username: username, Token: token})
	return nil
}

func (m *recorderMailer) SendPasswordReset(_ context.Context, to, username, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resets = append(m.resets, recordedMail{To: to, Username: username, Token: token})
	return nil
}

func (m *recorderMailer) lastVerification(t *testing.T) recordedMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.verifications, "expected a verification email")
	return m.verifications[len(m.verifications)-1]
}

func (m *recorderMailer) lastReset(t *testing.T) recordedMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.resets, "expected a password reset email")
	return m.resets[len(m.resets)-1]
}

type testApp struct {
	router    *gin.Engine
	db        *gorm.DB
	tokens    *auth.Manager
	mail      *recorderMailer
	uploads   *storage.Store
	uploadDir string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Migrate(database))

	uploadDir := t.TempDir()
	store, err := storage.NewStore(uploadDir)
	require.NoError(t, err)

	tokens := auth.NewManager("test-secret")
	mail := &recorderMailer{}

	r := router.New(router.Dependencies{
		DB:      database,
		Tokens:  tokens,
		Mailer:  mail,
		Uploads: store,
	})

	return &testApp{
		router:    r,
		db:        database,
		tokens:    tokens,
		mail:      mail,
		uploads:   store,
		uploadDir: uploadDir,
	}
}

func (app *testApp) createUser(t *testing.T, username string, verified bool) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		IsActive:     true,
		IsVerified:   verified,
	}

	require.NoError(t, app.db.Create(&user).Error)
	return user
}

func (app *testApp) accessToken(t *testing.T, userID uint) string {
	t.Helper()

	token, err := app.tokens.GenerateAccessToken(userID)
	require.NoError(t, err)
	return token
}

func (app *testApp) request(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

// multipartRequest submits form fields plus an optional file part.
func (app *testApp) multipartRequest(t *testing.T, method, path string, fields map[string]string, filePart, fileName string, fileContent []byte, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}

	if filePart != "" {
		part, err := writer.CreateFormFile(filePart, fileName)
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, w.Code, "unexpected status, body: %s", w.Body.String())
}

func jsonGet[T any](t *testing.T, body map[string]interface{}, key string) T {
	t.Helper()

	value, ok := body[key]
	require.True(t, ok, "missing key %q", key)

	typed, ok := value.(T)
	require.True(t, ok, "key %q has unexpected type %T", key, value)
	return typed
}
