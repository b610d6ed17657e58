package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	authdto "github.com/johnquangdev/meeting-scribe/internal/adapter/dto/auth"
	"github.com/johnquangdev/meeting-scribe/internal/domain/entities"
	"github.com/johnquangdev/meeting-scribe/pkg/jwt"
	pkgvalidator "github.com/johnquangdev/meeting-scribe/pkg/validator"
)

type fakeIdentityStore struct {
	users map[uuid.UUID]*entities.User
}

func (s *fakeIdentityStore) ListMembers(ctx context.Context, projectID uuid.UUID) ([]*entities.ProjectMember, error) {
	return nil, nil
}

func (s *fakeIdentityStore) ListContacts(ctx context.Context, projectID uuid.UUID) ([]*entities.ProjectContact, error) {
	return nil, nil
}

func (s *fakeIdentityStore) CreateContact(ctx context.Context, contact *entities.ProjectContact) error {
	return nil
}

func (s *fakeIdentityStore) FindUserByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	return s.users[id], nil
}

func newAuthServer(users map[uuid.UUID]*entities.User) (*echo.Echo, *jwt.Manager) {
	m := jwt.NewManager("access-secret", "refresh-secret", time.Minute, time.Hour)
	e := echo.New()
	e.Validator = pkgvalidator.New()
	h := NewAuthHandler(m, &fakeIdentityStore{users: users}, nil)
	e.POST("/v1/auth/refresh", h.Refresh)
	return e, m
}

func postRefresh(t *testing.T, e *echo.Echo, token string) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(authdto.RefreshRequest{RefreshToken: token})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/v1/auth/refresh", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRefreshRotatesTokens(t *testing.T) {
	userID := uuid.New()
	e, m := newAuthServer(map[uuid.UUID]*entities.User{
		userID: {ID: userID, Email: "john@acme.test", Role: "admin"},
	})

	refresh, err := m.GenerateRefreshToken(userID)
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	rec := postRefresh(t, e, refresh)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data authdto.TokenResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	claims, err := m.ValidateAccessToken(resp.Data.AccessToken)
	if err != nil {
		t.Fatalf("issued access token must validate: %v", err)
	}
	if claims.UserID != userID || claims.Email != "john@acme.test" || claims.Role != "admin" {
		t.Fatalf("unexpected claims %+v", claims)
	}

	rotatedID, err := m.ValidateRefreshToken(resp.Data.RefreshToken)
	if err != nil {
		t.Fatalf("rotated refresh token must validate: %v", err)
	}
	if rotatedID != userID {
		t.Fatalf("expected user %s, got %s", userID, rotatedID)
	}
	if resp.Data.ExpiresIn != 60 {
		t.Fatalf("expected 60s expiry, got %d", resp.Data.ExpiresIn)
	}
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	userID := uuid.New()
	e, m := newAuthServer(map[uuid.UUID]*entities.User{
		userID: {ID: userID, Email: "john@acme.test", Role: "member"},
	})

	access, err := m.GenerateAccessToken(userID, "john@acme.test", "member")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if rec := postRefresh(t, e, access); rec.Code != http.StatusUnauthorized {
		t.Fatalf("access token must not refresh, got %d", rec.Code)
	}
}

func TestRefreshUnknownUser(t *testing.T) {
	e, m := newAuthServer(nil)

	refresh, err := m.GenerateRefreshToken(uuid.New())
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	if rec := postRefresh(t, e, refresh); rec.Code != http.StatusUnauthorized {
		t.Fatalf("deleted account must not refresh, got %d", rec.Code)
	}
}

func TestRefreshMissingToken(t *testing.T) {
	e, _ := newAuthServer(nil)

	if rec := postRefresh(t, e, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty token, got %d", rec.Code)
	}
}
