package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cristianortiz/auctionhouse/internal/shared/httpserver"
	"github.com/cristianortiz/auctionhouse/internal/shared/validator"
	"github.com/cristianortiz/auctionhouse/internal/user/application/mocks"
	"github.com/cristianortiz/auctionhouse/internal/user/domain"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newApp(t *testing.T) (*fiber.App, *mocks.UserService) {
	svc := mocks.NewUserService(t)
	app := fiber.New(fiber.Config{ErrorHandler: httpserver.ErrorHandler})
	NewUserHandler(svc, validator.New()).RegisterRoutes(app.Group("/api"))
	return app, svc
}

func TestCreateGuest(t *testing.T) {
	tests := []struct {
		desc       string
		body       string
		setup      func(svc *mocks.UserService)
		wantStatus int
		wantCode   string
	}{
		{
			desc: "created",
			body: `{"displayName":"alice","email":"alice@example.com"}`,
			setup: func(svc *mocks.UserService) {
				svc.On("CreateGuest", mock.Anything, "alice", "alice@example.com").
					Return(&domain.User{ID: uuid.New(), DisplayName: "alice", UserType: domain.UserTypeGuest}, nil).Once()
			},
			wantStatus: http.StatusCreated,
		},
		{
			desc:       "invalid email",
			body:       `{"displayName":"alice","email":"nope"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "VALIDATION",
		},
		{
			desc: "email taken",
			body: `{"displayName":"alice","email":"alice@example.com"}`,
			setup: func(svc *mocks.UserService) {
				svc.On("CreateGuest", mock.Anything, "alice", "alice@example.com").Return(nil, domain.ErrEmailTaken).Once()
			},
			wantStatus: http.StatusConflict,
			wantCode:   "CONFLICT",
		},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			app, svc := newApp(t)
			if tt.setup != nil {
				tt.setup(svc)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/users/guest", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			if tt.wantCode != "" {
				var body httpserver.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, tt.wantCode, string(body.Code))
			}
		})
	}
}

func TestGetUser(t *testing.T) {
	app, svc := newApp(t)
	id := uuid.New()
	svc.On("GetUser", mock.Anything, id).Return(&domain.User{ID: id, DisplayName: "bob"}, nil).Once()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/users/"+id.String(), nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var user domain.User
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&user))
	assert.Equal(t, "bob", user.DisplayName)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/users/42", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
