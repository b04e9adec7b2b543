package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/calendar"
	"github.com/tapevault/backoffice/webapi/testutils"
	"golang.org/x/oauth2"
)

type serviceMock struct {
	mock.Mock
}

func (m *serviceMock) Connect(ctx context.Context, userID uuid.UUID, tok *oauth2.Token) (*calendar.User, error) {
	args := m.Called(ctx, userID, tok)
	u, _ := args.Get(0).(*calendar.User)
	return u, args.Error(1)
}

func (m *serviceMock) Disconnect(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func setup(t *testing.T) (*fiber.App, *serviceMock, string) {
	svc := &serviceMock{}
	t.Cleanup(func() { svc.AssertExpectations(t) })
	app := testutils.NewApp()
	Routes(app, svc, testutils.Auth)
	return app, svc, testutils.Token(t, []string{"calendar.manage"})
}

func TestConnect(t *testing.T) {
	app, svc, token := setup(t)
	userID := uuid.New()
	before := time.Now()

	var got *oauth2.Token
	svc.On("Connect", mock.Anything, userID, mock.Anything).
		Run(func(args mock.Arguments) { got = args.Get(2).(*oauth2.Token) }).
		Return(func() *calendar.User {
			raw, _ := calendar.EncodeToken(&oauth2.Token{RefreshToken: "r", Expiry: before.Add(time.Hour)})
			return &calendar.User{ID: userID, Email: "ops@example.com", GoogleToken: raw}
		}(), nil).Once()

	resp := testutils.MakeRequest(t, app, fiber.MethodPost, "/api/v1/calendar/users/"+userID.String()+"/token",
		`{"access_token":"a","refresh_token":"r","token_type":"Bearer","expires_in":3600}`, token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	dto := testutils.Decode[UserDTO](t, resp)
	assert.True(t, dto.Connected)

	require.NotNil(t, got)
	assert.Equal(t, "r", got.RefreshToken)
	assert.WithinDuration(t, before.Add(time.Hour), got.Expiry, time.Minute)
}

func TestConnect_Errors(t *testing.T) {
	app, svc, token := setup(t)
	userID := uuid.New()

	resp := testutils.MakeRequest(t, app, fiber.MethodPost, "/api/v1/calendar/users/"+userID.String()+"/token", `{"access_token":"a"}`, token)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	svc.On("Connect", mock.Anything, userID, mock.Anything).Return(nil, domain.ErrCalendarUserNotFound).Once()
	resp = testutils.MakeRequest(t, app, fiber.MethodPost, "/api/v1/calendar/users/"+userID.String()+"/token", `{"access_token":"a","refresh_token":"r"}`, token)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	noPerm := testutils.Token(t, []string{"jars.read"})
	resp = testutils.MakeRequest(t, app, fiber.MethodPost, "/api/v1/calendar/users/"+userID.String()+"/disconnect", "", noPerm)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestDisconnect(t *testing.T) {
	app, svc, token := setup(t)
	userID := uuid.New()
	svc.On("Disconnect", mock.Anything, userID).Return(nil).Once()

	resp := testutils.MakeRequest(t, app, fiber.MethodPost, "/api/v1/calendar/users/"+userID.String()+"/disconnect", "", token)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
