package recipient

import (
	"context"
	"fmt"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"github.com/tapevault/backoffice/pkg/domain"
	"github.com/tapevault/backoffice/pkg/domain/recipient"
	recipientsvc "github.com/tapevault/backoffice/pkg/service/recipient"
	"github.com/tapevault/backoffice/webapi/testutils"
)

type serviceMock struct {
	mock.Mock
}

func (m *serviceMock) List(ctx context.Context, technicianID uuid.UUID) ([]*recipient.Account, error) {
	args := m.Called(ctx, technicianID)
	accs, _ := args.Get(0).([]*recipient.Account)
	return accs, args.Error(1)
}

func (m *serviceMock) Create(ctx context.Context, technicianID uuid.UUID, in recipientsvc.Input) (*recipient.Account, error) {
	args := m.Called(ctx, technicianID, in)
	acc, _ := args.Get(0).(*recipient.Account)
	return acc, args.Error(1)
}

func (m *serviceMock) SetDefault(ctx context.Context, technicianID, id uuid.UUID) error {
	return m.Called(ctx, technicianID, id).Error(0)
}

func (m *serviceMock) Delete(ctx context.Context, technicianID, id uuid.UUID) error {
	return m.Called(ctx, technicianID, id).Error(0)
}

type RecipientHandlerTestSuite struct {
	suite.Suite
	app    *fiber.App
	svc    *serviceMock
	techID uuid.UUID
	token  string
	base   string
}

func (s *RecipientHandlerTestSuite) SetupTest() {
	s.svc = &serviceMock{}
	s.app = testutils.NewApp()
	Routes(s.app, s.svc, testutils.Auth)
	s.techID = uuid.New()
	s.token = testutils.Token(s.T(), []string{"recipients.read", "recipients.manage"})
	s.base = "/api/v1/technicians/" + s.techID.String() + "/recipients"
}

func (s *RecipientHandlerTestSuite) TearDownTest() {
	s.svc.AssertExpectations(s.T())
}

func TestRecipientHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(RecipientHandlerTestSuite))
}

func (s *RecipientHandlerTestSuite) TestList() {
	s.svc.On("List", mock.Anything, s.techID).Return([]*recipient.Account{
		{ID: uuid.New(), TechnicianID: s.techID, CountryCode: "GB", Currency: "GBP", WiseRecipientID: 9, IsDefault: true},
	}, nil).Once()

	resp := testutils.MakeRequest(s.T(), s.app, fiber.MethodGet, s.base, "", s.token)
	s.Equal(fiber.StatusOK, resp.StatusCode)
	got := testutils.Decode[[]AccountDTO](s.T(), resp)
	s.Require().Len(got, 1)
	s.True(got[0].IsDefault)
}

func (s *RecipientHandlerTestSuite) TestCreate() {
	want := recipientsvc.Input{CountryCode: "GB", Currency: "GBP", WiseRecipientID: 12, AccountHolderName: "Ann Tech", MakeDefault: true}
	s.svc.On("Create", mock.Anything, s.techID, want).
		Return(&recipient.Account{ID: uuid.New(), TechnicianID: s.techID, CountryCode: "GB", Currency: "GBP", WiseRecipientID: 12, IsDefault: true}, nil).Once()

	resp := testutils.MakeRequest(s.T(), s.app, fiber.MethodPost, s.base+"/new",
		`{"country_code":"GB","currency":"GBP","wise_recipient_id":12,"account_holder_name":"Ann Tech","make_default":true}`, s.token)
	s.Equal(fiber.StatusCreated, resp.StatusCode)

	resp = testutils.MakeRequest(s.T(), s.app, fiber.MethodPost, s.base+"/new", `{"country_code":"GB"}`, s.token)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}

func (s *RecipientHandlerTestSuite) TestSetDefaultAndDelete() {
	id := uuid.New()
	body := fmt.Sprintf(`{"id":%q}`, id)

	s.svc.On("SetDefault", mock.Anything, s.techID, id).Return(nil).Once()
	resp := testutils.MakeRequest(s.T(), s.app, fiber.MethodPost, s.base+"/default", body, s.token)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	s.svc.On("Delete", mock.Anything, s.techID, id).Return(domain.ErrDefaultRecipientDelete).Once()
	resp = testutils.MakeRequest(s.T(), s.app, fiber.MethodPost, s.base+"/delete", body, s.token)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)

	s.svc.On("SetDefault", mock.Anything, s.techID, id).Return(domain.ErrRecipientNotFound).Once()
	resp = testutils.MakeRequest(s.T(), s.app, fiber.MethodPost, s.base+"/default", body, s.token)
	s.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func (s *RecipientHandlerTestSuite) TestTechnicianScope() {
	own := testutils.Token(s.T(), []string{"recipients.read"}, s.techID)
	s.svc.On("List", mock.Anything, s.techID).Return([]*recipient.Account{}, nil).Once()
	resp := testutils.MakeRequest(s.T(), s.app, fiber.MethodGet, s.base, "", own)
	s.Equal(fiber.StatusOK, resp.StatusCode)

	other := testutils.Token(s.T(), []string{"recipients.read"}, uuid.New())
	resp = testutils.MakeRequest(s.T(), s.app, fiber.MethodGet, s.base, "", other)
	s.Equal(fiber.StatusForbidden, resp.StatusCode)

	resp = testutils.MakeRequest(s.T(), s.app, fiber.MethodGet, "/api/v1/technicians/nope/recipients", "", s.token)
	s.Equal(fiber.StatusBadRequest, resp.StatusCode)
}
