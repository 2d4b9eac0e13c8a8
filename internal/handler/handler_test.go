package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yariga/internal/auth"
	apperrors "yariga/internal/errors"
	"yariga/internal/model"
	"yariga/internal/service"
)

// MockPropertyService is a mock implementation of service.PropertyService.
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) List(ctx context.Context, q service.ListQuery) ([]model.Property, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Property), args.Get(1).(int64), args.Error(2)
}

func (m *MockPropertyService) Get(ctx context.Context, id uuid.UUID) (*model.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyService) Create(ctx context.Context, in service.CreatePropertyInput) (*model.Property, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyService) Update(ctx context.Context, id uuid.UUID, in service.UpdatePropertyInput) (*model.Property, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Property), args.Error(1)
}

func (m *MockPropertyService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockUserService is a mock implementation of service.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Login(ctx context.Context, p service.Profile) (*model.User, string, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

func (m *MockUserService) List(ctx context.Context, start, end int) ([]model.User, int64, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type testValidator struct {
	v *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.v.Struct(i)
}

func newTestEcho(props *MockPropertyService, users *MockUserService, mw ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.Validator = &testValidator{v: validator.New()}
	e.Use(mw...)

	ph := NewPropertyHandler(props)
	e.GET("/properties", ph.ListProperties)
	e.GET("/properties/:id", ph.GetProperty)
	e.POST("/properties", ph.CreateProperty)
	e.PATCH("/properties/:id", ph.UpdateProperty)
	e.DELETE("/properties/:id", ph.DeleteProperty)

	uh := NewUserHandler(users)
	e.POST("/users", uh.CreateUser)
	e.GET("/users", uh.ListUsers)
	e.GET("/users/:id", uh.GetUser)
	return e
}

func do(e *echo.Echo, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.ErrorResponse {
	t.Helper()
	var body apperrors.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestListProperties(t *testing.T) {
	props := new(MockPropertyService)
	e := newTestEcho(props, new(MockUserService))

	items := []model.Property{{ID: uuid.New(), Title: "Loft", PropertyType: "Office", Price: decimal.NewFromInt(5)}}
	props.On("List", mock.Anything, service.ListQuery{
		Start: 0, End: 10, Sort: "price", Order: "asc", TitleLike: "loft", PropertyType: "Office",
	}).Return(items, int64(42), nil).Once()

	rec := do(e, http.MethodGet, "/properties?_start=0&_end=10&_sort=price&_order=asc&title_like=loft&propertyType=Office", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Header().Get(HeaderTotalCount))
	assert.Equal(t, HeaderTotalCount, rec.Header().Get(echo.HeaderAccessControlExposeHeaders))

	var body []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, 1)
	assert.Equal(t, "Loft", body[0]["title"])
	props.AssertExpectations(t)
}

func TestListProperties_DefaultWindow(t *testing.T) {
	props := new(MockPropertyService)
	e := newTestEcho(props, new(MockUserService))
	props.On("List", mock.Anything, service.ListQuery{Start: 20, End: 30}).Return([]model.Property{}, int64(0), nil).Once()

	rec := do(e, http.MethodGet, "/properties?_start=20", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0", rec.Header().Get(HeaderTotalCount))
	props.AssertExpectations(t)
}

func TestListProperties_BadQuery(t *testing.T) {
	props := new(MockPropertyService)
	e := newTestEcho(props, new(MockUserService))

	rec := do(e, http.MethodGet, "/properties?_start=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_QUERY", decodeError(t, rec).Code)

	props.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), apperrors.ErrInvalidQuery).Once()
	rec = do(e, http.MethodGet, "/properties?_sort=bogus&_order=asc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetProperty(t *testing.T) {
	props := new(MockPropertyService)
	e := newTestEcho(props, new(MockUserService))

	id := uuid.New()
	owner := &model.User{ID: uuid.New(), Name: "Ana", Email: "ana@example.com"}
	props.On("Get", mock.Anything, id).Return(&model.Property{ID: id, Title: "Loft", CreatorID: owner.ID, Creator: owner}, nil).Once()

	rec := do(e, http.MethodGet, "/properties/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, id.String(), body["_id"])
	creator, ok := body["creator"].(map[string]interface{})
	require.True(t, ok, "creator is joined")
	assert.Equal(t, "ana@example.com", creator["email"])
}

func TestGetProperty_NotFound(t *testing.T) {
	props := new(MockPropertyService)
	e := newTestEcho(props, new(MockUserService))

	id := uuid.New()
	props.On("Get", mock.Anything, id).Return(nil, apperrors.ErrPropertyNotFound).Once()

	rec := do(e, http.MethodGet, "/properties/"+id.String(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "property not found", decodeError(t, rec).Message)

	rec = do(e, http.MethodGet, "/properties/not-a-uuid", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	props.AssertNumberOfCalls(t, "Get", 1)
}

func TestGetProperty_StoreFailure(t *testing.T) {
	props := new(MockPropertyService)
	e := newTestEcho(props, new(MockUserService))
	props.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()

	rec := do(e, http.MethodGet, "/properties/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "connection reset", decodeError(t, rec).Message)
}

const createBody = `{"title":"Loft","description":"Quiet","propertyType":"Apartment","location":"Lisbon","price":1250.5,"photo":"https://img/p.png","email":"ana@example.com"}`

func TestCreateProperty(t *testing.T) {
	props := new(MockPropertyService)
	e := newTestEcho(props, new(MockUserService))

	props.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreatePropertyInput) bool {
		return in.Title == "Loft" && in.Email == "ana@example.com" && in.Price.Equal(decimal.RequireFromString("1250.5"))
	})).Return(&model.Property{ID: uuid.New()}, nil).Once()

	rec := do(e, http.MethodPost, "/properties", createBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Property created successfully"}`, rec.Body.String())
	props.AssertExpectations(t)
}

func TestCreateProperty_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{"malformed json", `{"title":`, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"missing title", `{"description":"d","propertyType":"House","location":"x","price":1,"photo":"p"}`, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"bad email", `{"title":"t","description":"d","propertyType":"House","location":"x","price":1,"photo":"p","email":"nope"}`, nil, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown user", createBody, apperrors.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
		{"upload failed", createBody, apperrors.ErrPhotoUpload, http.StatusInternalServerError, "PHOTO_UPLOAD_FAILED"},
		{"transaction aborted", createBody, errors.New("save user: deadlock"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			props := new(MockPropertyService)
			e := newTestEcho(props, new(MockUserService))
			if tt.svcErr != nil {
				props.On("Create", mock.Anything, mock.Anything).Return(nil, tt.svcErr).Once()
			}

			rec := do(e, http.MethodPost, "/properties", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
			if tt.svcErr == nil {
				props.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestCreateProperty_SessionEmail(t *testing.T) {
	jwtService := auth.NewJWTService("secret")
	token, err := jwtService.GenerateSessionToken(uuid.New(), "agent@example.com")
	require.NoError(t, err)

	props := new(MockPropertyService)
	e := newTestEcho(props, new(MockUserService), auth.OptionalSession(jwtService))
	props.On("Create", mock.Anything, mock.MatchedBy(func(in service.CreatePropertyInput) bool {
		return in.Email == "agent@example.com"
	})).Return(&model.Property{ID: uuid.New()}, nil).Once()

	body := `{"title":"Loft","description":"Quiet","propertyType":"Apartment","location":"Lisbon","price":10,"photo":"p"}`
	rec := do(e, http.MethodPost, "/properties", body, echo.HeaderAuthorization, "Bearer "+token)
	assert.Equal(t, http.StatusOK, rec.Code)
	props.AssertExpectations(t)
}

func TestUpdateProperty(t *testing.T) {
	props := new(MockPropertyService)
	e := newTestEcho(props, new(MockUserService))
	id := uuid.New()

	props.On("Update", mock.Anything, id, mock.MatchedBy(func(in service.UpdatePropertyInput) bool {
		return in.Title != nil && *in.Title == "New" && in.Photo != nil && in.Location == nil
	})).Return(&model.Property{ID: id}, nil).Once()

	rec := do(e, http.MethodPatch, "/properties/"+id.String(), `{"title":"New","photo":"https://img/p.png"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Property updated successfully"}`, rec.Body.String())

	props.On("Update", mock.Anything, mock.Anything, mock.Anything).Return(nil, apperrors.ErrPropertyNotFound).Once()
	rec = do(e, http.MethodPatch, "/properties/"+uuid.NewString(), `{"title":"New"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProperty(t *testing.T) {
	props := new(MockPropertyService)
	e := newTestEcho(props, new(MockUserService))
	id := uuid.New()

	props.On("Delete", mock.Anything, id).Return(nil).Once()
	rec := do(e, http.MethodDelete, "/properties/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Property deleted successfully"}`, rec.Body.String())

	props.On("Delete", mock.Anything, mock.Anything).Return(apperrors.ErrPropertyNotFound).Once()
	rec = do(e, http.MethodDelete, "/properties/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateUser(t *testing.T) {
	users := new(MockUserService)
	e := newTestEcho(new(MockPropertyService), users)

	user := &model.User{ID: uuid.New(), Name: "Ana", Email: "ana@example.com", Avatar: "https://img/a.png"}
	users.On("Login", mock.Anything, service.Profile{Name: "Ana", Email: "ana@example.com", Avatar: "https://img/a.png"}).
		Return(user, "session-token", nil).Twice()

	for i := 0; i < 2; i++ {
		rec := do(e, http.MethodPost, "/users", `{"name":"Ana","email":"ana@example.com","avatar":"https://img/a.png"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, user.ID.String(), body["_id"])
		assert.Equal(t, "session-token", body["token"])
		assert.Equal(t, []interface{}{}, body["allProperties"])
	}
	users.AssertExpectations(t)
}

func TestCreateUser_Invalid(t *testing.T) {
	users := new(MockUserService)
	e := newTestEcho(new(MockPropertyService), users)

	rec := do(e, http.MethodPost, "/users", `{"name":"Ana"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertNotCalled(t, "Login", mock.Anything, mock.Anything)
}

func TestListUsers(t *testing.T) {
	users := new(MockUserService)
	e := newTestEcho(new(MockPropertyService), users)

	users.On("List", mock.Anything, 0, 10).Return([]model.User{{ID: uuid.New(), Name: "Ana"}}, int64(3), nil).Once()
	rec := do(e, http.MethodGet, "/users", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3", rec.Header().Get(HeaderTotalCount))
}

func TestGetUser(t *testing.T) {
	users := new(MockUserService)
	e := newTestEcho(new(MockPropertyService), users)

	id := uuid.New()
	pid := uuid.New()
	users.On("Get", mock.Anything, id).Return(&model.User{
		ID:         id,
		Name:       "Ana",
		Properties: []model.Property{{ID: pid, Title: "Loft", CreatorID: id}},
	}, nil).Once()

	rec := do(e, http.MethodGet, "/users/"+id.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		AllProperties []map[string]interface{} `json:"allProperties"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.AllProperties, 1)
	assert.Equal(t, pid.String(), body.AllProperties[0]["_id"])

	rec = do(e, http.MethodGet, "/users/garbage", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", decodeError(t, rec).Code)
}

func TestHealth(t *testing.T) {
	e := echo.New()
	h := NewHealthHandler(map[string]Pinger{
		"database": func(context.Context) error { return nil },
	})
	e.GET("/healthz", h.Health)

	rec := do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	h.checks["cache"] = func(context.Context) error { return errors.New("dial tcp: refused") }
	rec = do(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Checks["database"])
}
