package members

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rolegate/entity"
	"rolegate/lib/api/response"
)

type mockCore struct {
	MemberListFunc     func(ctx context.Context) ([]*entity.Member, error)
	MemberCreateFunc   func(ctx context.Context, m *entity.Member) (*entity.Member, error)
	MemberUpdateFunc   func(ctx context.Context, m *entity.Member) (*entity.Member, error)
	MemberDeleteFunc   func(ctx context.Context, id int64) (*entity.Member, error)
	MembersByBatchFunc func(ctx context.Context, batchCode string) ([]*entity.Member, error)
	RecentMembersFunc  func(ctx context.Context) ([]*entity.Member, error)
	BatchCodesFunc     func(ctx context.Context) ([]string, error)
}

func (m *mockCore) MemberList(ctx context.Context) ([]*entity.Member, error) {
	return m.MemberListFunc(ctx)
}

func (m *mockCore) MemberCreate(ctx context.Context, member *entity.Member) (*entity.Member, error) {
	return m.MemberCreateFunc(ctx, member)
}

func (m *mockCore) MemberUpdate(ctx context.Context, member *entity.Member) (*entity.Member, error) {
	return m.MemberUpdateFunc(ctx, member)
}

func (m *mockCore) MemberDelete(ctx context.Context, id int64) (*entity.Member, error) {
	return m.MemberDeleteFunc(ctx, id)
}

func (m *mockCore) MembersByBatch(ctx context.Context, batchCode string) ([]*entity.Member, error) {
	return m.MembersByBatchFunc(ctx, batchCode)
}

func (m *mockCore) RecentMembers(ctx context.Context) ([]*entity.Member, error) {
	return m.RecentMembersFunc(ctx)
}

func (m *mockCore) BatchCodes(ctx context.Context) ([]string, error) {
	return m.BatchCodesFunc(ctx)
}

func testRouter(handler Core) http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	r.Get("/members", List(log, handler))
	r.Post("/members", Create(log, handler))
	r.Put("/members/{id}", Update(log, handler))
	r.Delete("/members/{id}", Delete(log, handler))
	r.Get("/members/batch/{code}", ByBatch(log, handler))
	r.Get("/batches", Batches(log, handler))
	return r
}

func decode(t *testing.T, body io.Reader) response.Response {
	t.Helper()
	var resp response.Response
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}

func TestListMembers(t *testing.T) {
	core := &mockCore{
		MemberListFunc: func(context.Context) ([]*entity.Member, error) {
			return []*entity.Member{{Id: 1, FirstName: "Jane", LastName: "Doe"}}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/members", nil)
	rec := httptest.NewRecorder()
	testRouter(core).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec.Body)
	assert.True(t, resp.Success)
}

func TestCreateMember(t *testing.T) {
	var created *entity.Member
	core := &mockCore{
		MemberCreateFunc: func(_ context.Context, m *entity.Member) (*entity.Member, error) {
			m.Id = 1
			m.ReferenceCode = "generated-code"
			created = m
			return m, nil
		},
	}

	body := `{"batch_code":"2024A","first_name":"Jane","last_name":"Doe","internal_role":"role_42"}`
	req := httptest.NewRequest(http.MethodPost, "/members", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	testRouter(core).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, created)
	assert.Equal(t, "Jane", created.FirstName)
	resp := decode(t, rec.Body)
	assert.True(t, resp.Success)
}

func TestCreateMemberValidation(t *testing.T) {
	core := &mockCore{
		MemberCreateFunc: func(_ context.Context, m *entity.Member) (*entity.Member, error) {
			t.Fatal("create must not be called on invalid input")
			return nil, nil
		},
	}

	// missing last_name and first_name over 32 characters
	body := `{"first_name":"` + strings.Repeat("x", 33) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/members", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	testRouter(core).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec.Body)
	assert.False(t, resp.Success)
}

func TestCreateMemberDuplicateCode(t *testing.T) {
	core := &mockCore{
		MemberCreateFunc: func(context.Context, *entity.Member) (*entity.Member, error) {
			return nil, entity.ErrDuplicateCode
		},
	}

	body := `{"first_name":"Jane","last_name":"Doe"}`
	req := httptest.NewRequest(http.MethodPost, "/members", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	testRouter(core).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	resp := decode(t, rec.Body)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.StatusMessage, "reference code already exists")
}

func TestUpdateMemberNotFound(t *testing.T) {
	core := &mockCore{
		MemberUpdateFunc: func(context.Context, *entity.Member) (*entity.Member, error) {
			return nil, entity.ErrNotFound
		},
	}

	body := `{"first_name":"Jane","last_name":"Doe"}`
	req := httptest.NewRequest(http.MethodPut, "/members/42", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	testRouter(core).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateMemberBadId(t *testing.T) {
	core := &mockCore{}

	req := httptest.NewRequest(http.MethodPut, "/members/abc", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	testRouter(core).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteMember(t *testing.T) {
	var deletedId int64
	core := &mockCore{
		MemberDeleteFunc: func(_ context.Context, id int64) (*entity.Member, error) {
			deletedId = id
			return &entity.Member{Id: id}, nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/members/7", nil)
	rec := httptest.NewRecorder()
	testRouter(core).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), deletedId)
}

func TestMembersByBatch(t *testing.T) {
	var gotBatch string
	core := &mockCore{
		MembersByBatchFunc: func(_ context.Context, batchCode string) ([]*entity.Member, error) {
			gotBatch = batchCode
			return nil, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/members/batch/2024A", nil)
	rec := httptest.NewRecorder()
	testRouter(core).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2024A", gotBatch)
}

func TestBatches(t *testing.T) {
	core := &mockCore{
		BatchCodesFunc: func(context.Context) ([]string, error) {
			return []string{"2024A", "2024B"}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/batches", nil)
	rec := httptest.NewRecorder()
	testRouter(core).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec.Body)
	assert.True(t, resp.Success)
}
