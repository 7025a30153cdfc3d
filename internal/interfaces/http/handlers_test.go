package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-sunat/internal/application/dto"
	"github.com/jhoicas/facturador-sunat/internal/domain"
	apphttp "github.com/jhoicas/facturador-sunat/internal/interfaces/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Dobles de los casos de uso
// ──────────────────────────────────────────────────────────────────────────────

type stubDocs struct {
	issueErr    error
	lastIssuer  string
	lastRequest dto.IssueDocumentRequest
	getErr      error
	resubmitErr error
	lastDay     time.Time
	today       time.Time
}

func (s *stubDocs) Issue(_ context.Context, issuerID string, req dto.IssueDocumentRequest) (*dto.IssueAck, error) {
	s.lastIssuer, s.lastRequest = issuerID, req
	if s.issueErr != nil {
		return nil, s.issueErr
	}
	return &dto.IssueAck{ID: "doc-1", Status: "pending", Serie: "F001", Numero: 7}, nil
}

func (s *stubDocs) Get(_ context.Context, issuerID, id string) (*dto.DocumentResponse, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &dto.DocumentResponse{ID: id, Serie: "F001", Numero: 7, Status: "accepted"}, nil
}

func (s *stubDocs) Status(_ context.Context, issuerID, id string) (*dto.DocumentStatusDTO, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &dto.DocumentStatusDTO{ID: id, Status: "submitting"}, nil
}

func (s *stubDocs) Progress(_ context.Context, issuerID string, day time.Time) (*dto.ProgressResponse, error) {
	s.lastDay = day
	return &dto.ProgressResponse{Fecha: day.Format("2006-01-02"), PorEstado: map[string]int{"accepted": 3}, Total: 3}, nil
}

func (s *stubDocs) Today() time.Time { return s.today }

func (s *stubDocs) Resubmit(_ context.Context, issuerID, id string) (*dto.DocumentStatusDTO, error) {
	if s.resubmitErr != nil {
		return nil, s.resubmitErr
	}
	return &dto.DocumentStatusDTO{ID: id, Status: "submitting"}, nil
}

func (s *stubDocs) ResubmitRejected(_ context.Context, issuerID string, day time.Time) (*dto.BatchResubmitResult, error) {
	s.lastDay = day
	return &dto.BatchResubmitResult{Fecha: day.Format("2006-01-02"), Encolados: 2}, nil
}

type stubCreds struct {
	uploadErr  error
	lastIssuer string
	lastPFX    []byte
	lastPass   string
}

func (s *stubCreds) CreateIssuer(_ context.Context, in dto.CreateIssuerRequest) (*dto.IssuerResponse, error) {
	if in.RUC == "" {
		return nil, domain.NewValidationError("ruc", "requerido")
	}
	return &dto.IssuerResponse{ID: "iss-1", RUC: in.RUC}, nil
}

func (s *stubCreds) UploadCertificate(_ context.Context, issuerID string, pfx []byte, password string) (*dto.CertificateResponse, error) {
	s.lastIssuer, s.lastPFX, s.lastPass = issuerID, pfx, password
	if s.uploadErr != nil {
		return nil, s.uploadErr
	}
	return &dto.CertificateResponse{ID: "cert-1", IssuerID: issuerID, Activo: true}, nil
}

type stubAuth struct{}

func (stubAuth) CreateUser(_ context.Context, in dto.CreateUserRequest) (*dto.UserResponse, error) {
	if in.Email == "dup@empresa.pe" {
		return nil, fmt.Errorf("user: %w", domain.ErrDuplicate)
	}
	return &dto.UserResponse{ID: "user-1", Email: in.Email, Role: in.Role}, nil
}

func (stubAuth) Login(_ context.Context, in dto.LoginRequest) (*dto.LoginResponse, error) {
	if in.Password != "clave-segura" {
		return nil, domain.ErrUnauthorized
	}
	return &dto.LoginResponse{Token: "tok", User: dto.UserResponse{Email: in.Email}}, nil
}

func newAPI(docs *stubDocs, creds *stubCreds) *fiber.App {
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		IssueUC:       docs,
		QueryUC:       docs,
		ResubmitUC:    docs,
		CredentialsUC: creds,
		AuthUC:        stubAuth{},
		JWTSecret:     testJWTSecret,
	})
	return app
}

func call(t *testing.T, app *fiber.App, method, path, role string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(t, role))
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

// ──────────────────────────────────────────────────────────────────────────────
// Comprobantes
// ──────────────────────────────────────────────────────────────────────────────

func TestDocuments_Issue_Responde202(t *testing.T) {
	docs := &stubDocs{}
	app := newAPI(docs, &stubCreds{})

	resp, body := call(t, app, http.MethodPost, "/api/documents", "emisor", map[string]any{
		"tipo_doc": "01",
		"cliente":  map[string]any{"tipo_doc": "6", "num_doc": "20123456786", "nombre": "ACME SAC"},
		"items":    []map[string]any{{"descripcion": "Servicio", "cantidad": "1", "valor_unitario": "100"}},
	})

	require.Equal(t, http.StatusAccepted, resp.StatusCode, string(body))
	var ack dto.IssueAck
	require.NoError(t, json.Unmarshal(body, &ack))
	assert.Equal(t, "doc-1", ack.ID)
	assert.Equal(t, "pending", ack.Status)
	assert.Equal(t, testIssuerID, docs.lastIssuer, "el emisor sale del token, no del cuerpo")
	assert.Equal(t, "01", docs.lastRequest.TipoDoc)
	require.Len(t, docs.lastRequest.Items, 1)
}

func TestDocuments_Issue_ValidacionRetorna400(t *testing.T) {
	docs := &stubDocs{issueErr: domain.NewValidationError("cliente.num_doc", "RUC inválido")}
	app := newAPI(docs, &stubCreds{})

	resp, body := call(t, app, http.MethodPost, "/api/documents", "emisor", map[string]any{"tipo_doc": "01"})

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "VALIDATION")
	assert.Contains(t, string(body), "cliente.num_doc")
}

func TestDocuments_Issue_RolConsultaNoEmite(t *testing.T) {
	app := newAPI(&stubDocs{}, &stubCreds{})
	resp, _ := call(t, app, http.MethodPost, "/api/documents", "consulta", map[string]any{})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestDocuments_Get_NoEncontrado(t *testing.T) {
	docs := &stubDocs{getErr: fmt.Errorf("comprobante x: %w", domain.ErrNotFound)}
	app := newAPI(docs, &stubCreds{})

	resp, body := call(t, app, http.MethodGet, "/api/documents/x", "consulta", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(body), "NOT_FOUND")
}

func TestDocuments_Status(t *testing.T) {
	app := newAPI(&stubDocs{}, &stubCreds{})

	resp, body := call(t, app, http.MethodGet, "/api/documents/doc-9/status", "consulta", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out dto.DocumentStatusDTO
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "doc-9", out.ID)
	assert.Equal(t, "submitting", out.Status)
}

func TestDocuments_Resubmit_ConflictoRetorna409(t *testing.T) {
	docs := &stubDocs{resubmitErr: fmt.Errorf("estado accepted: %w", domain.ErrConflict)}
	app := newAPI(docs, &stubCreds{})

	resp, body := call(t, app, http.MethodPost, "/api/documents/doc-1/resubmit", "emisor", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "CONFLICT")
}

func TestDocuments_ResubmitRejected_SoloAdmin(t *testing.T) {
	docs := &stubDocs{}
	app := newAPI(docs, &stubCreds{})

	resp, _ := call(t, app, http.MethodPost, "/api/documents/resubmit-rejected?fecha=2026-03-10", "emisor", nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := call(t, app, http.MethodPost, "/api/documents/resubmit-rejected?fecha=2026-03-10", "admin", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "2026-03-10", docs.lastDay.Format("2006-01-02"))

	var out dto.BatchResubmitResult
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 2, out.Encolados)
}

func TestDocuments_ResubmitRejected_FechaInvalida(t *testing.T) {
	app := newAPI(&stubDocs{}, &stubCreds{})
	resp, body := call(t, app, http.MethodPost, "/api/documents/resubmit-rejected?fecha=10-03-2026", "admin", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "VALIDATION")
}

func TestDocuments_Progress_UsaHoySinFecha(t *testing.T) {
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.FixedZone("PET", -5*3600))
	docs := &stubDocs{today: today}
	app := newAPI(docs, &stubCreds{})

	resp, body := call(t, app, http.MethodGet, "/api/documents/progress", "consulta", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.True(t, docs.lastDay.Equal(today))

	var out dto.ProgressResponse
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, 3, out.Total)
	assert.Equal(t, 3, out.PorEstado["accepted"])
}

func TestDocuments_SinToken_Retorna401(t *testing.T) {
	app := newAPI(&stubDocs{}, &stubCreds{})
	resp, _ := call(t, app, http.MethodGet, "/api/documents/doc-1", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Emisores y certificados
// ──────────────────────────────────────────────────────────────────────────────

func TestIssuers_Create(t *testing.T) {
	app := newAPI(&stubDocs{}, &stubCreds{})

	resp, _ := call(t, app, http.MethodPost, "/api/issuers", "emisor", map[string]any{"ruc": "20000000001"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode, "solo admin registra emisores")

	resp, body := call(t, app, http.MethodPost, "/api/issuers", "admin", map[string]any{"ruc": "20000000001"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "20000000001")

	resp, _ = call(t, app, http.MethodPost, "/api/issuers", "admin", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func uploadRequest(t *testing.T, password string, pfx []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("password", password))
	part, err := w.CreateFormFile("pfx", "cert.pfx")
	require.NoError(t, err)
	_, err = part.Write(pfx)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/certificates", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", tokenForRole(t, "admin"))
	return req
}

func TestCertificates_Upload(t *testing.T) {
	creds := &stubCreds{}
	app := newAPI(&stubDocs{}, creds)

	resp, err := app.Test(uploadRequest(t, "demo123", []byte("pfx-bytes")), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, testIssuerID, creds.lastIssuer)
	assert.Equal(t, []byte("pfx-bytes"), creds.lastPFX)
	assert.Equal(t, "demo123", creds.lastPass)
}

func TestCertificates_ContrasenaIncorrecta_Retorna422(t *testing.T) {
	creds := &stubCreds{uploadErr: &domain.CertificateError{Reason: "no se pudo abrir el PFX", Err: errors.New("pkcs12: decryption password incorrect")}}
	app := newAPI(&stubDocs{}, creds)

	resp, err := app.Test(uploadRequest(t, "mala", []byte("pfx-bytes")), -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

// ──────────────────────────────────────────────────────────────────────────────
// Auth
// ──────────────────────────────────────────────────────────────────────────────

func TestAuth_LoginEsPublico(t *testing.T) {
	app := newAPI(&stubDocs{}, &stubCreds{})

	resp, body := call(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "caja@empresa.pe", "password": "clave-segura"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"token":"tok"`)

	resp, body = call(t, app, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "caja@empresa.pe", "password": "otra"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, string(body), "credenciales inválidas")
}

func TestAuth_CrearUsuarioSoloAdmin(t *testing.T) {
	app := newAPI(&stubDocs{}, &stubCreds{})
	in := map[string]any{"email": "nuevo@empresa.pe", "password": "clave-segura", "role": "emisor", "issuer_id": testIssuerID}

	resp, _ := call(t, app, http.MethodPost, "/api/auth/users", "emisor", in)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := call(t, app, http.MethodPost, "/api/auth/users", "admin", in)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	in["email"] = "dup@empresa.pe"
	resp, body = call(t, app, http.MethodPost, "/api/auth/users", "admin", in)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, string(body), "EMAIL_EXISTS")
}

// ──────────────────────────────────────────────────────────────────────────────
// Health
// ──────────────────────────────────────────────────────────────────────────────

func TestHealth(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	app := fiber.New()
	app.Get("/health", apphttp.Health("facturador", map[string]apphttp.HealthCheck{"postgres": ok}))
	app.Get("/degraded", apphttp.Health("facturador", map[string]apphttp.HealthCheck{"postgres": ok, "redis": down}))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/degraded", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "degraded", body["status"])
	checks, _ := body["checks"].(map[string]any)
	assert.True(t, strings.Contains(fmt.Sprint(checks["redis"]), "refused"))
}
