package sunat

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/facturador-sunat/internal/domain"
)

const (
	soapNS = "http://schemas.xmlsoap.org/soap/envelope/"
	serNS  = "http://service.sunat.gob.pe"
	wsseNS = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"

	noApplicationResponse = "<e>No applicationResponse received</e>"
)

// ── Puerto (interfaz) ──────────────────────────────────────────────────────────

// Credentials clave SOL del emisor. El usuario WS-Security es RUC + usuario SOL.
type Credentials struct {
	RUC         string
	SolUser     string
	SolPassword string
}

// Username usuario del UsernameToken.
func (c Credentials) Username() string {
	return c.RUC + c.SolUser
}

// RetryObserver recibe cada reintento (intento fallido, espera antes del siguiente y causa).
type RetryObserver func(attempt int, wait time.Duration, err error)

// SendRequest datos de una llamada a sendBill.
type SendRequest struct {
	Credentials Credentials
	FileName    string // nombre del ZIP
	Zip         []byte
	OnRetry     RetryObserver
}

// BillSender define el puerto de salida para entregar comprobantes a SUNAT.
// La implementación concreta usa SOAP; en modo prueba se inyecta SimulatedSender.
type BillSender interface {
	SendBill(ctx context.Context, req SendRequest) (RawResponse, error)
}

// RetryPolicy parámetros de reintento del cliente.
type RetryPolicy struct {
	MaxAttempts int
	BackoffBase time.Duration // espera = BackoffBase × intento
	// Sleep permite sustituir la espera en tests; nil usa un timer respetando ctx.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy 3 intentos con espera de 3 s, 6 s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BackoffBase: 3 * time.Second}
}

// ── Implementación SOAP ────────────────────────────────────────────────────────

// BillServiceClient implementa BillSender contra billService (SOAP 1.1).
type BillServiceClient struct {
	httpClient *http.Client
	conn       *ConnectionManager
	policy     RetryPolicy
	log        zerolog.Logger
}

// NewBillServiceClient construye el cliente. httpClient debe traer su propio timeout
// (60 s por defecto) ya que billService puede tardar varios segundos en responder.
func NewBillServiceClient(conn *ConnectionManager, httpClient *http.Client, policy RetryPolicy, log zerolog.Logger) *BillServiceClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 1
	}
	if policy.Sleep == nil {
		policy.Sleep = sleepContext
	}
	return &BillServiceClient{httpClient: httpClient, conn: conn, policy: policy, log: log}
}

// ── Estructuras SOAP ──────────────────────────────────────────────────────────

type soapEnvelope struct {
	XMLName   xml.Name   `xml:"soapenv:Envelope"`
	XmlnsSoap string     `xml:"xmlns:soapenv,attr"`
	XmlnsSer  string     `xml:"xmlns:ser,attr"`
	XmlnsWsse string     `xml:"xmlns:wsse,attr"`
	Header    soapHeader `xml:"soapenv:Header"`
	Body      soapBody   `xml:"soapenv:Body"`
}

type soapHeader struct {
	Security wsseSecurity `xml:"wsse:Security"`
}

type wsseSecurity struct {
	UsernameToken wsseUsernameToken `xml:"wsse:UsernameToken"`
}

type wsseUsernameToken struct {
	Username string `xml:"wsse:Username"`
	Password string `xml:"wsse:Password"`
}

type soapBody struct {
	Content interface{}
}

func (b soapBody) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	start.Name.Local = "soapenv:Body"
	if err := e.EncodeToken(start); err != nil {
		return err
	}
	if err := e.Encode(b.Content); err != nil {
		return err
	}
	return e.EncodeToken(start.End())
}

// sendBillBody cuerpo de la operación sendBill.
type sendBillBody struct {
	XMLName     xml.Name `xml:"ser:sendBill"`
	FileName    string   `xml:"fileName"`
	ContentFile string   `xml:"contentFile"` // ZIP en Base64
}

// ── Estructuras de respuesta SOAP ─────────────────────────────────────────────

type soapResponseEnvelope struct {
	Body soapResponseBody `xml:"Body"`
}

type soapResponseBody struct {
	SendBillResponse *sendBillResponse `xml:"sendBillResponse"`
	Fault            *soapFault        `xml:"Fault"`
}

type sendBillResponse struct {
	ApplicationResponse string `xml:"applicationResponse"`
}

type soapFault struct {
	FaultCode   string `xml:"faultcode"`
	FaultString string `xml:"faultstring"`
	Detail      string `xml:"detail>message"`
}

// ── SendBill ──────────────────────────────────────────────────────────────────

// SendBill envía el ZIP con reintentos. Solo los errores de red y HTTP 401 se reintentan;
// cada reintento invalida la conexión cacheada. Un SOAP Fault u otra respuesta inesperada
// es *domain.BusinessRejection y no se reintenta.
func (c *BillServiceClient) SendBill(ctx context.Context, req SendRequest) (RawResponse, error) {
	payload, err := buildEnvelope(req)
	if err != nil {
		return nil, err
	}

	var lastErr *domain.TransientNetworkError
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		resp, err := c.sendOnce(ctx, payload)
		if err == nil {
			return resp, nil
		}
		var tn *domain.TransientNetworkError
		if !errors.As(err, &tn) {
			return nil, err
		}
		tn.Attempts = attempt
		lastErr = tn
		c.conn.Invalidate()

		if attempt == c.policy.MaxAttempts {
			break
		}
		wait := c.policy.BackoffBase * time.Duration(attempt)
		c.log.Warn().Err(err).
			Str("file", req.FileName).
			Int("attempt", attempt).
			Dur("wait", wait).
			Msg("fallo transitorio en sendBill; se reintenta")
		if req.OnRetry != nil {
			req.OnRetry(attempt, wait, tn)
		}
		if err := c.policy.Sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("soap: espera cancelada: %w", err)
		}
	}
	return nil, lastErr
}

func buildEnvelope(req SendRequest) ([]byte, error) {
	envelope := soapEnvelope{
		XmlnsSoap: soapNS,
		XmlnsSer:  serNS,
		XmlnsWsse: wsseNS,
		Header: soapHeader{Security: wsseSecurity{UsernameToken: wsseUsernameToken{
			Username: req.Credentials.Username(),
			Password: req.Credentials.SolPassword,
		}}},
		Body: soapBody{Content: &sendBillBody{
			FileName:    req.FileName,
			ContentFile: base64.StdEncoding.EncodeToString(req.Zip),
		}},
	}
	out, err := xml.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("soap: serializar envelope: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}

// sendOnce un intento: conexión (WSDL) + POST + clasificación de la respuesta.
func (c *BillServiceClient) sendOnce(ctx context.Context, payload []byte) (RawResponse, error) {
	conn, err := c.conn.Get(ctx)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, conn.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("soap: crear request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", "urn:sendBill")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("soap: timeout o cancelación: %w", ctx.Err())
		}
		return nil, &domain.TransientNetworkError{Err: fmt.Errorf("soap: llamada HTTP fallida: %w", err)}
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20)) // max 10 MB
	if err != nil {
		return nil, &domain.TransientNetworkError{StatusCode: resp.StatusCode, Err: fmt.Errorf("soap: leer respuesta: %w", err)}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &domain.TransientNetworkError{StatusCode: resp.StatusCode, Err: errors.New("soap: HTTP 401 no autorizado")}
	}
	return parseResponse(resp.StatusCode, rawBody)
}

// parseResponse normaliza la respuesta: StructuredEnvelope si trae applicationResponse,
// RawBytes en otro caso, BusinessRejection ante un SOAP Fault o un HTTP inesperado.
func parseResponse(status int, rawBody []byte) (RawResponse, error) {
	var envResp soapResponseEnvelope
	parseErr := xml.Unmarshal(rawBody, &envResp)

	if parseErr == nil && envResp.Body.Fault != nil {
		f := envResp.Body.Fault
		msg := strings.TrimSpace(f.FaultString)
		if d := strings.TrimSpace(f.Detail); d != "" && d != msg {
			msg = msg + " - " + d
		}
		return nil, &domain.BusinessRejection{Code: FaultCode(f.FaultCode), Message: msg}
	}
	if status < 200 || status >= 300 {
		return nil, &domain.BusinessRejection{
			Code:    fmt.Sprintf("HTTP %d", status),
			Message: truncate(string(rawBody), 500),
		}
	}
	if parseErr == nil && envResp.Body.SendBillResponse != nil {
		encoded := strings.TrimSpace(envResp.Body.SendBillResponse.ApplicationResponse)
		if encoded != "" {
			decoded, err := base64.StdEncoding.DecodeString(encoded)
			if err == nil {
				return StructuredEnvelope{Payload: decoded}, nil
			}
		}
	}
	if len(bytes.TrimSpace(rawBody)) == 0 {
		return RawBytes{Body: []byte(noApplicationResponse)}, nil
	}
	return RawBytes{Body: rawBody}, nil
}

// FaultCode reduce el faultcode SOAP al código SUNAT: "soap-env:Client.0111" → "0111".
func FaultCode(faultcode string) string {
	code := strings.TrimSpace(faultcode)
	if i := strings.LastIndex(code, ":"); i >= 0 {
		code = code[i+1:]
	}
	if i := strings.LastIndex(code, "."); i >= 0 {
		code = code[i+1:]
	}
	return code
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

var _ BillSender = (*BillServiceClient)(nil)
