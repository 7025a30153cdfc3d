package sunat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"

	"github.com/jhoicas/facturador-sunat/internal/domain"
)

// ── Endpoints billService ──────────────────────────────────────────────────────

const (
	// EnvBeta ambiente de pruebas de SUNAT.
	EnvBeta = "beta"
	// EnvProduction ambiente de producción.
	EnvProduction = "produccion"

	BillServiceBetaURL       = "https://e-beta.sunat.gob.pe/ol-ti-itcpfegem-beta/billService"
	BillServiceProductionURL = "https://e-factura.sunat.gob.pe/ol-ti-itcpfegem/billService"
)

// BaseURLFor devuelve la URL de billService para el ambiente. override tiene prioridad.
func BaseURLFor(env, override string) (string, error) {
	if override != "" {
		return strings.TrimRight(override, "?"), nil
	}
	switch env {
	case EnvBeta, "":
		return BillServiceBetaURL, nil
	case EnvProduction, "prod", "production":
		return BillServiceProductionURL, nil
	}
	return "", fmt.Errorf("sunat: ambiente desconocido %q (usar 'beta' o 'produccion')", env)
}

// ── ConnectionManager ─────────────────────────────────────────────────────────

// ConnectionManager resuelve el endpoint desde el WSDL una sola vez y lo reutiliza
// hasta que se invalida. Es el único estado compartido entre workers.
type ConnectionManager struct {
	mu         sync.Mutex
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
	conn       *Connection
}

// NewConnectionManager crea el gestor para la URL base de billService (sin ?wsdl).
func NewConnectionManager(baseURL string, httpClient *http.Client, log zerolog.Logger) *ConnectionManager {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ConnectionManager{baseURL: baseURL, httpClient: httpClient, log: log}
}

// Get devuelve la conexión cacheada o descarga el WSDL para crearla.
// Un fallo de red o un 401 al descargar el WSDL es *domain.TransientNetworkError.
func (m *ConnectionManager) Get(ctx context.Context) (*Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conn != nil {
		return m.conn, nil
	}

	wsdlURL := m.baseURL + "?wsdl"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wsdlURL, nil)
	if err != nil {
		return nil, fmt.Errorf("wsdl: crear request: %w", err)
	}
	resp, err := m.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("wsdl: timeout o cancelación: %w", ctx.Err())
		}
		return nil, &domain.TransientNetworkError{Err: fmt.Errorf("wsdl: %w", err)}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &domain.TransientNetworkError{Err: fmt.Errorf("wsdl: leer respuesta: %w", err)}
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &domain.TransientNetworkError{StatusCode: resp.StatusCode, Err: errors.New("wsdl: no autorizado")}
	}

	endpoint := m.baseURL
	if resp.StatusCode == http.StatusOK {
		if loc := soapAddress(body); loc != "" {
			endpoint = loc
		}
	} else {
		m.log.Warn().Int("status", resp.StatusCode).Msg("WSDL no disponible; se usa la URL base")
	}

	m.conn = &Connection{WSDLURL: wsdlURL, Endpoint: endpoint}
	m.log.Info().Str("endpoint", endpoint).Msg("conexión billService creada y cacheada")
	return m.conn, nil
}

// Invalidate descarta la conexión cacheada; la próxima llamada a Get vuelve a leer el WSDL.
func (m *ConnectionManager) Invalidate() {
	m.mu.Lock()
	m.conn = nil
	m.mu.Unlock()
}

// soapAddress extrae wsdl:service/wsdl:port/soap:address/@location.
func soapAddress(wsdl []byte) string {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(wsdl); err != nil {
		return ""
	}
	for _, el := range doc.FindElements("//port/address[@location]") {
		if loc := strings.TrimSpace(el.SelectAttrValue("location", "")); loc != "" {
			return loc
		}
	}
	return ""
}
