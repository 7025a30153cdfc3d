package issuance_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-sunat/internal/application/issuance"
	"github.com/jhoicas/facturador-sunat/internal/domain"
	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	"github.com/jhoicas/facturador-sunat/internal/domain/repository"
	infrasunat "github.com/jhoicas/facturador-sunat/internal/infrastructure/sunat"
	"github.com/jhoicas/facturador-sunat/internal/infrastructure/vault"
)

// memStore persistencia en memoria con la misma semántica de unicidad que la migración.
type memStore struct {
	mu       sync.Mutex
	docs     map[string]*entity.Document
	issuers  map[string]*entity.Issuer
	certs    []*entity.Certificate
	receipts []*entity.Receipt
	events   []*entity.AuditEvent
	seq      int

	// receiptErr simula un fallo al insertar el CDR.
	receiptErr error
}

func newMemStore() *memStore {
	return &memStore{docs: map[string]*entity.Document{}, issuers: map[string]*entity.Issuer{}}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%04d", prefix, s.seq)
}

func (s *memStore) repos() repository.Repositories {
	return repository.Repositories{
		Documents:    &memDocs{s},
		Issuers:      &memIssuers{s},
		Certificates: &memCerts{s},
		Receipts:     &memReceipts{s},
		Audit:        &memAudit{s},
	}
}

// Run ejecuta fn sin aislamiento real; basta para los tests del pipeline.
func (s *memStore) Run(_ context.Context, fn func(repository.Repositories) error) error {
	return fn(s.repos())
}

func (s *memStore) eventsOf(documentID, event string) []*entity.AuditEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.AuditEvent
	for _, e := range s.events {
		if e.DocumentID == documentID && (event == "" || e.Event == event) {
			out = append(out, e)
		}
	}
	return out
}

func (s *memStore) doc(t *testing.T, id string) *entity.Document {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.docs[id]
	require.True(t, ok, "el comprobante %s debe existir", id)
	cp := *d
	return &cp
}

func (s *memStore) put(d *entity.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *d
	s.docs[d.ID] = &cp
}

type memDocs struct{ s *memStore }

func (r *memDocs) MaxNumber(_ context.Context, issuerID, typeCode, series string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var max int64
	for _, d := range r.s.docs {
		if d.IssuerID == issuerID && d.TypeCode == typeCode && d.Series == series && d.Number > max {
			max = d.Number
		}
	}
	return max, nil
}

func (r *memDocs) Create(_ context.Context, doc *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, d := range r.s.docs {
		if d.IssuerID == doc.IssuerID && d.TypeCode == doc.TypeCode && d.Series == doc.Series && d.Number == doc.Number {
			return fmt.Errorf("documents_sequence_unique: %w", domain.ErrDuplicate)
		}
	}
	if doc.ID == "" {
		doc.ID = r.s.nextID("doc")
	}
	cp := *doc
	r.s.docs[doc.ID] = &cp
	return nil
}

func (r *memDocs) GetByID(_ context.Context, id string) (*entity.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.docs[id]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (r *memDocs) Update(_ context.Context, doc *entity.Document) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.docs[doc.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *doc
	r.s.docs[doc.ID] = &cp
	return nil
}

func (r *memDocs) ListRejectedByDay(_ context.Context, issuerID string, day time.Time) ([]*entity.Document, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*entity.Document
	for _, d := range r.s.docs {
		if d.IssuerID == issuerID && d.Status == entity.StatusRejected &&
			d.IssueDate.Format("2006-01-02") == day.Format("2006-01-02") {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *memDocs) MarkStuckAsError(_ context.Context, cutoff time.Time, reason string) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for _, d := range r.s.docs {
		if slices.Contains(entity.InFlight, d.Status) && d.ProcessingSince != nil && d.ProcessingSince.Before(cutoff) {
			d.Status = entity.StatusError
			d.LastError = reason
			d.ProcessingSince = nil
			ids = append(ids, d.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memDocs) ListPendingIDs(context.Context) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var ids []string
	for _, d := range r.s.docs {
		if d.Status == entity.StatusPending {
			ids = append(ids, d.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memDocs) CountByStatus(_ context.Context, issuerID string, day time.Time) (map[string]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := map[string]int{}
	for _, d := range r.s.docs {
		if d.IssuerID == issuerID && d.IssueDate.Format("2006-01-02") == day.Format("2006-01-02") {
			out[d.Status]++
		}
	}
	return out, nil
}

type memIssuers struct{ s *memStore }

func (r *memIssuers) Create(_ context.Context, iss *entity.Issuer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.issuers {
		if existing.RUC == iss.RUC {
			return domain.ErrDuplicate
		}
	}
	if iss.ID == "" {
		iss.ID = r.s.nextID("iss")
	}
	cp := *iss
	r.s.issuers[iss.ID] = &cp
	return nil
}

func (r *memIssuers) GetByID(_ context.Context, id string) (*entity.Issuer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	iss, ok := r.s.issuers[id]
	if !ok {
		return nil, nil
	}
	cp := *iss
	return &cp, nil
}

type memCerts struct{ s *memStore }

func (r *memCerts) Create(_ context.Context, c *entity.Certificate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if c.ID == "" {
		c.ID = r.s.nextID("cert")
	}
	cp := *c
	r.s.certs = append(r.s.certs, &cp)
	return nil
}

func (r *memCerts) GetActiveByIssuer(_ context.Context, issuerID string) (*entity.Certificate, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := len(r.s.certs) - 1; i >= 0; i-- {
		if c := r.s.certs[i]; c.IssuerID == issuerID && c.Active {
			cp := *c
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memCerts) DeactivateByIssuer(_ context.Context, issuerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.certs {
		if c.IssuerID == issuerID {
			c.Active = false
		}
	}
	return nil
}

type memReceipts struct{ s *memStore }

func (r *memReceipts) Create(_ context.Context, rc *entity.Receipt) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.receiptErr != nil {
		return r.s.receiptErr
	}
	if rc.ID == "" {
		rc.ID = r.s.nextID("cdr")
	}
	cp := *rc
	r.s.receipts = append(r.s.receipts, &cp)
	return nil
}

func (r *memReceipts) GetLatestByDocument(_ context.Context, documentID string) (*entity.Receipt, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := len(r.s.receipts) - 1; i >= 0; i-- {
		if rc := r.s.receipts[i]; rc.DocumentID == documentID {
			cp := *rc
			return &cp, nil
		}
	}
	return nil, nil
}

type memAudit struct{ s *memStore }

func (r *memAudit) Append(_ context.Context, ev *entity.AuditEvent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if ev.ID == "" {
		ev.ID = r.s.nextID("ev")
	}
	cp := *ev
	r.s.events = append(r.s.events, &cp)
	return nil
}

func (r *memAudit) ListByDocument(ctx context.Context, documentID string) ([]*entity.AuditEvent, error) {
	return r.s.eventsOf(documentID, ""), nil
}

// recordingQueue registra los IDs encolados.
type recordingQueue struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (q *recordingQueue) Enqueue(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

func (q *recordingQueue) Dequeue(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (q *recordingQueue) enqueued() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.ids...)
}

// countingSender cuenta llamadas y delega en otro BillSender (o devuelve err).
type countingSender struct {
	mu    sync.Mutex
	calls int
	next  infrasunat.BillSender
	err   error
}

func (s *countingSender) SendBill(ctx context.Context, req infrasunat.SendRequest) (infrasunat.RawResponse, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.next.SendBill(ctx, req)
}

func (s *countingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// fixedClock reloj controlable.
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

const (
	testRUC         = "20000000001"
	testPassphrase  = "llave-de-prueba"
	testPFXPassword = "demo123"
)

func testVault(t *testing.T) *vault.Cipher {
	t.Helper()
	c, err := vault.New(testPassphrase)
	require.NoError(t, err)
	return c
}

func demoPFX(t *testing.T) []byte {
	t.Helper()
	pfx, err := os.ReadFile(filepath.Join("..", "..", "infrastructure", "sunat", "signer", "testdata", "demo.pfx"))
	require.NoError(t, err, "falta el PFX de prueba")
	return pfx
}

// seedIssuer registra el emisor con clave SOL cifrada y, si withCert, su certificado activo.
func seedIssuer(t *testing.T, s *memStore, v *vault.Cipher, withCert bool) *entity.Issuer {
	t.Helper()
	sol, err := v.EncryptString("moddatos")
	require.NoError(t, err)
	iss := &entity.Issuer{
		RUC:                  testRUC,
		LegalName:            "EMPRESA DEMO S.A.C.",
		Address:              entity.Address{Ubigeo: "150101", Street: "AV. LOS PINOS 123", Province: "LIMA", Department: "LIMA", District: "LIMA"},
		SolUser:              "MODDATOS",
		SolPasswordEncrypted: sol,
	}
	require.NoError(t, s.repos().Issuers.Create(context.Background(), iss))
	if !withCert {
		return iss
	}
	pfxEnc, err := v.Encrypt(demoPFX(t))
	require.NoError(t, err)
	pwEnc, err := v.EncryptString(testPFXPassword)
	require.NoError(t, err)
	require.NoError(t, s.repos().Certificates.Create(context.Background(), &entity.Certificate{
		IssuerID:          iss.ID,
		PFXEncrypted:      pfxEnc,
		PasswordEncrypted: pwEnc,
		NotAfter:          time.Date(2046, 1, 1, 0, 0, 0, 0, time.UTC),
		Active:            true,
	}))
	return iss
}

// seedPendingDocument factura pendiente lista para el pipeline.
func seedPendingDocument(t *testing.T, s *memStore, issuerID string, number int64, issued time.Time) *entity.Document {
	t.Helper()
	doc := &entity.Document{
		IssuerID:      issuerID,
		TypeCode:      "01",
		Series:        "F001",
		Number:        number,
		IssueDate:     issued,
		Currency:      "PEN",
		OperationType: "0101",
		Customer:      entity.Customer{DocType: "6", DocNumber: "20123456786", Name: "CLIENTE SAC"},
		Status:        entity.StatusPending,
		Lines: []*entity.LineItem{{
			Position:    1,
			Description: "Servicio de consultoría",
			Quantity:    decimal.NewFromInt(1),
			UnitCode:    "ZZ",
			UnitPrice:   decimal.NewFromInt(100),
			Affectation: "10",
		}},
	}
	require.NoError(t, s.repos().Documents.Create(context.Background(), doc))
	return doc
}

var _ issuance.Queue = (*recordingQueue)(nil)
