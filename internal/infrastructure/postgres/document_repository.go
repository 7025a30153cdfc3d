package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturador-sunat/internal/domain/entity"
	"github.com/jhoicas/facturador-sunat/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación de DocumentRepository (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `
	id, issuer_id, type_code, series, number, issue_date, currency, operation_type,
	customer, payment_terms, reference, note_reason,
	taxed_amount, exempt_amount, unaffected_amount, export_amount, tax_amount, subtotal, total,
	status, unsigned_xml, signed_xml, hash, qr_data, attempts, last_attempt_at, processing_since,
	last_error, created_at, updated_at`

// MaxNumber mayor correlativo de la serie; 0 si está vacía.
func (r *DocumentRepo) MaxNumber(ctx context.Context, issuerID, typeCode, series string) (int64, error) {
	var max int64
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(MAX(number), 0) FROM documents
		WHERE issuer_id = $1 AND type_code = $2 AND series = $3`,
		issuerID, typeCode, series,
	).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("max number: %w", err)
	}
	return max, nil
}

// Create inserta cabecera y líneas. Si r.q es el pool abre su propia transacción;
// si ya es una tx, Begin crea un savepoint.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	customer, err := toJSON(doc.Customer)
	if err != nil {
		return fmt.Errorf("customer json: %w", err)
	}
	terms, err := toJSON(doc.PaymentTerms)
	if err != nil {
		return fmt.Errorf("payment terms json: %w", err)
	}
	var reference []byte
	if doc.Reference != nil {
		if reference, err = toJSON(doc.Reference); err != nil {
			return fmt.Errorf("reference json: %w", err)
		}
	}

	tx, err := r.q.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO documents (`+documentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19,
		        $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`,
		doc.ID, doc.IssuerID, doc.TypeCode, doc.Series, doc.Number, doc.IssueDate, doc.Currency, doc.OperationType,
		customer, terms, reference, nullIfEmpty(doc.NoteReason),
		doc.TaxedAmount, doc.ExemptAmount, doc.UnaffectedAmount, doc.ExportAmount, doc.TaxAmount, doc.Subtotal, doc.Total,
		doc.Status, nullIfEmptyBytes(doc.UnsignedXML), nullIfEmptyBytes(doc.SignedXML), nullIfEmpty(doc.Hash), nullIfEmpty(doc.QRData),
		doc.Attempts, utc(doc.LastAttemptAt), utc(doc.ProcessingSince), nullIfEmpty(doc.LastError), doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return duplicate(fmt.Sprintf("document %s-%s already exists", doc.TypeCode, doc.FullNumber()), err)
		}
		return fmt.Errorf("insert document: %w", err)
	}

	for i, l := range doc.Lines {
		if l == nil {
			continue
		}
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		l.DocumentID = doc.ID
		if l.Position == 0 {
			l.Position = i + 1
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO document_lines (id, document_id, position, description, quantity, unit_code, unit_price, affectation)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			l.ID, l.DocumentID, l.Position, l.Description, l.Quantity, l.UnitCode, l.UnitPrice, l.Affectation,
		)
		if err != nil {
			return fmt.Errorf("insert document line %d: %w", l.Position, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		if isUniqueViolation(err) {
			return duplicate("document already exists", err)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetByID cabecera más líneas; nil, nil si no existe.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*entity.Document, error) {
	row := r.q.QueryRow(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc.Lines, err = r.linesOf(ctx, doc.ID); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update persiste estado y artefactos. Las líneas son inmutables tras el alta.
func (r *DocumentRepo) Update(ctx context.Context, doc *entity.Document) error {
	doc.UpdatedAt = time.Now().UTC()
	tag, err := r.q.Exec(ctx, `
		UPDATE documents
		SET status           = $2,
		    unsigned_xml     = $3,
		    signed_xml       = $4,
		    hash             = $5,
		    qr_data          = $6,
		    attempts         = $7,
		    last_attempt_at  = $8,
		    processing_since = $9,
		    last_error       = $10,
		    updated_at       = $11
		WHERE id = $1`,
		doc.ID, doc.Status, nullIfEmptyBytes(doc.UnsignedXML), nullIfEmptyBytes(doc.SignedXML),
		nullIfEmpty(doc.Hash), nullIfEmpty(doc.QRData), doc.Attempts, utc(doc.LastAttemptAt),
		utc(doc.ProcessingSince), nullIfEmpty(doc.LastError), doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update document %s: no rows affected", doc.ID)
	}
	return nil
}

// ListRejectedByDay rechazados del emisor emitidos en el día (sin líneas).
func (r *DocumentRepo) ListRejectedByDay(ctx context.Context, issuerID string, day time.Time) ([]*entity.Document, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+documentColumns+` FROM documents
		WHERE issuer_id = $1 AND status = $2 AND (issue_date AT TIME ZONE 'America/Lima')::date = $3::date
		ORDER BY series, number`,
		issuerID, entity.StatusRejected, day.Format("2006-01-02"),
	)
	if err != nil {
		return nil, fmt.Errorf("list rejected: %w", err)
	}
	defer rows.Close()

	var list []*entity.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		list = append(list, doc)
	}
	return list, rows.Err()
}

// MarkStuckAsError reclasifica en una sola sentencia los comprobantes colgados.
func (r *DocumentRepo) MarkStuckAsError(ctx context.Context, cutoff time.Time, reason string) ([]string, error) {
	rows, err := r.q.Query(ctx, `
		UPDATE documents
		SET status = $1, last_error = $2, processing_since = NULL, updated_at = NOW()
		WHERE status = ANY($3) AND processing_since IS NOT NULL AND processing_since < $4
		RETURNING id`,
		entity.StatusError, reason, entity.InFlight, cutoff.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("mark stuck: %w", err)
	}
	return scanIDs(rows)
}

// ListPendingIDs pendientes por fecha de creación.
func (r *DocumentRepo) ListPendingIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM documents WHERE status = $1 ORDER BY created_at`, entity.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("list pending: %w", err)
	}
	return scanIDs(rows)
}

func scanIDs(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByStatus conteo por estado del día de emisión.
func (r *DocumentRepo) CountByStatus(ctx context.Context, issuerID string, day time.Time) (map[string]int, error) {
	rows, err := r.q.Query(ctx, `
		SELECT status, COUNT(*) FROM documents
		WHERE issuer_id = $1 AND (issue_date AT TIME ZONE 'America/Lima')::date = $2::date
		GROUP BY status`,
		issuerID, day.Format("2006-01-02"),
	)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (r *DocumentRepo) linesOf(ctx context.Context, documentID string) ([]*entity.LineItem, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id, document_id, position, description, quantity, unit_code, unit_price, affectation
		FROM document_lines WHERE document_id = $1 ORDER BY position`, documentID)
	if err != nil {
		return nil, fmt.Errorf("list lines: %w", err)
	}
	defer rows.Close()

	var lines []*entity.LineItem
	for rows.Next() {
		l := &entity.LineItem{}
		if err := rows.Scan(&l.ID, &l.DocumentID, &l.Position, &l.Description, &l.Quantity,
			&l.UnitCode, &l.UnitPrice, &l.Affectation); err != nil {
			return nil, fmt.Errorf("scan line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var (
		d                           entity.Document
		customer, terms, reference  []byte
		noteReason, hash, qr, lastE *string
	)
	err := row.Scan(
		&d.ID, &d.IssuerID, &d.TypeCode, &d.Series, &d.Number, &d.IssueDate, &d.Currency, &d.OperationType,
		&customer, &terms, &reference, &noteReason,
		&d.TaxedAmount, &d.ExemptAmount, &d.UnaffectedAmount, &d.ExportAmount, &d.TaxAmount, &d.Subtotal, &d.Total,
		&d.Status, &d.UnsignedXML, &d.SignedXML, &hash, &qr, &d.Attempts, &d.LastAttemptAt, &d.ProcessingSince,
		&lastE, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := fromJSON(customer, &d.Customer); err != nil {
		return nil, fmt.Errorf("customer json: %w", err)
	}
	if err := fromJSON(terms, &d.PaymentTerms); err != nil {
		return nil, fmt.Errorf("payment terms json: %w", err)
	}
	if len(reference) > 0 && string(reference) != "null" {
		d.Reference = &entity.DocumentReference{}
		if err := fromJSON(reference, d.Reference); err != nil {
			return nil, fmt.Errorf("reference json: %w", err)
		}
	}
	d.NoteReason = stringOrEmpty(noteReason)
	d.Hash = stringOrEmpty(hash)
	d.QRData = stringOrEmpty(qr)
	d.LastError = stringOrEmpty(lastE)
	return &d, nil
}
