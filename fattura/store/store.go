// Package store persists invoice records in SQLite. The record is
// stored flat, one column per scalar field; the line-item and
// installment sequences are embedded as JSON text so the record
// round-trips losslessly.
package store

import (
	"database/sql"
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/alapierre/go-fattura/fattura/model"
)

var logger = logrus.WithField("component", "fattura.store")

// ErrNotFound is returned when no invoice exists for the given id.
var ErrNotFound = errors.New("invoice not found")

const schema = `
CREATE TABLE IF NOT EXISTS invoices (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	status TEXT NOT NULL DEFAULT 'in_attesa',
	note TEXT NOT NULL DEFAULT '',
	approver TEXT NOT NULL DEFAULT '',

	number TEXT NOT NULL,
	date TEXT NOT NULL,
	document_type TEXT NOT NULL,
	document_type_description TEXT NOT NULL,
	currency TEXT NOT NULL DEFAULT '',
	art73 TEXT NOT NULL DEFAULT '',
	reason TEXT NOT NULL DEFAULT '',
	recipient_code TEXT NOT NULL DEFAULT '',
	recipient_pec TEXT NOT NULL DEFAULT '',

	seller_name TEXT NOT NULL,
	seller_tax_id TEXT NOT NULL,
	seller_fiscal_code TEXT NOT NULL DEFAULT '',
	seller_fiscal_regime TEXT NOT NULL DEFAULT '',
	seller_address TEXT NOT NULL,
	seller_street_number TEXT NOT NULL DEFAULT '',
	seller_postal_code TEXT NOT NULL,
	seller_municipality TEXT NOT NULL,
	seller_province TEXT NOT NULL,
	seller_country TEXT NOT NULL DEFAULT '',
	seller_email TEXT NOT NULL DEFAULT '',
	seller_phone TEXT NOT NULL DEFAULT '',
	seller_rea TEXT NOT NULL DEFAULT '',

	buyer_name TEXT NOT NULL,
	buyer_tax_id TEXT NOT NULL,
	buyer_fiscal_code TEXT NOT NULL DEFAULT '',
	buyer_address TEXT NOT NULL,
	buyer_street_number TEXT NOT NULL DEFAULT '',
	buyer_postal_code TEXT NOT NULL,
	buyer_municipality TEXT NOT NULL,
	buyer_province TEXT NOT NULL,
	buyer_country TEXT NOT NULL DEFAULT '',

	lines TEXT NOT NULL DEFAULT '[]',

	total TEXT NOT NULL,
	taxable_amount TEXT NOT NULL,
	tax_amount TEXT NOT NULL,
	vat_rate TEXT NOT NULL,
	vat_collection TEXT NOT NULL DEFAULT '',

	payment_terms TEXT NOT NULL DEFAULT '',
	installments TEXT NOT NULL DEFAULT '[]',

	intermediary TEXT NOT NULL DEFAULT '',
	issuer_role TEXT NOT NULL DEFAULT '',

	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the invoice database at the given path and
// bootstraps the schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating data directory")
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}

	logger.WithField("path", path).Debug("invoice store opened")
	return &Store{db: db, path: path}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

const insertColumns = `status, note, approver,
	number, date, document_type, document_type_description, currency, art73, reason, recipient_code, recipient_pec,
	seller_name, seller_tax_id, seller_fiscal_code, seller_fiscal_regime, seller_address, seller_street_number,
	seller_postal_code, seller_municipality, seller_province, seller_country, seller_email, seller_phone, seller_rea,
	buyer_name, buyer_tax_id, buyer_fiscal_code, buyer_address, buyer_street_number,
	buyer_postal_code, buyer_municipality, buyer_province, buyer_country,
	lines, total, taxable_amount, tax_amount, vat_rate, vat_collection,
	payment_terms, installments, intermediary, issuer_role`

const selectColumns = "id, " + insertColumns

// Save inserts the record and returns the assigned id. The record
// itself is not mutated.
func (s *Store) Save(inv *model.Invoice) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO invoices (`+insertColumns+`) VALUES (
			?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?, ?, ?, ?,
			?, ?, ?, ?, ?, ?,
			?, ?, ?, ?)`,
		inv.Status.String(), inv.Note, inv.Approver,
		inv.Number, inv.Date, inv.DocumentType, inv.DocumentTypeDescription, inv.Currency,
		inv.TaxRegimeArticle, inv.Reason, inv.RecipientCode, inv.RecipientPEC,
		inv.Seller.Name, inv.Seller.TaxID, inv.Seller.FiscalCode, inv.Seller.FiscalRegime,
		inv.Seller.Address, inv.Seller.StreetNumber, inv.Seller.PostalCode,
		inv.Seller.Municipality, inv.Seller.Province, inv.Seller.Country,
		inv.Seller.Email, inv.Seller.Phone, encodeRegistration(inv.Seller.Registration),
		inv.Buyer.Name, inv.Buyer.TaxID, inv.Buyer.FiscalCode,
		inv.Buyer.Address, inv.Buyer.StreetNumber, inv.Buyer.PostalCode,
		inv.Buyer.Municipality, inv.Buyer.Province, inv.Buyer.Country,
		encodeLines(inv.Lines), inv.Total, inv.TaxableAmount, inv.TaxAmount, inv.VATRate, inv.VATCollection,
		inv.PaymentTerms, encodeInstallments(inv.Installments),
		encodeIntermediary(inv.Intermediary), inv.IssuerRole,
	)
	if err != nil {
		return 0, errors.Wrap(err, "insert invoice")
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, errors.Wrap(err, "read assigned id")
	}

	logger.WithFields(logrus.Fields{"id": id, "number": inv.Number}).Debug("invoice saved")
	return id, nil
}

// ByID loads one record; ErrNotFound when the id is unknown.
func (s *Store) ByID(id int64) (*model.Invoice, error) {
	row := s.db.QueryRow(`SELECT `+selectColumns+` FROM invoices WHERE id = ?`, id)

	inv, err := scanInvoice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

// All returns every stored invoice, newest first.
func (s *Store) All() ([]*model.Invoice, error) {
	return s.query(`SELECT ` + selectColumns + ` FROM invoices ORDER BY created_at DESC, id DESC`)
}

// Pending returns the invoices still waiting for approval, newest
// first.
func (s *Store) Pending() ([]*model.Invoice, error) {
	return s.query(`SELECT ` + selectColumns + ` FROM invoices WHERE status = 'in_attesa' ORDER BY created_at DESC, id DESC`)
}

func (s *Store) query(q string, args ...any) ([]*model.Invoice, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query invoices")
	}
	defer func() { _ = rows.Close() }()

	var out []*model.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

// UpdateStatus performs the workflow status transition. Note and
// approver are overwritten together with the status.
func (s *Store) UpdateStatus(id int64, status model.Status, note, approver string) error {
	res, err := s.db.Exec(
		`UPDATE invoices SET status = ?, note = ?, approver = ? WHERE id = ?`,
		status.String(), note, approver, id,
	)
	if err != nil {
		return errors.Wrap(err, "update status")
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dst ...any) error
}

func scanInvoice(row scanner) (*model.Invoice, error) {
	var (
		inv                      model.Invoice
		status                   string
		rea, lines, installments string
		intermediary             string
	)

	err := row.Scan(
		&inv.ID, &status, &inv.Note, &inv.Approver,
		&inv.Number, &inv.Date, &inv.DocumentType, &inv.DocumentTypeDescription, &inv.Currency,
		&inv.TaxRegimeArticle, &inv.Reason, &inv.RecipientCode, &inv.RecipientPEC,
		&inv.Seller.Name, &inv.Seller.TaxID, &inv.Seller.FiscalCode, &inv.Seller.FiscalRegime,
		&inv.Seller.Address, &inv.Seller.StreetNumber, &inv.Seller.PostalCode,
		&inv.Seller.Municipality, &inv.Seller.Province, &inv.Seller.Country,
		&inv.Seller.Email, &inv.Seller.Phone, &rea,
		&inv.Buyer.Name, &inv.Buyer.TaxID, &inv.Buyer.FiscalCode,
		&inv.Buyer.Address, &inv.Buyer.StreetNumber, &inv.Buyer.PostalCode,
		&inv.Buyer.Municipality, &inv.Buyer.Province, &inv.Buyer.Country,
		&lines, &inv.Total, &inv.TaxableAmount, &inv.TaxAmount, &inv.VATRate, &inv.VATCollection,
		&inv.PaymentTerms, &installments, &intermediary, &inv.IssuerRole,
	)
	if err != nil {
		return nil, err
	}

	if err := inv.Status.UnmarshalText([]byte(status)); err != nil {
		return nil, err
	}
	if inv.Seller.Registration, err = decodeRegistration(rea); err != nil {
		return nil, errors.Wrap(err, "decode seller registration")
	}
	if inv.Lines, err = decodeLines(lines); err != nil {
		return nil, errors.Wrap(err, "decode lines")
	}
	if inv.Installments, err = decodeInstallments(installments); err != nil {
		return nil, errors.Wrap(err, "decode installments")
	}
	if inv.Intermediary, err = decodeIntermediary(intermediary); err != nil {
		return nil, errors.Wrap(err, "decode intermediary")
	}

	return &inv, nil
}
