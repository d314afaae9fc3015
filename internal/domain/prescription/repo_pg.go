package prescription

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type prescriptionRepoPG struct{ pool *pgxpool.Pool }

// NewPrescriptionRepoPG creates the Postgres-backed prescription repository.
func NewPrescriptionRepoPG(pool *pgxpool.Pool) PrescriptionRepository {
	return &prescriptionRepoPG{pool: pool}
}

const rxCols = `id, patient_id, practitioner, kind, diagnosis, procedure,
	items, notes, issued_at, created_at, updated_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	var items []byte
	err := row.Scan(&p.ID, &p.PatientID, &p.Practitioner, &p.Kind, &p.Diagnosis, &p.Procedure,
		&items, &p.Notes, &p.IssuedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &p.Items); err != nil {
			return nil, err
		}
	}
	return &p, nil
}

func (r *prescriptionRepoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	items, err := json.Marshal(p.Items)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO prescription (id, patient_id, practitioner, kind, diagnosis, procedure,
			items, notes, issued_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.PatientID, p.Practitioner, p.Kind, p.Diagnosis, p.Procedure,
		items, p.Notes, p.IssuedAt)
	return err
}

func (r *prescriptionRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return scanPrescription(r.pool.QueryRow(ctx, `SELECT `+rxCols+` FROM prescription WHERE id = $1`, id))
}

func (r *prescriptionRepoPG) Update(ctx context.Context, p *Prescription) error {
	items, err := json.Marshal(p.Items)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE prescription SET practitioner=$2, kind=$3, diagnosis=$4, procedure=$5,
			items=$6, notes=$7, issued_at=$8, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Practitioner, p.Kind, p.Diagnosis, p.Procedure,
		items, p.Notes, p.IssuedAt)
	return err
}

func (r *prescriptionRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM prescription WHERE id = $1`, id)
	return err
}

func (r *prescriptionRepoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM prescription WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+rxCols+` FROM prescription
		WHERE patient_id = $1 ORDER BY issued_at DESC LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, p)
	}
	return result, total, rows.Err()
}
