package assessment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/trimrx/trimrx/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates a PostgreSQL-backed assessment repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const cols = `id, user_id, status, medication, plan_type, amount,
	date_of_birth, gender, phone, conditions, other_conditions,
	mtc_history, family_mtc_history, men2, pregnant_or_breastfeeding,
	weight_lbs, height_inches, activity_level,
	takes_medications, medications_list, prior_glp1, recent_glp1,
	has_allergies, allergies_list, blood_thinners,
	shipping_address, shipping_city, shipping_state, shipping_zip,
	utm_source, utm_medium, utm_campaign, utm_term, utm_content,
	denial_reason, created_at, updated_at`

// answers are stored as nullable text; NULL maps to the unanswered state.
func scanAssessment(row pgx.Row) (*Assessment, error) {
	var a Assessment
	var status string
	var mtc, familyMTC, men2, pregnant, takesMeds, prior, recent, allergies, thinners *string
	err := row.Scan(&a.ID, &a.UserID, &status, &a.Medication, &a.PlanType, &a.Amount,
		&a.DateOfBirth, &a.Gender, &a.Phone, &a.Conditions, &a.OtherConditions,
		&mtc, &familyMTC, &men2, &pregnant,
		&a.WeightLbs, &a.HeightInches, &a.ActivityLevel,
		&takesMeds, &a.MedicationsList, &prior, &recent,
		&allergies, &a.AllergiesList, &thinners,
		&a.ShippingAddress, &a.ShippingCity, &a.ShippingState, &a.ShippingZip,
		&a.UTMSource, &a.UTMMedium, &a.UTMCampaign, &a.UTMTerm, &a.UTMContent,
		&a.DenialReason, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Status = Status(status)
	a.MTCHistory = answerFromDB(mtc)
	a.FamilyMTCHistory = answerFromDB(familyMTC)
	a.MEN2 = answerFromDB(men2)
	a.PregnantOrBreastfeeding = answerFromDB(pregnant)
	a.TakesMedications = answerFromDB(takesMeds)
	a.PriorGLP1 = answerFromDB(prior)
	a.RecentGLP1 = answerFromDB(recent)
	a.HasAllergies = answerFromDB(allergies)
	a.BloodThinners = answerFromDB(thinners)
	return &a, nil
}

func answerFromDB(s *string) Answer {
	if s == nil {
		return AnswerUnknown
	}
	return ParseAnswer(*s)
}

func answerToDB(a Answer) *string {
	if !a.Answered() {
		return nil
	}
	s := string(a)
	return &s
}

func (r *repoPG) Create(ctx context.Context, a *Assessment) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO assessments (id, user_id, status, medication, plan_type, amount,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, a.UserID, string(a.Status), a.Medication, a.PlanType, a.Amount,
		a.UTMSource, a.UTMMedium, a.UTMCampaign, a.UTMTerm, a.UTMContent)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Assessment, error) {
	return scanAssessment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM assessments WHERE id = $1`, id))
}

func (r *repoPG) FindDraftByUser(ctx context.Context, userID uuid.UUID) (*Assessment, error) {
	return scanAssessment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM assessments
		 WHERE user_id = $1 AND status = 'draft'
		 ORDER BY created_at DESC LIMIT 1`, userID))
}

func (r *repoPG) Update(ctx context.Context, a *Assessment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE assessments SET
			medication=$2, plan_type=$3, amount=$4,
			date_of_birth=$5, gender=$6, phone=$7, conditions=$8, other_conditions=$9,
			mtc_history=$10, family_mtc_history=$11, men2=$12, pregnant_or_breastfeeding=$13,
			weight_lbs=$14, height_inches=$15, activity_level=$16,
			takes_medications=$17, medications_list=$18, prior_glp1=$19, recent_glp1=$20,
			has_allergies=$21, allergies_list=$22, blood_thinners=$23,
			shipping_address=$24, shipping_city=$25, shipping_state=$26, shipping_zip=$27,
			updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Medication, a.PlanType, a.Amount,
		a.DateOfBirth, a.Gender, a.Phone, a.Conditions, a.OtherConditions,
		answerToDB(a.MTCHistory), answerToDB(a.FamilyMTCHistory), answerToDB(a.MEN2), answerToDB(a.PregnantOrBreastfeeding),
		a.WeightLbs, a.HeightInches, a.ActivityLevel,
		answerToDB(a.TakesMedications), a.MedicationsList, answerToDB(a.PriorGLP1), answerToDB(a.RecentGLP1),
		answerToDB(a.HasAllergies), a.AllergiesList, answerToDB(a.BloodThinners),
		a.ShippingAddress, a.ShippingCity, a.ShippingState, a.ShippingZip)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UpdateAmount(ctx context.Context, id uuid.UUID, amount int) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE assessments SET amount=$2, updated_at=NOW() WHERE id = $1`, id, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UpdatePlan(ctx context.Context, id uuid.UUID, medication, planType string, amount int) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE assessments SET medication=$2, plan_type=$3, amount=$4, updated_at=NOW() WHERE id = $1`,
		id, medication, planType, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status, denialReason *string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE assessments SET status=$2, denial_reason=$3, updated_at=NOW() WHERE id = $1`,
		id, string(status), denialReason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Assessment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM assessments WHERE status = $1`, string(status)).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM assessments WHERE status = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Assessment, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM assessments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Assessment
	for rows.Next() {
		a, err := scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
